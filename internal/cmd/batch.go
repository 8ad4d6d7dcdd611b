package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/MeKo-Tech/tileindex/internal/viewport"
	"github.com/MeKo-Tech/tileindex/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve many viewports from a file in parallel",
	Long: `Resolve every viewport listed under the "viewports" key of a YAML, JSON
or TOML file and print one JSON line per viewport.

  viewports:
    - name: hanover
      lon: 9.73
      lat: 52.37
      zoom: 12.5
      width: 1024
      height: 768
      max_zoom: "14"
    - name: sheet
      mode: identity
      x: 2048
      y: 1024
      zoom: -1
      width: 800
      height: 600`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("file", "f", "", "Viewport batch file (required)")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", false, "Show progress on stderr")

	bindFlags(batchCmd, []flagBinding{
		{"batch.file", "file"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
	})
}

// batchEntry is one viewport of a batch file.
type batchEntry struct {
	Name            string `mapstructure:"name"`
	MinZoom         string `mapstructure:"min_zoom"`
	MaxZoom         string `mapstructure:"max_zoom"`
	viewport.Params `mapstructure:",squash"`
}

// batchLine is the JSON output for one resolved viewport.
type batchLine struct {
	Name  string       `json:"name"`
	Tiles []tile.Index `json:"tiles"`
	Error string       `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	file := viper.GetString("batch.file")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")

	if file == "" {
		return fmt.Errorf("--file is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tasks, err := loadBatch(file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting batch resolution", "file", file, "viewports", len(tasks), "workers", workers)

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		OnProgress: progress.Callback(),
	})
	results := pool.Run(ctx, tasks)
	progress.Done()

	logger.Info(progress.Summary())

	return writeBatch(cmd.OutOrStdout(), results)
}

// loadBatch reads the viewports of a batch file into pool tasks.
func loadBatch(path string) ([]worker.Task, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []batchEntry
	if err := v.UnmarshalKey("viewports", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse viewports: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch file %s lists no viewports", path)
	}

	tasks := make([]worker.Task, 0, len(entries))
	for i, e := range entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("viewport-%d", i)
		}

		vp, err := e.Params.Viewport()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		maxZoom, err := parseZoomLimit(e.MaxZoom)
		if err != nil {
			return nil, fmt.Errorf("%s: max_zoom: %w", name, err)
		}
		minZoom, err := parseZoomLimit(e.MinZoom)
		if err != nil {
			return nil, fmt.Errorf("%s: min_zoom: %w", name, err)
		}

		tasks = append(tasks, worker.Task{
			ID:       i,
			Name:     name,
			Viewport: vp,
			MaxZoom:  maxZoom,
			MinZoom:  minZoom,
		})
	}
	return tasks, nil
}

func writeBatch(w io.Writer, results []worker.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := batchLine{Name: r.Task.Name, Tiles: r.Indices}
		if line.Tiles == nil {
			line.Tiles = []tile.Index{}
		}
		if r.Err != nil {
			line.Error = r.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write result for %s: %w", r.Task.Name, err)
		}
	}
	return nil
}
