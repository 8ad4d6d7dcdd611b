package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/tileindex/internal/mbtiles"
	"github.com/MeKo-Tech/tileindex/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tile index and tile bounds queries over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "MBTiles tileset for default zoom limits and presence flags")
	serveCmd.Flags().Int("max-tiles", 4096, "Reject viewports resolving to more tiles (0 disables)")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for responses")

	bindFlags(serveCmd, []flagBinding{
		{"serve.addr", "addr"},
		{"serve.mbtiles", "mbtiles"},
		{"serve.max_tiles", "max-tiles"},
		{"serve.cache_control", "cache-control"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	tilesetPath := viper.GetString("serve.mbtiles")
	maxTiles := viper.GetInt("serve.max_tiles")
	cacheControl := viper.GetString("serve.cache_control")

	cfg := server.Config{
		MaxTiles:     maxTiles,
		CacheControl: cacheControl,
	}
	if tilesetPath != "" {
		reader, err := mbtiles.OpenReader(tilesetPath)
		if err != nil {
			return fmt.Errorf("failed to open tileset: %w", err)
		}
		defer reader.Close()
		cfg.Tileset = reader
	}

	api := server.NewAPI(cfg, logger)

	logger.Info("tile index server listening",
		"addr", addr,
		"mbtiles", tilesetPath,
		"max_tiles", maxTiles,
	)

	srv := &http.Server{Addr: addr, Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Received interrupt signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
