package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/MeKo-Tech/tileindex/internal/viewport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var boundsCmd = &cobra.Command{
	Use:   "bounds z{z}_x{x}_y{y}",
	Short: "Print the spatial bounds of a tile",
	Example: `  tileindex bounds z13_x4297_y2754
  tileindex bounds z0_x-3_y-2 --mode identity`,
	Args: cobra.ExactArgs(1),
	RunE: runBounds,
}

func init() {
	rootCmd.AddCommand(boundsCmd)

	boundsCmd.Flags().String("mode", viewport.ModeGeo, "Coordinate model: geo or identity")

	bindFlags(boundsCmd, []flagBinding{
		{"bounds.mode", "mode"},
	})
}

func runBounds(cmd *cobra.Command, args []string) error {
	idx, err := tile.ParseIndex(args[0])
	if err != nil {
		return err
	}

	vp, err := viewport.Params{Mode: viper.GetString("bounds.mode")}.Viewport()
	if err != nil {
		return err
	}

	out, err := json.Marshal(tile.ResolveBounds(vp, idx))
	if err != nil {
		return fmt.Errorf("failed to encode bounds: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
