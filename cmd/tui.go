// ABOUTME: Interactive terminal interface command
// ABOUTME: Logs to a file in the config directory so output never corrupts the screen

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/logger"
	"github.com/markalston/quickpoll/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive interface",
	Long:  "Browse, vote on and create polls in a full-screen terminal interface.",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runTUI(); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 2
	}

	logFile, err := logger.OpenFile(cfg.ConfigDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer logFile.Close()
	logger.Init(logFile, cfg.LogLevel, cfg.LogFormat)

	d := wire(cfg)
	slog.Debug("Starting TUI", "api_url", cfg.APIURL)

	err = tui.Run(tui.Options{
		Client:       d.client,
		Session:      d.session,
		Anon:         d.anon,
		PageSize:     cfg.PageSize,
		ShareBaseURL: cfg.ShareBaseURL,
	})
	if err != nil {
		slog.Error("TUI exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
