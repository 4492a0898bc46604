// ABOUTME: Health command for the quickpoll CLI
// ABOUTME: Checks backend connectivity and reports the service status

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/logger"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the QuickPoll backend and print what its health endpoint reports.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runHealth(ctx, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	logger.Init(cmdStderr, cfg.LogLevel, cfg.LogFormat)

	c := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	res := c.Health(ctx)
	if !res.Success {
		fmt.Fprintf(w, "Error: %s\n", res.Failure(client.DefaultErrorMessage))
		return 2
	}

	status := client.HealthStatus{}
	if res.Data != nil {
		status = *res.Data
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(cfg.APIURL, status))
	} else {
		fmt.Fprintln(w, formatHealthHuman(cfg.APIURL, status))
	}
	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, status client.HealthStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backend:  %s\n", url)
	s := status.Status()
	if s == "" {
		s = "ok"
	}
	fmt.Fprintf(&b, "Status:   %s", s)

	keys := make([]string, 0, len(status))
	for k := range status {
		if k != "status" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%-9s %v", k+":", status[k])
	}
	return b.String()
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, status client.HealthStatus) string {
	output := map[string]interface{}{
		"backend": url,
		"health":  status,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
