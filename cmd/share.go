// ABOUTME: Share command printing a poll's public link
// ABOUTME: Optionally renders the link as a QR code in the terminal

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/quickpoll/internal/share"
)

var (
	shareQR    bool
	shareLevel string
)

var shareCmd = &cobra.Command{
	Use:   "share <poll-id>",
	Short: "Print a poll's share link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitWith(func(ctx context.Context) int {
			return runShare(cmd.OutOrStdout(), args[0], shareQR, shareLevel)
		})
	},
}

func init() {
	shareCmd.Flags().BoolVar(&shareQR, "qr", false, "Also print the link as a QR code")
	shareCmd.Flags().StringVar(&shareLevel, "qr-level", "M", "QR error correction: L, M, H or HH")
	rootCmd.AddCommand(shareCmd)
}

// runShare prints the share link and, if asked, its QR code
func runShare(w io.Writer, pollID string, qr bool, level string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	link := share.URL(cfg.ShareBaseURL, pollID)

	var code string
	if qr {
		code, err = share.QRLevel(link, share.ParseLevel(level))
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	if IsJSONOutput() {
		output := map[string]interface{}{"poll_id": pollID, "url": link}
		if qr {
			output["qr"] = code
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, link)
	if qr {
		fmt.Fprint(w, code)
	}
	return 0
}
