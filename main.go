// ABOUTME: Entry point for the quickpoll CLI
// ABOUTME: Command-line and terminal client for the QuickPoll voting service

package main

import (
	"fmt"
	"os"

	"github.com/markalston/quickpoll/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
