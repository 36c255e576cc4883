// Command filecore is a terminal front end to the file-copy engine, and a
// small server front end for remote (browser, dual-pane UI) control.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	debug bool

	logger zerolog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "filecore",
		Short: "Copy and move files with conflict-aware, resumable transfers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(newCopyCmd())
	root.AddCommand(newMoveCmd())
	root.AddCommand(newServeCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
