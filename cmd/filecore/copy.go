package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"module/internal/fsobject"
	"module/internal/ops"
)

func newCopyCmd() *cobra.Command {
	return newTransferCmd("copy", ops.Copy)
}

func newMoveCmd() *cobra.Command {
	return newTransferCmd("move", ops.Move)
}

func newTransferCmd(use string, kind ops.Kind) *cobra.Command {
	var chunkSize int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   use + " <source>... <dest>",
		Short: fmt.Sprintf("%s one or more files or directories into dest", use),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := args[len(args)-1]
			sourceArgs := args[:len(args)-1]

			sources := make([]*fsobject.FsObject, 0, len(sourceArgs))
			for _, p := range sourceArgs {
				sources = append(sources, fsobject.New(p))
			}

			var opts []ops.Option
			if chunkSize > 0 {
				opts = append(opts, ops.WithChunkSize(chunkSize))
			}

			var observer ops.Observer
			var done <-chan struct{}
			var bind func(*ops.Performer)
			if jsonOutput {
				o := newJSONObserver()
				observer, done, bind = o, o.done, o.bind
			} else {
				o := newConsoleObserver()
				observer, done, bind = o, o.done, o.bind
			}

			performer := ops.NewPerformer(kind, sources, dest, observer, opts...)
			bind(performer)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\nshutdown requested, canceling at the next chunk boundary...")
				performer.Cancel()
			}()

			performer.Start(ctx)
			<-done
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in bytes for streamed copies (0 = default)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON events instead of a console UI")
	return cmd
}
