package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"module/internal/adapters/api"
	"module/internal/config"
	"module/internal/core"
	"module/internal/prereq"
)

func newServeCmd() *cobra.Command {
	var port int
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/SSE API server for remote control of copy jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				configPath = p
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			jobManager := core.NewJobManager(nil)
			prereqSvc := prereq.NewService(logger)

			server := api.NewServer(port, logger, jobManager,
				api.WithPrereqService(prereqSvc),
				api.WithConfigProvider(func() interface{} { return cfg }),
				api.WithConfigUpdater(func(update interface{}) error {
					m, _ := update.(map[string]interface{})
					if v, ok := m["lastSourcePath"].(string); ok {
						cfg.LastSourcePath = v
					}
					if v, ok := m["lastDestPath"].(string); ok {
						cfg.LastDestPath = v
					}
					return cfg.Save(configPath)
				}),
			)
			jobManager.SetEmitter(server)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			server.StartBackground(ctx)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8787, "HTTP port to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "config file path (defaults to the OS config directory)")
	return cmd
}
