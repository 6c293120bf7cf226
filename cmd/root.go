package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skydispatch/app"
	"github.com/kilianp07/skydispatch/config"
	"github.com/kilianp07/skydispatch/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "skydispatch",
	Short:         "Drone delivery scheduling and fleet simulation",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler, simulation and status feed",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads cfgPath. A missing default file falls back to the
// built-in defaults; an explicit path must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		return config.Default()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
