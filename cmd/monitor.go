package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skydispatch/core/model"
	"github.com/kilianp07/skydispatch/infra/grpcfeed"
)

var monitorOpts struct {
	addr  string
	count int
}

var errEnough = errors.New("enough updates")

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print status updates streamed by a running service",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorOpts.addr, "addr", "localhost:50051", "gRPC address of the service")
	monitorCmd.Flags().IntVar(&monitorOpts.count, "count", 0, "stop after this many updates, 0 to follow")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := grpcfeed.Dial(monitorOpts.addr)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	enc := json.NewEncoder(cmd.OutOrStdout())
	seen := 0
	err = client.Monitor(ctx, func(u model.StatusUpdate) error {
		if err := enc.Encode(u); err != nil {
			return err
		}
		seen++
		if monitorOpts.count > 0 && seen >= monitorOpts.count {
			return errEnough
		}
		return nil
	})
	if errors.Is(err, errEnough) || errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return err
}
