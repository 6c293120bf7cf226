package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skydispatch/core/runner"
	"github.com/kilianp07/skydispatch/core/scheduler"
)

var replayOpts struct {
	orders        string
	ticks         int
	dispatchDelay int64
	maxOrders     int
	maxFlights    int
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an orders CSV and print one JSON snapshot per tick",
	Long: "Replay feeds the orders of a CSV file (time, destination, priority) to a\n" +
		"fresh simulation and prints every snapshot as a JSON line. The output is\n" +
		"deterministic for a given file and set of flags.",
	RunE: runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayOpts.orders, "orders", "", "orders CSV file")
	f.IntVar(&replayOpts.ticks, "ticks", 10, "number of ticks to simulate")
	f.Int64Var(&replayOpts.dispatchDelay, "dispatch-delay", scheduler.DefaultDispatchDelay, "launch delay of newly opened flights")
	f.IntVar(&replayOpts.maxOrders, "max-orders", 0, "orders per flight, 0 for unbounded")
	f.IntVar(&replayOpts.maxFlights, "max-flights", 0, "active flights in the fleet, 0 for unbounded")
	_ = replayCmd.MarkFlagRequired("orders")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replayOpts.ticks < 0 {
		return fmt.Errorf("ticks must not be negative")
	}
	f, err := os.Open(replayOpts.orders)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	src, err := runner.LoadReplaySource(f)
	if err != nil {
		return err
	}
	sched, err := scheduler.New(scheduler.Config{
		DispatchDelay:      replayOpts.dispatchDelay,
		MaxOrdersPerFlight: replayOpts.maxOrders,
		MaxActiveFlights:   replayOpts.maxFlights,
	})
	if err != nil {
		return err
	}
	r, err := runner.New(sched, runner.Options{Source: src})
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	enc := json.NewEncoder(cmd.OutOrStdout())
	n := 0
	for u, err := range r.Updates() {
		if n == replayOpts.ticks {
			break
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(u); err != nil {
			return err
		}
		n++
	}
	return nil
}
