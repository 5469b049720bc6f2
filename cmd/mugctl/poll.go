package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberble/mugctl/internal/mug"
)

// pollCmd keeps a connection open and reports changes as they happen.
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Fetch mug info and keep polling for changes",
	Long: `Fetches the full device state, then watches for push events. Queued
changes are applied every second; once a minute a full refresh runs as a
safety net. Stop with Ctrl+C; the connection is closed on exit.`,
	Args: cobra.NoArgs,
	RunE: runPoll,
}

var pollInterval time.Duration

func init() {
	pollCmd.Flags().DurationVar(&pollInterval, "interval", time.Second, "Delay between queued-update ticks")
}

func runPoll(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	m, err := newMug(ctx, cmd)
	if err != nil {
		return err
	}

	fmt.Println("Connecting...")
	return m.Connection(ctx, func(ctx context.Context) error {
		fmt.Println("Connected.\nFetching info")
		if _, err := m.UpdateAll(ctx); err != nil {
			return err
		}
		printInfo(m.Data)

		fmt.Println("\nWatching for changes")
		return pollLoop(ctx, m)
	})
}

// pollLoop applies queued updates every tick and runs a full refresh every
// sixty ticks. Returns when ctx is cancelled.
func pollLoop(ctx context.Context, m *mug.Mug) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		// Each full cycle starts fresh so repeated events dispatch again.
		m.ClearPendingEvents()
		for i := 0; i < 60; i++ {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			changes, err := m.UpdateQueuedAttributes(ctx)
			if err != nil {
				return err
			}
			printChanges(changes)
		}
		changes, err := m.UpdateAll(ctx)
		if err != nil {
			return err
		}
		printChanges(changes)
	}
}
