package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd fetches everything once and prints it.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Fetch all information from a mug",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	m, err := newMug(ctx, cmd)
	if err != nil {
		return err
	}

	fmt.Println("Connecting...")
	err = m.Connection(ctx, func(ctx context.Context) error {
		fmt.Println("Connected.\nFetching info")
		_, err := m.UpdateAll(ctx)
		return err
	})
	if err != nil {
		return err
	}
	printInfo(m.Data)
	return nil
}
