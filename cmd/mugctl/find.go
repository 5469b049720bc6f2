package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// findCmd locates a single already-paired mug.
var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find an already paired mug",
	Args:  cobra.NoArgs,
	RunE:  runFind,
}

func runFind(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	device, err := findDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Found mug: %s\n", device)
	return nil
}
