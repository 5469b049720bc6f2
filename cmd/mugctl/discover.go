package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberble/mugctl/scanner"
)

// discoverCmd finds mugs broadcasting in pairing mode.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover new mugs in pairing mode",
	Long: `Scans for mugs that are in pairing mode (blinking blue).

Use "find" instead for a mug that has already been paired.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, _ []string) error {
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

	s := scanner.New(logger)
	mugs, err := s.Discover(ctx, &scanner.Options{
		Timeout: cfg.ScanTimeout.Std(),
		Address: flagMAC,
	})
	if err != nil {
		return err
	}
	if len(mugs) == 0 {
		return fmt.Errorf(`no mugs were found - be sure the mug is in pairing mode, or use "find" if already paired`)
	}
	for _, device := range mugs {
		fmt.Printf("Found mug: %s\n", device)
	}
	return nil
}
