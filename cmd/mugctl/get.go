package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberble/mugctl/internal/mug"
	"github.com/emberble/mugctl/internal/protocol"
)

// getCmd reads one or more attributes by name.
var getCmd = &cobra.Command{
	Use:   "get <attribute>...",
	Short: "Read attributes from the mug",
	Long: `Reads the given attributes and prints them.

Attribute names match the driver identifiers, with dashes or underscores:
  mugctl get target-temp current-temp battery
  mugctl get led_colour`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	m, err := newMug(ctx, cmd)
	if err != nil {
		return err
	}

	attrs := make([]protocol.Attribute, 0, len(args))
	for _, arg := range args {
		attrs = append(attrs, protocol.Attribute(strings.ReplaceAll(arg, "-", "_")))
	}

	return m.Connection(ctx, func(ctx context.Context) error {
		for _, attr := range attrs {
			value, err := m.GetAttr(ctx, attr)
			if err != nil {
				return err
			}
			label := mug.AttributeLabels[attr]
			if label == "" {
				label = string(attr)
			}
			labelColour.Printf("%-18s", label)
			fmt.Printf(" %v\n", value)
		}
		return nil
	})
}
