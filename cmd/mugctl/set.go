package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberble/mugctl/internal/protocol"
)

// setCmd writes one or more attributes given as name=value pairs.
var setCmd = &cobra.Command{
	Use:   "set <attribute>=<value>...",
	Short: "Write attributes to the mug",
	Long: `Writes the given attribute values.

Examples:
  mugctl set target-temp=55.5
  mugctl set name=MY-MUG led-colour=#f400a1
  mugctl set temperature-unit=c volume-level=high`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	type assignment struct {
		attr protocol.Attribute
		raw  string
	}
	assignments := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q: expected <attribute>=<value>", arg)
		}
		assignments = append(assignments, assignment{
			attr: protocol.Attribute(strings.ReplaceAll(name, "-", "_")),
			raw:  value,
		})
	}

	ctx, stop := signalContext()
	defer stop()

	m, err := newMug(ctx, cmd)
	if err != nil {
		return err
	}

	return m.Connection(ctx, func(ctx context.Context) error {
		for _, a := range assignments {
			if err := m.SetAttr(ctx, a.attr, a.raw); err != nil {
				return err
			}
			fmt.Printf("Set %s to %s\n", a.attr, a.raw)
		}
		return nil
	})
}
