package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emberble/mugctl/internal/mug"
	"github.com/emberble/mugctl/internal/transport"
	"github.com/emberble/mugctl/internal/transport/goble"
	"github.com/emberble/mugctl/pkg/config"
	"github.com/emberble/mugctl/scanner"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mugctl",
	Short: "Control Ember mugs over Bluetooth Low Energy",
	Long: `Command-line tool for Ember beverage heaters:

- Discover mugs in pairing mode and find already paired ones
- Fetch the full device state (temperatures, battery, LED colour, firmware)
- Watch for changes pushed by the device
- Read and write individual attributes by name

Temperatures are stored in Celsius; use --imperial for Fahrenheit display.`,
	Version: version,
}

var (
	flagConfig   string
	flagMAC      string
	flagImperial bool
	flagExtra    bool
)

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a yaml config file")
	rootCmd.PersistentFlags().StringVar(&flagMAC, "mac", "", "Device MAC address (skips name-based discovery)")
	rootCmd.PersistentFlags().BoolVar(&flagImperial, "imperial", false, "Display temperatures in Fahrenheit")
	rootCmd.PersistentFlags().BoolVar(&flagExtra, "extra", false, "Include extended attributes (battery voltage, device clock)")
}

// loadConfig merges the optional config file with command-line flags. Flags
// win over file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("imperial") {
		cfg.Imperial = flagImperial
	}
	if cmd.Flags().Changed("extra") {
		cfg.ExtraAttributes = flagExtra
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newMug locates the device and builds a driver for it.
func newMug(ctx context.Context, cmd *cobra.Command) (*mug.Mug, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	device, err := findDevice(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Found mug: %s\n", device)

	opts := []mug.Option{mug.WithLogger(logger)}
	if cfg.Imperial {
		opts = append(opts, mug.WithImperialUnits())
	}
	if cfg.ExtraAttributes {
		opts = append(opts, mug.WithExtraAttributes())
	}
	t := goble.New(logger, cfg.ConnectTimeout.Std())
	return mug.New(t, device, opts...), nil
}

// findDevice finds a single already-paired mug, by MAC when given.
func findDevice(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (transport.DeviceHandle, error) {
	s := scanner.New(logger)
	return s.Find(ctx, &scanner.Options{
		Timeout: cfg.ScanTimeout.Std(),
		Address: flagMAC,
	})
}
