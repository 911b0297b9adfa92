// Package cli implements the cdpwire command line interface.
package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mkeeler/cdpwire/internal/cdp"
	"github.com/mkeeler/cdpwire/internal/config"
)

// Version is set at build time.
var Version = "dev"

// Debug enables verbose debug output.
var Debug bool

// JSONOutput enables compact JSON output (default is human-readable).
var JSONOutput bool

// NoColor disables color output.
var NoColor bool

var (
	flagConfig  string
	flagURL     string
	flagSession string
	flagTimeout time.Duration
)

var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:           "cdpwire",
	Short:         "DevTools protocol client for scripted debugging",
	Long:          "cdpwire speaks the Chrome DevTools JSON-over-WebSocket protocol: send commands, stream events, and inspect attached page sessions over one multiplexed connection.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if Debug {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()

		if NoColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&JSONOutput, "json", false, "Output compact JSON (default is human-readable)")
	rootCmd.PersistentFlags().BoolVar(&NoColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.Path(), "Config file path")
	rootCmd.PersistentFlags().StringVarP(&flagURL, "url", "u", "", "Debugger WebSocket endpoint (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVarP(&flagSession, "session", "s", "", "Session id to scope commands and events to (default is the browser-level scope)")
	rootCmd.PersistentFlags().DurationVarP(&flagTimeout, "timeout", "t", 0, "Command timeout (default from config, 30s)")
	rootCmd.SetVersionTemplate(`cdpwire version {{.Version}}
`)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings merges the config file with command line flag overrides.
func loadSettings() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	return applyFlags(cfg, flagURL, flagTimeout), nil
}

// applyFlags overrides cfg with any flag values that were set.
func applyFlags(cfg config.Config, url string, timeout time.Duration) config.Config {
	if url != "" {
		cfg.URL = url
	}
	if timeout > 0 {
		cfg.Timeout = config.Duration{Duration: timeout}
	}
	return cfg
}

// dial connects to the configured debugger endpoint.
func dial(ctx context.Context, cfg config.Config) (*cdp.Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("no debugger url: pass --url or set url in the config file")
	}
	logger.Debug().Str("url", cfg.URL).Msg("dialing debugger")

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
	defer cancel()
	return cdp.Dial(dialCtx, cfg.URL)
}
