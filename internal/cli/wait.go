package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait <event>",
	Short: "Block until one matching event arrives",
	Long:  "Waits for the next event with the given name scoped to --session and prints it. Bounded by --timeout; interrupt to give up early.",
	Args:  cobra.ExactArgs(1),
	RunE:  runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
	defer cancel()

	conn, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Debug().Str("event", args[0]).Str("session", flagSession).Msg("waiting for event")

	evt, err := conn.Session(flagSession).WaitEvent(ctx, args[0])
	if err != nil {
		return err
	}
	return outputJSON(os.Stdout, evt)
}
