package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <method> [params-json]",
	Short: "Send one protocol command and print its result",
	Long:  "Sends a single command (e.g. Page.navigate) with optional JSON params and prints the result, scoped to --session if given.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// parseParams validates the optional params argument.
func parseParams(args []string) (json.RawMessage, error) {
	if len(args) < 2 {
		return nil, nil
	}
	if !json.Valid([]byte(args[1])) {
		return nil, fmt.Errorf("params must be valid JSON, got %q", args[1])
	}
	return json.RawMessage(args[1]), nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	params, err := parseParams(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout.Duration)
	defer cancel()

	conn, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := conn.Session(flagSession)
	logger.Debug().Str("method", args[0]).Str("session", flagSession).Msg("sending command")

	result, err := sess.Call(ctx, args[0], params)
	if err != nil {
		return err
	}
	if len(result) == 0 {
		result = json.RawMessage(`{}`)
	}
	return outputJSON(os.Stdout, result)
}
