package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkeeler/cdpwire/internal/cdp"
	"github.com/mkeeler/cdpwire/internal/tail"
)

var eventsCmd = &cobra.Command{
	Use:   "events <name> [name...]",
	Short: "Stream matching protocol events",
	Long: `Subscribes to the given event names (e.g. Page.loadEventFired
Network.requestWillBeSent) scoped to --session and streams them to stdout
until interrupted. With --capture, collects events for the given duration
into a bounded ring and prints them all at the end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().Duration("capture", 0, "Collect events for this duration, then print them (0 streams live)")
	eventsCmd.Flags().StringSlice("enable", nil, "Domains to enable before streaming (e.g. Page,Network)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	captureFor, _ := cmd.Flags().GetDuration("capture")
	domains, _ := cmd.Flags().GetStringSlice("enable")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if captureFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, captureFor)
		defer cancel()
	}

	conn, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	sess := conn.Session(flagSession)

	// Most domains only emit events after an enable command.
	for _, domain := range domains {
		enableCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
		_, err := sess.Call(enableCtx, domain+".enable", nil)
		cancel()
		if err != nil {
			return fmt.Errorf("enable %s: %w", domain, err)
		}
	}

	decoders := make(map[string]cdp.EventDecoder, len(args))
	for _, name := range args {
		decoders[name] = cdp.RawDecoder
	}
	stream := sess.DecodeEvents(decoders)
	defer stream.Close()

	logger.Debug().Strs("events", args).Str("session", flagSession).Msg("streaming events")

	buf := tail.New(cfg.Capacity)
	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, cdp.ErrConnectionClosed) {
				break
			}
			return err
		}

		entry := tail.Entry{
			Time:      time.Now(),
			Method:    evt.Method,
			SessionID: evt.SessionID,
			Params:    evt.Value.(json.RawMessage),
		}
		if captureFor > 0 {
			buf.Push(entry)
			continue
		}
		if JSONOutput {
			if err := json.NewEncoder(os.Stdout).Encode(entry); err != nil {
				return err
			}
		} else {
			fmt.Println(formatEntry(entry))
		}
	}

	if captureFor > 0 {
		return outputJSON(os.Stdout, buf.All())
	}
	return nil
}
