package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkeeler/cdpwire/internal/target"
)

var targetsCmd = &cobra.Command{
	Use:   "targets [query]",
	Short: "List page targets attached to the debugger",
	Long:  "Attaches a session to every open page target and lists them. An optional query filters by session id prefix or title substring.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
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

	reg := target.NewRegistry(conn.Session(""))
	if _, err := reg.AttachAll(ctx); err != nil {
		return err
	}

	infos := reg.All()
	if len(args) == 1 {
		infos = reg.Find(args[0])
	}
	logger.Debug().Int("count", len(infos)).Msg("attached page targets")

	if JSONOutput {
		return outputJSON(os.Stdout, infos)
	}

	if len(infos) == 0 {
		fmt.Println("no page targets")
		return nil
	}
	for _, info := range infos {
		marker := " "
		if info.Active {
			marker = color.GreenString("*")
		}
		fmt.Printf("%s %s  %s  %s\n", marker, info.SessionID, color.New(color.Bold).Sprint(info.Title), info.URL)
	}
	return nil
}
