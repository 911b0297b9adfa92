package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mkeeler/cdpwire/internal/tail"
)

// outputJSON writes v as JSON: compact when --json is set, indented
// otherwise.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !JSONOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// formatEntry renders one captured event as a log line.
func formatEntry(e tail.Entry) string {
	ts := e.Time.Format("15:04:05.000")
	method := color.New(color.FgCyan).Sprint(e.Method)
	if e.SessionID != "" {
		return fmt.Sprintf("%s %s [%s] %s", ts, method, e.SessionID, e.Params)
	}
	return fmt.Sprintf("%s %s %s", ts, method, e.Params)
}
