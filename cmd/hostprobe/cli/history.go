package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/majorcontext/hostprobe/internal/history"
	"github.com/majorcontext/hostprobe/internal/ui"
)

var (
	historyLimit   int
	historySession string
	pruneDays      int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded operation exchanges",
	Long: `Show operations sent to host agents and what they returned, newest first.
Use --session to replay one session in order.

Examples:
  hostprobe history
  hostprobe history --limit 5
  hostprobe history --session sess_3f9a1c0b7d2e --json`,
	Args: cobra.NoArgs,
	RunE: showHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old history records",
	Args:  cobra.NoArgs,
	RunE:  pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show")
	historyCmd.Flags().StringVar(&historySession, "session", "", "show every record of one session")
	historyPruneCmd.Flags().IntVar(&pruneDays, "days", 30, "delete records older than this many days")
}

// historyEntry is the JSON form of a record.
type historyEntry struct {
	Seq         int64     `json:"seq"`
	Session     string    `json:"session"`
	Time        time.Time `json:"time"`
	Server      string    `json:"server"`
	Index       int       `json:"index"`
	Code        byte      `json:"code"`
	Description string    `json:"description"`
	Response    string    `json:"response,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryPath())
}

func showHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 1 {
		return fmt.Errorf("--limit must be at least 1")
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var recs []history.Record
	if historySession != "" {
		recs, err = store.BySession(historySession)
	} else {
		recs, err = store.Recent(historyLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeHistoryJSON(out, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No history found")
		return nil
	}
	return writeHistoryTable(out, recs)
}

func writeHistoryJSON(w io.Writer, recs []history.Record) error {
	entries := make([]historyEntry, len(recs))
	for i, r := range recs {
		entries[i] = historyEntry{
			Seq:         r.Seq,
			Session:     r.SessionID,
			Time:        r.Timestamp,
			Server:      r.Server,
			Index:       r.Index,
			Code:        r.Code,
			Description: r.Description,
			Response:    string(r.Response),
			Error:       r.Error,
			DurationMS:  r.Duration.Milliseconds(),
		}
	}
	return json.NewEncoder(w).Encode(entries)
}

func writeHistoryTable(w io.Writer, recs []history.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tWHEN\tSERVER\tOPERATION\tRESULT")
	for _, r := range recs {
		result := summarizeResponse(r.Response)
		if r.Failed() {
			result = ui.Red("error: " + r.Error)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d. %s\t%s\n",
			r.Seq,
			formatAge(r.Timestamp),
			r.Server,
			r.Index,
			r.Description,
			result,
		)
	}
	return tw.Flush()
}

// summarizeResponse returns the first line of a response, shortened.
func summarizeResponse(resp []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(resp)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "(empty)"
	}
	if r := []rune(line); len(r) > 48 {
		return string(r[:47]) + "…"
	}
	return line
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	if pruneDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Prune(time.Now().AddDate(0, 0, -pruneDays))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) older than %d days\n", removed, pruneDays)
	return nil
}
