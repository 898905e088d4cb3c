package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/majorcontext/hostprobe/internal/config"
	"github.com/majorcontext/hostprobe/internal/doctor"
	"github.com/majorcontext/hostprobe/internal/history"
	"github.com/majorcontext/hostprobe/internal/log"
	"github.com/majorcontext/hostprobe/internal/transport"
	"github.com/majorcontext/hostprobe/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [host] [port]",
	Short: "Diagnostic information about the hostprobe setup",
	Long: `Displays diagnostic information for debugging:

- hostprobe version and platform
- configuration file and effective server settings
- the operations table and whether it is valid
- the exchange history database
- debug log files
- whether the server accepts TCP connections (when a host is known)

No operation is sent to the server.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Bold("hostprobe doctor"))
	fmt.Fprintln(out)

	cfg, cfgErr := loadConfig()

	r := doctor.NewReport()
	r.Add(doctor.Func{Title: "Version", Fn: printVersion})
	r.Add(doctor.Func{Title: "Configuration", Fn: func(w io.Writer) error {
		if cfgErr != nil {
			return cfgErr
		}
		return printConfig(w, cfg)
	}})
	if cfgErr == nil {
		r.Add(doctor.Func{Title: "Operations", Fn: func(w io.Writer) error { return printOperations(w, cfg) }})
		r.Add(doctor.Func{Title: "History", Fn: func(w io.Writer) error { return printHistory(w, cfg) }})
	}
	r.Add(doctor.Func{Title: "Debug Logs", Fn: printDebugLogs})
	if cfgErr == nil {
		r.Add(doctor.Func{Title: "Server", Fn: func(w io.Writer) error { return printServer(cmd, w, cfg, args) }})
	}

	if failed := r.Write(out); failed > 0 {
		log.Debug("doctor found problems", "sections", failed)
	}
	return nil
}

func printVersion(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%s\n", version)
	fmt.Fprintf(tw, "Platform:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(tw, "Go:\t%s\n", runtime.Version())
	return tw.Flush()
}

func printConfig(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	path := filepath.Join(config.Dir(), "config.yaml")
	state := ui.Dim("not present, using defaults")
	if _, err := os.Stat(path); err == nil {
		state = ui.OKTag() + " loaded"
	}
	fmt.Fprintf(tw, "Directory:\t%s\n", config.Dir())
	fmt.Fprintf(tw, "Config file:\t%s (%s)\n", path, state)
	host := cfg.Server.Host
	if host == "" {
		host = ui.Dim("not set")
	}
	fmt.Fprintf(tw, "Server host:\t%s\n", host)
	fmt.Fprintf(tw, "Server port:\t%d\n", cfg.Server.Port)
	fmt.Fprintf(tw, "Timeouts:\tconnect %s, response %s, idle %s\n",
		cfg.Server.ConnectTimeout, cfg.Server.ResponseTimeout, cfg.Server.IdleTimeout)
	fmt.Fprintf(tw, "Max response:\t%d bytes\n", cfg.Server.MaxResponse)
	return tw.Flush()
}

func printOperations(w io.Writer, cfg *config.Config) error {
	source := "built-in"
	if cfg.OperationsFile != "" {
		source = cfg.OperationsFile
	}
	fmt.Fprintf(w, "Source:  %s\n", source)

	table, err := loadTable(cfg, "")
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %d operations, no conflicts\n", ui.OKTag(), len(table.Operations))
	return nil
}

func printHistory(w io.Writer, cfg *config.Config) error {
	if !cfg.History.Enabled {
		fmt.Fprintf(w, "%s disabled\n", ui.Dim("—"))
		return nil
	}
	path := cfg.HistoryPath()
	fmt.Fprintf(w, "Database:  %s\n", path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "%s not created yet\n", ui.Dim("—"))
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	n, err := store.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %d exchange(s) recorded\n", ui.OKTag(), n)
	return nil
}

func printDebugLogs(w io.Writer) error {
	fmt.Fprintf(w, "Directory:  %s\n", config.DebugDir())
	if f := log.DebugFile(); f != "" {
		fmt.Fprintf(w, "Current:    %s\n", f)
	}
	return nil
}

func printServer(cmd *cobra.Command, w io.Writer, cfg *config.Config, args []string) error {
	addr, err := serverAddress(cfg, args)
	if errors.Is(err, errNoHost) {
		fmt.Fprintf(w, "%s no host configured, skipping connectivity check\n", ui.Dim("—"))
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	client, err := transport.Dial(cmd.Context(), addr, transportOptions(cfg))
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Fprintf(w, "%s %s accepts connections (%s)\n", ui.OKTag(), client.RemoteAddr(), time.Since(start).Round(time.Millisecond))
	return nil
}
