package app

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/store"
	"github.com/blackwell-systems/gemindex/internal/watcher"
)

var (
	watchInterval time.Duration
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print which views change as the store is written",
		Long: `Watch the store and print a line whenever the names, versions or deps view
changes. SQLite databases are watched through file events; Postgres stores
are polled on --interval. Press Ctrl+C to stop.`,
		Example: `  gemindex watch
  gemindex watch --interval 30s --driver postgres --db postgres://localhost/gems`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "also re-check on this interval (required for Postgres)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond, "quiet period after a file event before re-checking")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	path := sqliteFile(s.store.Dialect(), s.cfg.Database.DSN)
	if path == "" && watchInterval <= 0 {
		if s.store.Dialect() == store.Postgres {
			return fmt.Errorf("--interval is required when watching a postgres store")
		}
		return fmt.Errorf("an in-memory database cannot be watched")
	}

	out := cmd.OutOrStdout()
	w, err := watcher.New(s.snapshots(), path,
		watcher.WithLogger(s.logger),
		watcher.WithInterval(watchInterval),
		watcher.WithDebounce(watchDebounce),
		watcher.WithOnChange(func(c watcher.Change) {
			fmt.Fprintf(out, "%s changed: %s\n", c.At.Format(time.TimeOnly), strings.Join(c.Changed, ", "))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(out, "Watching for index changes (Ctrl+C to stop)...")

	<-ctx.Done()
	fmt.Fprintln(out, "Stopping watcher...")
	return w.Stop()
}
