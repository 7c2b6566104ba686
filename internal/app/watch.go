package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/blackwell-systems/insightwatch/internal/output"
	"github.com/blackwell-systems/insightwatch/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchInterval time.Duration
	watchQuiet    bool
	watchNotify   bool
	watchFrom     string
	watchTo       string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate stored records and alert on new insights",
	Long: `Run a foreground monitor that evaluates every domain from the store at a
regular interval. New insights and resolved warnings are printed as alerts and,
with --notify, sent as desktop notifications.

Examples:
  insightwatch watch                    # check every 10 minutes (ctrl-c to stop)
  insightwatch watch --interval 1m      # check every minute
  insightwatch watch --notify --quiet   # desktop notifications only`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Minute, "Check interval (e.g. 1m, 1h)")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications")
	watchCmd.Flags().StringVar(&watchFrom, "from", "", "Start of the analyzed period YYYY-MM-DD")
	watchCmd.Flags().StringVar(&watchTo, "to", "", "Last day of the analyzed period YYYY-MM-DD")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval < 10*time.Second {
		return fmt.Errorf("interval must be at least 10s, got %s", watchInterval)
	}
	w, err := parseWindow(watchFrom, watchTo)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// A fresh runner per check so the reference date follows the clock.
	dashboard := func(ctx context.Context) (map[adapter.Domain][]insight.Insight, error) {
		return newRunner(db, time.Time{}).Dashboard(ctx, w)
	}

	out := cmd.OutOrStdout()
	alertFn := func(a watcher.Alert) {
		logger.Debug("alert", zap.String("level", a.Level), zap.String("domain", string(a.Domain)), zap.String("title", a.Title))
		if watchNotify {
			_ = watcher.Notify(a)
		}
		if !watchQuiet {
			printAlert(out, a)
		}
	}

	wt := watcher.New(dashboard, watchInterval, alertFn)
	initial, err := wt.Prime(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}
	if !watchQuiet {
		fmt.Fprintf(out, "insightwatch watching... (checking every %s)\n", watchInterval)
		fmt.Fprintf(out, "[%s] %s %d insights across %d domains\n",
			initial.Timestamp.Format("15:04:05"), output.StylePositive.Render("✓"),
			initial.Count(), len(initial.Insights))
	}

	err = wt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Fprintln(out, "\nStopped.")
		}
		return nil
	}
	return err
}

// printAlert formats an alert for the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	fmt.Fprintf(w, "[%s] %s %s %s\n", a.Time.Format("15:04:05"), alertBadge(a.Level),
		output.StyleMuted.Render(string(a.Domain)), a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "           %s\n", a.Message)
	}
}

func alertBadge(level string) string {
	switch level {
	case watcher.LevelCritical:
		return output.SeverityBadge(insight.SeverityCritical)
	case watcher.LevelWarning:
		return output.SeverityBadge(insight.SeverityWarning)
	default:
		return output.SeverityBadge(insight.SeverityInfo)
	}
}
