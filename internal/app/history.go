package app

import (
	"fmt"
	"strconv"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/output"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history [domain]",
	Short: "List saved insight runs",
	Long: `List the runs saved with 'generate --save', newest first. Pass --run to
print the insights of one run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the insights of a run ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var domain string
	if len(args) > 0 {
		d, err := adapter.ParseDomain(args[0])
		if err != nil {
			return err
		}
		domain = string(d)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if historyRun != "" {
		insights, err := db.RunInsights(ctx, historyRun)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", historyRun, err)
		}
		if flagJSON {
			return printJSON(out, insights)
		}
		fmt.Fprintln(out, output.Section("Run "+historyRun))
		fmt.Fprintln(out)
		fmt.Fprint(out, output.Cards(insights, outputWidth()))
		return nil
	}

	runs, err := db.ListRuns(ctx, domain, historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if flagJSON {
		return printJSON(out, runs)
	}

	fmt.Fprintln(out, output.Section("Historial"))
	fmt.Fprintln(out)
	if len(runs) == 0 {
		fmt.Fprintln(out, " No saved runs. Use 'insightwatch generate --save'.")
		return nil
	}

	tbl := output.NewTable("Run", "Domain", "Generated", "Insights", "Version").AlignRight(3)
	for _, r := range runs {
		tbl.AddRow(r.ID, r.Domain, humanize.Time(r.GeneratedAt), strconv.Itoa(r.InsightCount), r.Version)
	}
	_, err = tbl.WriteTo(out)
	return err
}
