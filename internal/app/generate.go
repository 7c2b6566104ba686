package app

import (
	"fmt"
	"io"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/blackwell-systems/insightwatch/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	generateInput string
	generateLimit int
	generateNow   string
	generateFrom  string
	generateTo    string
	generateAll   bool
	generateSave  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [domain]",
	Short: "Evaluate a domain and print its insights",
	Long: `Evaluate the rules of one business domain and print the resulting insights,
most important first.

With --input the records come from a YAML or JSON dataset file ("-" for stdin)
and the domain argument may be omitted when the file names one. Without it the
records come from the local store and dismissed insights are left out.

Domains: clients, materials, general-costs, finance, real-estate, admin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "Dataset file to evaluate instead of the store")
	generateCmd.Flags().IntVar(&generateLimit, "limit", 0, "Maximum number of insights (0 = configured default, negative = all)")
	generateCmd.Flags().StringVar(&generateNow, "now", "", "Reference date YYYY-MM-DD (default: today)")
	generateCmd.Flags().StringVar(&generateFrom, "from", "", "Start of the analyzed period YYYY-MM-DD")
	generateCmd.Flags().StringVar(&generateTo, "to", "", "Last day of the analyzed period YYYY-MM-DD")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "Evaluate every domain from the store")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Save the run to the store history")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	now, err := parseDate("now", generateNow)
	if err != nil {
		return err
	}
	w, err := parseWindow(generateFrom, generateTo)
	if err != nil {
		return err
	}

	if generateAll {
		if generateInput != "" || len(args) > 0 {
			return fmt.Errorf("--all evaluates every stored domain and takes no domain or --input")
		}
		return runDashboard(cmd, w, now)
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	var insights []insight.Insight
	var domain adapter.Domain
	if generateInput != "" {
		ds, err := readDataset(generateInput)
		if err != nil {
			return err
		}
		if domain, err = resolveDomain(arg, ds.Domain); err != nil {
			return err
		}
		ds.Domain = domain
		if !now.IsZero() {
			ds.Now = now
		}
		if !w.IsZero() {
			ds.Window = w
		}
		if generateLimit != 0 {
			ds.Limit = generateLimit
		}
		insights, err = newRunner(nil, now).Generate(ds)
		if err != nil {
			return err
		}
	} else {
		if domain, err = resolveDomain(arg, ""); err != nil {
			return err
		}
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		insights, err = newRunner(db, now).FromSource(ctx, domain, w, generateLimit)
		if err != nil {
			return err
		}
	}
	logger.Debug("generated insights", zap.String("domain", string(domain)), zap.Int("count", len(insights)))

	if generateSave {
		if err := saveRun(cmd, domain, insights); err != nil {
			return err
		}
	}

	if flagJSON {
		return printJSON(out, insights)
	}
	renderDomain(out, domain, insights)
	return nil
}

func runDashboard(cmd *cobra.Command, w adapter.Window, now time.Time) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	board, err := newRunner(db, now).Dashboard(ctx, w)
	if err != nil {
		return err
	}

	if generateSave {
		for _, d := range adapter.Domains {
			if _, err := db.SaveRun(ctx, string(d), appVersion, board[d]); err != nil {
				return fmt.Errorf("saving %s run: %w", d, err)
			}
		}
	}

	if flagJSON {
		byName := make(map[string][]insight.Insight, len(board))
		for d, insights := range board {
			byName[string(d)] = insights
		}
		return printJSON(out, byName)
	}
	for _, d := range adapter.Domains {
		renderDomain(out, d, board[d])
	}
	return nil
}

func saveRun(cmd *cobra.Command, domain adapter.Domain, insights []insight.Insight) error {
	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	run, err := db.SaveRun(cmd.Context(), string(domain), appVersion, insights)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	logger.Debug("saved run", zap.String("run", run.ID))
	if !flagJSON {
		fmt.Fprintln(cmd.ErrOrStderr(), output.StyleMuted.Render("Saved run "+run.ID))
	}
	return nil
}

func renderDomain(w io.Writer, domain adapter.Domain, insights []insight.Insight) {
	title := domainTitles[domain]
	if title == "" {
		title = string(domain)
	}
	fmt.Fprintln(w, output.Section(title))
	fmt.Fprintln(w)
	fmt.Fprint(w, output.Cards(insights, outputWidth()))
}

func outputWidth() int {
	if cfg == nil || cfg.Output.Width <= 0 {
		return 0
	}
	return cfg.Output.Width
}
