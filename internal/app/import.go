package app

import (
	"fmt"

	"github.com/blackwell-systems/insightwatch/internal/output"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importDomain string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load records into the local store",
	Long: `Read a YAML or JSON dataset file ("-" for stdin) and store its entries,
clients and KPIs under the dataset's domain. Records with an existing ID are
replaced, so the same export can be imported repeatedly.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importDomain, "domain", "", "Domain to store the records under (default: the file's domain)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ds, err := readDataset(args[0])
	if err != nil {
		return err
	}
	if ds.Domain, err = resolveDomain(importDomain, ds.Domain); err != nil {
		return err
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	res, err := db.ImportDataset(ctx, ds)
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}

	// Stored results of this domain are stale now.
	c := openCache(ctx)
	if err := c.Invalidate(ctx, string(ds.Domain)); err != nil {
		logger.Warn("cache invalidation failed", zap.String("domain", string(ds.Domain)), zap.Error(err))
	}
	_ = c.Close()

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.Section("Importación: "+domainTitles[ds.Domain]))
	fmt.Fprintln(out)
	fmt.Fprintf(out, " %s %s\n", output.StyleLabel.Render("Movimientos"), humanize.Comma(int64(res.Entries)))
	fmt.Fprintf(out, " %s %s\n", output.StyleLabel.Render("Clientes"), humanize.Comma(int64(res.Clients)))
	if res.KPIs {
		fmt.Fprintf(out, " %s %s\n", output.StyleLabel.Render("KPIs"), "1 snapshot")
	}
	if res.Skipped > 0 {
		fmt.Fprintf(out, " %s %s\n", output.StyleLabel.Render("Omitidos"),
			output.StyleWarning.Render(fmt.Sprintf("%d sin fecha", res.Skipped)))
	}
	return nil
}
