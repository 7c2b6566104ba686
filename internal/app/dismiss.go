package app

import (
	"fmt"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dismissUndo bool

var dismissCmd = &cobra.Command{
	Use:   "dismiss <domain> <insight-id>",
	Short: "Hide an insight from stored results",
	Long: `Mark an insight ID as dismissed for a domain. Dismissed insights are left
out of 'generate' and the HTTP API until restored with --undo.`,
	Args: cobra.ExactArgs(2),
	RunE: runDismiss,
}

func init() {
	dismissCmd.Flags().BoolVar(&dismissUndo, "undo", false, "Restore a dismissed insight")
	rootCmd.AddCommand(dismissCmd)
}

func runDismiss(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	domain, err := adapter.ParseDomain(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	verb, status := "Dismissed", "dismissed"
	if dismissUndo {
		verb, status = "Restored", "restored"
		err = db.Undismiss(ctx, string(domain), id)
	} else {
		err = db.Dismiss(ctx, string(domain), id)
	}
	if err != nil {
		return fmt.Errorf("updating dismissal: %w", err)
	}

	c := openCache(ctx)
	if err := c.Invalidate(ctx, string(domain)); err != nil {
		logger.Warn("cache invalidation failed", zap.String("domain", string(domain)), zap.Error(err))
	}
	_ = c.Close()

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"domain": string(domain),
			"id":     id,
			"status": status,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), " %s %s in %s\n", verb, id, domain)
	return nil
}
