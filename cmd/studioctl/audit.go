package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/studio/internal/bootstrap"
	"github.com/fastygo/studio/internal/export"
	"github.com/fastygo/studio/repository"
	auditUC "github.com/fastygo/studio/usecase/audit"
)

func newAuditCmd() *cobra.Command {
	var filter repository.AuditFilter

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&filter.Domain, "domain", "", "Filter by domain (substring)")
	flags.StringVar(&filter.Action, "action", "", "Filter by action (substring)")
	flags.StringVar(&filter.Environment, "environment", "", "Filter by environment (substring)")
	flags.StringVar(&filter.EntityType, "entity-type", "", "Filter by entity type")
	flags.StringVar(&filter.EntityID, "entity-id", "", "Filter by entity id")
	flags.IntVarP(&filter.Limit, "limit", "l", 50, "Maximum number of events")

	cmd.AddCommand(newAuditListCmd(&filter), newAuditExportCmd(&filter))
	return cmd
}

func newAuditListCmd(filter *repository.AuditFilter) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List audit events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(env *environment, storage *bootstrap.Storage) error {
				events, err := auditUC.NewRecorder(storage.Audits, auditUC.Options{}, env.logger).List(cmd.Context(), *filter)
				if err != nil {
					return fmt.Errorf("listing audit events: %w", err)
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit events found.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tWHEN\tENV\tDOMAIN\tACTION\tENTITY\tACTOR")
				for _, e := range events {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s/%s\t%s\n",
						e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Environment, e.Domain, e.Action,
						e.EntityType, e.EntityID, e.ActorName)
				}
				return w.Flush()
			})
		},
	}
}

func newAuditExportCmd(filter *repository.AuditFilter) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching audit events to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(env *environment, storage *bootstrap.Storage) error {
				events, err := auditUC.NewRecorder(storage.Audits, auditUC.Options{}, env.logger).List(cmd.Context(), *filter)
				if err != nil {
					return fmt.Errorf("listing audit events: %w", err)
				}
				data, err := export.AuditWorkbook(events)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(events), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "audit.xlsx", "Output file")
	return cmd
}
