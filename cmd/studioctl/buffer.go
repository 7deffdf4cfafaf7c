package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/studio/internal/bootstrap"
	"github.com/fastygo/studio/internal/infrastructure/buffer"
	"github.com/fastygo/studio/internal/services"
)

func newBufferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buffer",
		Short: "Manage versions and audit events waiting for replay",
		Long:  "Writes that could not reach primary storage wait in the local bolt buffer. Stop the server first: the buffer file is locked while it runs.",
	}
	cmd.AddCommand(newBufferStatsCmd(), newBufferDeadCmd(), newBufferReviveCmd(), newBufferDrainCmd())
	return cmd
}

// withBuffer opens the bolt buffer named by the configuration.
func withBuffer(fn func(env *environment, store *buffer.Store) error) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	store, err := buffer.Open(env.cfg.Buffer.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(env, store)
}

func newBufferStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many items are buffered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuffer(func(env *environment, store *buffer.Store) error {
				counts, err := store.Counts()
				if err != nil {
					return err
				}
				entities := make([]string, 0, len(counts.ByEntity))
				for entity := range counts.ByEntity {
					entities = append(entities, entity)
				}
				sort.Strings(entities)

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "buffer: %s\n", env.cfg.Buffer.Path)
				fmt.Fprintf(out, "pending: %d\n", counts.Pending)
				for _, entity := range entities {
					fmt.Fprintf(out, "  %s: %d\n", entity, counts.ByEntity[entity])
				}
				fmt.Fprintf(out, "dead: %d\n", counts.Dead)
				return nil
			})
		},
	}
}

func newBufferDeadCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dead",
		Short: "List items that exhausted their retries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuffer(func(env *environment, store *buffer.Store) error {
				items, err := store.Dead(limit)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No dead letters.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tENTITY\tSUBJECT\tRETRIES\tBUFFERED\tLAST ERROR")
				for _, item := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", item.ID, item.Entity, item.Subject, item.Retries,
						item.Timestamp.UTC().Format(time.RFC3339), item.LastError)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of items")
	return cmd
}

func newBufferReviveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revive",
		Short: "Move dead letters back into the pending queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuffer(func(env *environment, store *buffer.Store) error {
				revived, err := store.Revive()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revived: %d\n", revived)
				return nil
			})
		},
	}
}

func newBufferDrainCmd() *cobra.Command {
	var batches int

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Replay buffered writes against primary storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(env *environment, storage *bootstrap.Storage) error {
				store, err := buffer.Open(env.cfg.Buffer.Path)
				if err != nil {
					return err
				}
				defer store.Close()

				processor := services.NewBufferProcessor(store, nil, storage.Versions, storage.Audits, env.logger, services.ProcessorConfig{
					BatchSize:  env.cfg.Buffer.BatchSize,
					MaxRetries: env.cfg.Buffer.MaxRetry,
					Retention:  time.Duration(env.cfg.Buffer.RetentionHours) * time.Hour,
				})
				if _, err := processor.Prune(time.Now()); err != nil {
					return fmt.Errorf("pruning buffer: %w", err)
				}
				report, err := processor.DrainAll(cmd.Context(), batches)
				if err != nil {
					return fmt.Errorf("draining buffer: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "replayed: %d, requeued: %d, dead-lettered: %d, remaining: %d\n",
					report.Replayed, report.Requeued, report.DeadLettered, processor.Size())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batches, "batches", 10, "Maximum number of batches to replay")
	return cmd
}
