package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/studio/internal/bootstrap"
)

func newVersionsCmd() *cobra.Command {
	var (
		limit int
		show  int
	)

	cmd := &cobra.Command{
		Use:   "versions <document-id>",
		Short: "Show the version history of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID := args[0]
			return withStorage(cmd.Context(), func(env *environment, storage *bootstrap.Storage) error {
				out := cmd.OutOrStdout()
				if show > 0 {
					version, err := storage.Versions.Get(cmd.Context(), documentID, show)
					if err != nil {
						return fmt.Errorf("loading version %d: %w", show, err)
					}
					fmt.Fprintln(out, string(version.Snapshot))
					return nil
				}

				versions, err := storage.Versions.List(cmd.Context(), documentID, limit)
				if err != nil {
					return fmt.Errorf("listing versions: %w", err)
				}
				if len(versions) == 0 {
					fmt.Fprintln(out, "No versions found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tWHEN\tBY\tNOTE")
				for _, v := range versions {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.Number, v.CreatedAt.UTC().Format(time.RFC3339), v.CreatedBy, v.ChangeNote)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 40, "Maximum number of versions")
	cmd.Flags().IntVar(&show, "show", 0, "Print the snapshot of this version number instead of the list")
	return cmd
}
