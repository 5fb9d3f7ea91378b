package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbaille/superlinks/internal/catalog"
	"github.com/pbaille/superlinks/internal/session"
	"github.com/pbaille/superlinks/internal/store"
)

func exportCmd() *cobra.Command {
	var out, revision string
	var yamlOut bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fold local edits into a new catalog document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				tree, report := sess.Export(revision)

				if out != "" {
					if err := catalog.WriteFile(out, tree); err != nil {
						return err
					}
				} else {
					format := catalog.FormatJSON
					if yamlOut {
						format = catalog.FormatYAML
					}
					if err := catalog.Write(cmd.OutOrStdout(), tree, format); err != nil {
						return err
					}
				}

				w := cmd.ErrOrStderr()
				fmt.Fprintf(w, "revision %s: %d edited, %d deleted, %d added\n",
					report.Revision, report.Edited, report.Deleted, len(report.Added))
				for _, o := range report.Orphans {
					fmt.Fprintf(w, "  dropped %d (%s): location %s no longer exists\n", o.ID, truncate(o.Name, 40), o.Location)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document to a file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&revision, "revision", "", "revision label (default: a new UUID)")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "write YAML to stdout")
	return cmd
}

func importCSVCmd() *cobra.Command {
	var out, icons string

	cmd := &cobra.Command{
		Use:   "import-csv [file]",
		Short: "Convert a spreadsheet export (link, category, class, subclass, text) into a catalog document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			var opts catalog.ImportOptions
			if icons != "" {
				raw, err := os.ReadFile(icons)
				if err != nil {
					return fmt.Errorf("read icons: %w", err)
				}
				if err := json.Unmarshal(raw, &opts.Icons); err != nil {
					return fmt.Errorf("parse icons: %w", err)
				}
			}

			tree, err := catalog.ImportCSV(f, opts)
			if err != nil {
				return err
			}
			if out == "" {
				return catalog.Write(cmd.OutOrStdout(), tree, catalog.FormatJSON)
			}
			if err := catalog.WriteFile(out, tree); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d items in %d categories\n", out, tree.CountItems(), len(tree.Categories))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output document (default stdout)")
	cmd.Flags().StringVar(&icons, "icons", "", "JSON file mapping node names to icons")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent overlay writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.Journal(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes recorded.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(e.Slot),
					e.Action,
					e.ID[:8],
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"WHEN", "SLOT", "ACTION", "ID"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.cfg.Sample()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
