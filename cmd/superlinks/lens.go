package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/lens"
	"github.com/pbaille/superlinks/internal/merge"
	"github.com/pbaille/superlinks/internal/overlay"
	"github.com/pbaille/superlinks/internal/session"
	"github.com/pbaille/superlinks/internal/store"
)

func showCmd() *cobra.Command {
	var showAll, asJSON bool

	cmd := &cobra.Command{
		Use:   "show [lens]",
		Short: "Show a lens: random (default), favorites, notes, or a location like tech:reviews",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := lens.RandomName
			if len(args) == 1 {
				target = args[0]
			}
			l, err := lens.Parse(target)
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				v := sess.Select(l)
				if showAll {
					v, _ = sess.ToggleShowAll()
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				}
				printView(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "show every item instead of the quota")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}

func printView(w io.Writer, v lens.View) {
	fmt.Fprintf(w, "%s %s\n", v.Icon, v.Title)
	switch {
	case v.TextOnly:
		fmt.Fprintln(w, "(text-only lens: nothing to list)")
		return
	case v.Empty():
		fmt.Fprintln(w, "(no items)")
		return
	}

	rows := make([][]string, 0, len(v.Items))
	for _, it := range v.Items {
		var flags []string
		if it.Pinned {
			flags = append(flags, "📌")
		}
		if it.Favorite {
			flags = append(flags, "⭐")
		}
		rows = append(rows, []string{
			strconv.Itoa(it.ID),
			strings.Join(flags, ""),
			truncate(it.Name, 50),
			truncate(it.URL, 60),
			truncate(it.Source, 40),
		})
	}
	writeTable(w, []string{"ID", "", "NAME", "URL", "SOURCE"}, rows, []columnAlignment{alignRight})

	if !v.ShowAll && v.Available > v.Quota {
		fmt.Fprintf(w, "showing %d of %d unpinned items (use --all for everything)\n", v.Quota, v.Available)
	}
}

func lensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lenses",
		Short: "List every lens of the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				rows := lensRows(sess.Tree(), sess.Overlay())
				writeTable(cmd.OutOrStdout(), []string{"LENS", "TITLE", "ITEMS"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}
}

// lensRows lists every lens with the number of items it resolves to, so the
// counts match what show displays before sampling.
func lensRows(tree domain.Tree, ov overlay.Overlay) [][]string {
	rows := [][]string{}
	for _, e := range lens.Entries(tree) {
		indent := ""
		if e.Depth > 1 {
			indent = strings.Repeat("  ", e.Depth-1)
		}
		count := ""
		if l, err := lens.Parse(e.Lens); err == nil {
			if scope, ok := lens.Normalize(tree, l).Scope(); ok {
				count = strconv.Itoa(len(merge.Resolve(tree, ov, scope)))
			}
		}
		rows = append(rows, []string{e.Lens, indent + e.Icon + " " + e.Title, count})
	}
	return rows
}
