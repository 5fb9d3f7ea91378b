package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/session"
	"github.com/pbaille/superlinks/internal/store"
)

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

// idCmd builds the single-id overlay commands (pin, fav, delete and their inverses).
func idCmd(name, short string, action func(*session.Session, context.Context, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [id...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				for _, id := range ids {
					if err := action(sess, cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", name, id)
				}
				return nil
			})
		},
	}
}

func addCmd() *cobra.Command {
	var name, note, source string

	cmd := &cobra.Command{
		Use:   "add [location] [url]",
		Short: "Add a link under a location; without --name the page title is used",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := domain.ParseLocation(args[0])
			if err != nil {
				return err
			}
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				item, err := sess.Add(cmd.Context(), loc, domain.Item{Name: name, URL: args[1], Note: note}, source)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d: %s\n", item.ID, truncate(item.Name, 80))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().StringVar(&source, "source", "", "source label shown in cross-tree lenses")
	return cmd
}

func editCmd() *cobra.Command {
	var name, url, note, source string

	cmd := &cobra.Command{
		Use:   "edit [location] [id]",
		Short: "Edit an item as it appears at a location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := domain.ParseLocation(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				item, ok := currentItem(sess, loc, id)
				if !ok {
					return fmt.Errorf("%w: %d at %s", session.ErrUnknownItem, id, loc)
				}
				if cmd.Flags().Changed("name") {
					item.Name = name
				}
				if cmd.Flags().Changed("url") {
					item.URL = url
				}
				if cmd.Flags().Changed("note") {
					item.Note = note
				}
				if err := sess.Edit(cmd.Context(), loc, item, source); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited %d at %s\n", id, loc)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&url, "url", "", "new URL")
	cmd.Flags().StringVar(&note, "note", "", "new note")
	cmd.Flags().StringVar(&source, "source", "", "source label")
	return cmd
}

// currentItem returns the item as it currently resolves at loc, so that an
// edit only changes the fields given on the command line.
func currentItem(sess *session.Session, loc domain.Location, id int) (domain.Item, bool) {
	if c, ok := sess.Overlay().Index().Lookup(id); ok {
		return c.Item, true
	}
	node, ok := sess.Tree().Node(loc)
	if !ok {
		return domain.Item{}, false
	}
	for _, it := range node.Items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Item{}, false
}

func reorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [location] [id...]",
		Short: "Reorder the links added at a location",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := domain.ParseLocation(args[0])
			if err != nil {
				return err
			}
			ids := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				return sess.Reorder(cmd.Context(), loc, ids)
			})
		},
	}
}

func filterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show or change the filter used by the random and favorites lenses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				f := sess.Overlay().Filter()
				if f == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "{} (everything included)")
					return nil
				}
				out, err := json.MarshalIndent(f, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	})

	var categories, subcategories, subclasses, exSubcategories, exSubclasses []string
	var raw string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the filter; a flag given with no values selects nothing for that level",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f domain.Filter
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &f); err != nil {
					return fmt.Errorf("parse filter: %w", err)
				}
			} else {
				flags := cmd.Flags()
				pick := func(name string, values []string) []string {
					if !flags.Changed(name) {
						return nil
					}
					return append([]string{}, values...)
				}
				f = domain.Filter{
					Categories:            pick("categories", categories),
					Subcategories:         pick("subcategories", subcategories),
					Subclasses:            pick("subclasses", subclasses),
					ExcludedSubcategories: pick("exclude-subcategories", exSubcategories),
					ExcludedSubclasses:    pick("exclude-subclasses", exSubclasses),
				}
			}
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				return sess.SetFilter(cmd.Context(), &f)
			})
		},
	}
	set.Flags().StringSliceVar(&categories, "categories", nil, "included category ids")
	set.Flags().StringSliceVar(&subcategories, "subcategories", nil, "included category:subcategory keys")
	set.Flags().StringSliceVar(&subclasses, "subclasses", nil, "included category:subcategory:subclass keys")
	set.Flags().StringSliceVar(&exSubcategories, "exclude-subcategories", nil, "excluded subcategory keys")
	set.Flags().StringSliceVar(&exSubclasses, "exclude-subclasses", nil, "excluded subclass keys")
	set.Flags().StringVar(&raw, "json", "", "filter as a JSON object")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the filter so everything is included",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd.Context(), func(_ *app, sess *session.Session, _ *store.Store) error {
				return sess.SetFilter(cmd.Context(), nil)
			})
		},
	})
	return cmd
}
