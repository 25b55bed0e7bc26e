package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sfproperty/internal/aggregate"
	"sfproperty/internal/store"
	"sfproperty/internal/types"
)

func newSavedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Browse and manage saved properties",
	}
	cmd.AddCommand(newSavedListCmd(a), newSavedDeleteCmd(a))
	return cmd
}

// newSavedListCmd prints the saved properties. On a terminal the list is a
// picker: Enter refreshes the selected property and shows what changed since
// it was saved.
func newSavedListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			props, err := st.List(ctx)
			st.Close()
			if err != nil {
				return fmt.Errorf("failed to load saved properties: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, props)
			}
			if len(props) == 0 {
				fmt.Fprintln(out, "No properties saved yet. Use lookup --save to add one.")
				return nil
			}
			lines := savedLines(props)
			if !interactive(out) {
				for _, l := range lines {
					fmt.Fprintln(out, l)
				}
				return nil
			}

			agg := a.aggregator(ctx)
			interactiveSelect(lines, func(i int) {
				refreshSaved(cmd, agg, props[i])
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// refreshSaved looks the saved property up again and renders it against the
// saved copy.
func refreshSaved(cmd *cobra.Command, agg *aggregate.Aggregator, p types.SavedProperty) {
	out := cmd.OutOrStdout()
	req := aggregate.Request{Address: p.Address(), Parcel: p.Field("parcel")}
	prof, err := agg.Lookup(cmd.Context(), req)
	if err != nil {
		fmt.Fprintf(out, "Could not refresh %s: %v\n", p.Address(), err)
		return
	}
	renderProfile(out, prof, p.Data)
	fmt.Fprintf(out, "Saved %s as #%d\n", p.SavedDate.Local().Format("2006-01-02 15:04"), p.ID)
}

func savedLines(props []types.SavedProperty) []string {
	lines := make([]string, 0, len(props))
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("#%-4d %-40s | %-30s | %s",
			p.ID, truncate(p.Address(), 40), truncate(p.Field("owner"), 30), p.SavedDate.Local().Format("2006-01-02")))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newSavedDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return deleteSaved(cmd, st, id)
		},
	}
}

func deleteSaved(cmd *cobra.Command, st store.Store, id int64) error {
	err := st.Delete(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no saved property #%d", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d.\n", id)
	return nil
}
