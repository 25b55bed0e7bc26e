package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial address>",
		Short: "Complete a partial San Francisco address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.client().Suggest(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(out) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching addresses.")
				return nil
			}
			for _, s := range out {
				fmt.Fprintln(cmd.OutOrStdout(), s.Address)
			}
			return nil
		},
	}
}
