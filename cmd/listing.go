package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sfproperty/internal/listing"
)

func newListingCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "listing <url>",
		Short: "Show the amenities of a Craigslist listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !listing.IsSupported(args[0]) {
				return errors.New("currently only Craigslist URLs are supported")
			}
			am := a.listings().Fetch(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, am)
			}
			if am.IsEmpty() {
				fmt.Fprintln(out, "Nothing could be read from the listing.")
				return nil
			}
			renderAmenities(out, am)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
