package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sfproperty/internal/aggregate"
	"sfproperty/internal/types"
)

func newLookupCmd(a *app) *cobra.Command {
	var (
		req    aggregate.SearchRequest
		asJSON bool
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "lookup [address]",
		Short: "Build the profile of an address, parcel or listing",
		Example: `  sfproperty lookup 2989 Jackson St
  sfproperty lookup --parcel 0563/029 --debug --json
  sfproperty lookup --url https://sfbay.craigslist.org/sfc/apa/d/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Address = strings.Join(args, " ")
			ctx := cmd.Context()
			res, err := a.aggregator(ctx).Search(ctx, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if res.Warning != "" {
				if asJSON {
					return writeJSON(out, map[string]any{"warning": res.Warning, "data": res.Data})
				}
				fmt.Fprintln(out, res.Warning)
				if la, ok := res.Data["listing_amenities"].(*types.ListingAmenities); ok {
					renderAmenities(out, la)
				}
				return nil
			}

			if asJSON {
				if err := writeJSON(out, res.Profile); err != nil {
					return err
				}
			} else {
				renderProfile(out, res.Profile, nil)
			}

			if !save && !asJSON && interactive(out) {
				save = confirm(os.Stdin, out, "Save to saved properties? (y/N): ")
			}
			if save {
				return a.saveProfile(ctx, out, res.Profile)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Parcel, "parcel", "", "parcel as BLOCK/LOT, BLOCK or BBBBLLL")
	cmd.Flags().StringVar(&req.URL, "url", "", "listing URL (Craigslist)")
	cmd.Flags().BoolVar(&req.Debug, "debug", false, "include raw dataset payloads")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "save the profile without asking")
	return cmd
}

// saveProfile stores the profile document the way the web client posts it.
func (a *app) saveProfile(ctx context.Context, out io.Writer, p *types.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Append(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	fmt.Fprintf(out, "Saved as #%d.\n", rec.ID)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	resp, _ := bufio.NewReader(in).ReadString('\n')
	resp = strings.ToLower(strings.TrimSpace(resp))
	return resp == "y" || resp == "yes"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
