package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rumah-finder/internal/filter"
)

// searchFlags maps each filter flag to its UI filter key.
var searchFlags = []struct {
	name  string
	usage string
}{
	{"keyword", "free-text keyword"},
	{"status", "sale, rent or all"},
	{"type", "property type id"},
	{"price", "price bucket: 0-1m, 1-3m, 3-5m, 5-10m, 10m+ (miliar rupiah)"},
	{"bedrooms", "minimum bedrooms: 1, 2, 3, 4+"},
	{"bathrooms", "minimum bathrooms: 1, 2, 3, 4+"},
	{"land", "land area bucket: 0-100, 100-200, 200-500, 500-1000, 1000+ (m²)"},
	{"location", "regency name"},
	{"sort", "newest, price-low or price-high"},
	{"page", "page number"},
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search listings",
		Long:  "Search listings with the same filters as the listing page. A positional argument is used as the keyword.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := url.Values{}
			for _, f := range searchFlags {
				if cmd.Flags().Changed(f.name) {
					val, _ := cmd.Flags().GetString(f.name)
					v.Set(f.name, val)
				}
			}
			if len(args) == 1 {
				v.Set("keyword", args[0])
			}
			return runSearch(cmd, v)
		},
	}

	for _, f := range searchFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}

	return cmd
}

func runSearch(cmd *cobra.Command, v url.Values) error {
	state, err := filter.FromValues(v)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	ctrl := sess.NewSearch()
	defer ctrl.Close()
	ctrl.SetState(state)
	ctrl.Wait()

	snap := ctrl.Snapshot()
	if snap.Err != nil {
		return fmt.Errorf("fetching listings: %w", snap.Err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), snap)
	}
	return printListings(cmd.OutOrStdout(), snap)
}
