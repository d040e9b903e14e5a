package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rumah-finder/internal/geocode"
)

func newGeocodeCmd() *cobra.Command {
	var (
		addr     geocode.Address
		lat, lon float64
	)

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Resolve a listing address to coordinates",
		Long: `Resolve an address to coordinates within Indonesia.

With --regency and/or --province, the geocoder is tried from the most to the
least specific address level. With --lat and --lon, the coordinate is checked
against Indonesia's bounding box instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return errors.New("--lat and --lon must be given together")
			}
			if latSet {
				return runGeocodeManual(cmd, lat, lon)
			}
			return runGeocodeDetect(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr.Address, "address", "", "street address")
	cmd.Flags().StringVar(&addr.District, "district", "", "district (kecamatan)")
	cmd.Flags().StringVar(&addr.Regency, "regency", "", "regency or city (kabupaten/kota)")
	cmd.Flags().StringVar(&addr.Province, "province", "", "province")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")

	return cmd
}

func runGeocodeDetect(cmd *cobra.Command, addr geocode.Address) error {
	if !addr.HasRegion() {
		return geocode.ErrMissingRegion
	}

	sess, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	res := sess.NewResolver()
	if _, err := res.Detect(cmd.Context(), addr); err != nil {
		return err
	}
	return printResolved(cmd.OutOrStdout(), res.Snapshot())
}

func runGeocodeManual(cmd *cobra.Command, lat, lon float64) error {
	res := geocode.NewResolver(nil, nil)
	if _, err := res.SetManual(lat, lon); err != nil {
		return err
	}
	return printResolved(cmd.OutOrStdout(), res.Snapshot())
}

// resolved is the geocode command's output.
type resolved struct {
	geocode.Snapshot
	Geohash string `json:"geohash"`
}

func printResolved(w io.Writer, snap geocode.Snapshot) error {
	out := resolved{Snapshot: snap, Geohash: snap.Coordinate.Geohash()}
	if isJSON() {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Coordinate:  %s\n", snap.Coordinate)
	fmt.Fprintf(w, "Geohash:     %s\n", out.Geohash)
	fmt.Fprintf(w, "Source:      %s\n", snap.Source)
	if snap.Query != "" {
		fmt.Fprintf(w, "Query:       %s\n", snap.Query)
	}
	if snap.DisplayName != "" {
		fmt.Fprintf(w, "Match:       %s\n", snap.DisplayName)
	}
	return nil
}
