package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/evcraddock/rumah-finder/internal/listing"
	"github.com/evcraddock/rumah-finder/internal/pagination"
	"github.com/evcraddock/rumah-finder/internal/recent"
	"github.com/evcraddock/rumah-finder/internal/search"
	"github.com/evcraddock/rumah-finder/internal/suggest"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printKeyValues prints a map as aligned key/value lines, sorted by key.
func printKeyValues(w io.Writer, kv map[string]interface{}) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		v := fmt.Sprint(kv[k])
		if v == "" {
			v = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", k, v); err != nil {
			return fmt.Errorf("writing settings: %w", err)
		}
	}
	return tw.Flush()
}

// printListings prints one result page as a table followed by the page
// controls.
func printListings(w io.Writer, snap search.Snapshot) error {
	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tBED\tBATH\tLAND\tLOCATION\tFAV"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t-----\t---\t----\t----\t--------\t---"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range snap.Items {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 36), priceCell(p), intCell(p.Bedrooms), intCell(p.Bathrooms),
			areaCell(p.LandArea), truncate(p.Location(), 32), favCell(p.Favorited)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	win := snap.Window
	fmt.Fprintf(w, "\nPage %d of %d (%s listings)  %s\n",
		win.Page, win.TotalPages, idPrinter.Sprintf("%d", win.TotalCount), formatPages(win))
	return nil
}

func priceCell(p listing.Property) string {
	if p.Price == nil {
		return "-"
	}
	return formatRupiahShort(*p.Price)
}

func intCell(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func areaCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return idPrinter.Sprintf("%d m²", int64(*v))
}

func favCell(fav bool) string {
	if fav {
		return "★"
	}
	return ""
}

// formatPages renders the page number sequence with the current page in
// brackets, e.g. "1 ... 4 [5] 6 ... 10".
func formatPages(win pagination.Window) string {
	parts := make([]string, 0, len(win.Numbers))
	for _, it := range win.Numbers {
		if !it.Ellipsis && it.Page == win.Page {
			parts = append(parts, "["+it.String()+"]")
			continue
		}
		parts = append(parts, it.String())
	}
	return strings.Join(parts, " ")
}

// formatRupiah formats an amount with Indonesian digit grouping.
func formatRupiah(v int64) string {
	return "Rp " + idPrinter.Sprintf("%d", v)
}

// formatRupiahShort abbreviates billions (M, miliar) and millions (jt, juta)
// to one decimal place.
func formatRupiahShort(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return "Rp " + tenths(v/100_000_000) + " M"
	case v >= 1_000_000:
		return "Rp " + tenths(v/100_000) + " jt"
	}
	return formatRupiah(v)
}

// tenths renders n/10 with a decimal comma, dropping a zero fraction.
func tenths(n int64) string {
	whole, frac := n/10, n%10
	if frac == 0 {
		return idPrinter.Sprintf("%d", whole)
	}
	return idPrinter.Sprintf("%d", whole) + fmt.Sprintf(",%d", frac)
}

// printSuggestions prints suggestion groups with a running item number that
// --pick refers to.
func printSuggestions(w io.Writer, s suggest.Suggestions) {
	if len(s.Groups) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}

	n := 1
	for i, g := range s.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", strings.ToUpper(g.Category))
		for _, it := range g.Items {
			line := fmt.Sprintf("  %2d. %s", n, it.Label)
			if it.Sublabel != "" {
				line += "  (" + it.Sublabel + ")"
			}
			fmt.Fprintln(w, line)
			n++
		}
	}
}

// printRecent prints recent searches, newest first.
func printRecent(w io.Writer, entries []recent.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recent searches.")
		return
	}

	for i, e := range entries {
		fmt.Fprintf(w, "%d. %s [%s] %s\n", i+1, e.Label, e.Kind, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
