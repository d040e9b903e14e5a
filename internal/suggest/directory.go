// Package suggest builds autocomplete suggestions for the listing search
// box from a location directory, recent searches and live title matches.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/evcraddock/rumah-finder/internal/listing"
)

// DefaultSampleSize is the number of listings sampled to build a Directory.
const DefaultSampleSize = 200

// Regency is a known regency and the province it belongs to.
type Regency struct {
	Name     string `json:"name"`
	Province string `json:"province"`
	Listings int    `json:"listings"`
}

// Directory is the set of regencies and provinces seen in a listing sample.
// Names are deduplicated case-insensitively; the first spelling seen wins.
// A Directory is never modified after construction.
type Directory struct {
	regencies []Regency
	provinces []string
	ranked    []Regency
}

// NewDirectory builds a directory from listings.
func NewDirectory(props []listing.Property) *Directory {
	fold := cases.Fold()
	d := &Directory{}
	regencyIdx := map[string]int{}
	seenProvince := map[string]bool{}

	for _, p := range props {
		province := displayName(p.Province)
		if province != "" {
			key := fold.String(province)
			if !seenProvince[key] {
				seenProvince[key] = true
				d.provinces = append(d.provinces, province)
			}
		}

		name := displayName(p.Regency)
		if name == "" {
			continue
		}
		key := fold.String(name)
		if i, ok := regencyIdx[key]; ok {
			d.regencies[i].Listings++
			if d.regencies[i].Province == "" {
				d.regencies[i].Province = province
			}
			continue
		}
		regencyIdx[key] = len(d.regencies)
		d.regencies = append(d.regencies, Regency{Name: name, Province: province, Listings: 1})
	}

	d.ranked = append([]Regency(nil), d.regencies...)
	sort.SliceStable(d.ranked, func(i, j int) bool {
		return d.ranked[i].Listings > d.ranked[j].Listings
	})
	return d
}

// displayName trims s and title-cases it when it arrives in all caps.
func displayName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s != "" && s == strings.ToUpper(s) && s != strings.ToLower(s) {
		return cases.Title(language.Indonesian).String(strings.ToLower(s))
	}
	return s
}

// Regencies returns the regencies in first-seen order.
func (d *Directory) Regencies() []Regency {
	return append([]Regency(nil), d.regencies...)
}

// Provinces returns the provinces in first-seen order.
func (d *Directory) Provinces() []string {
	return append([]string(nil), d.provinces...)
}

// Empty reports whether the directory holds no locations.
func (d *Directory) Empty() bool {
	return d == nil || (len(d.regencies) == 0 && len(d.provinces) == 0)
}

// TopRegencies returns up to n regencies with the most listings. Ties keep
// first-seen order.
func (d *Directory) TopRegencies(n int) []Regency {
	if d == nil {
		return nil
	}
	return head(d.ranked, n)
}

// MatchRegencies returns up to n regencies whose name contains q,
// ignoring case, in directory order.
func (d *Directory) MatchRegencies(q string, n int) []Regency {
	if d == nil {
		return nil
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q))
	var out []Regency
	for _, r := range d.regencies {
		if len(out) == n {
			break
		}
		if strings.Contains(fold.String(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// MatchProvinces returns up to n provinces containing q, ignoring case.
func (d *Directory) MatchProvinces(q string, n int) []string {
	if d == nil {
		return nil
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q))
	var out []string
	for _, p := range d.provinces {
		if len(out) == n {
			break
		}
		if strings.Contains(fold.String(p), needle) {
			out = append(out, p)
		}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if n > len(s) {
		n = len(s)
	}
	return append([]T(nil), s[:n]...)
}

// Sampler fetches the listings a Directory is built from.
type Sampler interface {
	Newest(ctx context.Context, limit int) ([]listing.Property, error)
}

// Bootstrap samples up to size listings and builds a Directory. A failed
// fetch is logged and yields an empty directory.
func Bootstrap(ctx context.Context, src Sampler, size int, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = DefaultSampleSize
	}

	props, err := src.Newest(ctx, size)
	if err != nil {
		logger.Warn("location directory bootstrap failed", "error", err)
		return NewDirectory(nil)
	}

	d := NewDirectory(props)
	logger.Debug("location directory built",
		"sampled", len(props),
		"regencies", len(d.regencies),
		"provinces", len(d.provinces),
	)
	return d
}
