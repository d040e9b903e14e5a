package suggest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/listing"
	"github.com/evcraddock/rumah-finder/internal/recent"
)

// Group sizes.
const (
	browseRegencies = 5
	browseListings  = 4
	matchRegencies  = 4
	matchProvinces  = 2
	matchProperties = 4
)

// Kind tags a suggestion.
type Kind string

const (
	KindKeyword  Kind = "keyword"
	KindProperty Kind = "property"
	KindRegency  Kind = "regency"
	KindProvince Kind = "province"
	KindRecent   Kind = "recent"
)

// Categories, in display order.
const (
	CategoryRecent   = "recent"
	CategoryKeyword  = "keyword"
	CategoryLocation = "location"
	CategoryProperty = "property"
)

// Item is one selectable suggestion. Fragment is applied to the filter
// state when the item is committed.
type Item struct {
	Kind       Kind            `json:"kind"`
	Label      string          `json:"label"`
	Sublabel   string          `json:"sublabel,omitempty"`
	Category   string          `json:"category"`
	Fragment   filter.Fragment `json:"filter_params"`
	PropertyID int64           `json:"property_id,omitempty"`

	// origin is the kind a recent entry was first committed as.
	origin Kind
}

// RecentEntry returns the recent search recorded when item is committed.
// Re-committing a recent item keeps the kind it was first saved with.
func (it Item) RecentEntry() recent.Entry {
	kind := it.Kind
	if kind == KindRecent && it.origin != "" {
		kind = it.origin
	}
	return recent.Entry{Label: it.Label, Kind: string(kind), Fragment: it.Fragment}
}

// Group is a run of items sharing a category.
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Suggestions is the grouped output of one build.
type Suggestions struct {
	Query  string  `json:"query"`
	Groups []Group `json:"groups"`
}

// Flat returns every item in display order.
func (s Suggestions) Flat() []Item {
	var out []Item
	for _, g := range s.Groups {
		out = append(out, g.Items...)
	}
	return out
}

func (s *Suggestions) add(category string, items []Item) {
	if len(items) == 0 {
		return
	}
	s.Groups = append(s.Groups, Group{Category: category, Items: items})
}

// Source is the live listing lookup behind property suggestions.
type Source interface {
	Search(ctx context.Context, keyword string, limit int) ([]listing.Property, error)
	Newest(ctx context.Context, limit int) ([]listing.Property, error)
}

// Engine builds suggestions for a query.
type Engine struct {
	directory func() *Directory
	src       Source
	logger    *slog.Logger
}

// NewEngine creates an engine. directory is called on every build so a
// directory published after bootstrap is picked up.
func NewEngine(directory func() *Directory, src Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{directory: directory, src: src, logger: logger}
}

// Build returns suggestions for query. An empty query yields the top
// regencies and the newest listings. Otherwise the groups are, in order:
// the query as a keyword, matching regencies and provinces, and live title
// matches. Fetch failures drop the property group.
func (e *Engine) Build(ctx context.Context, query string) Suggestions {
	q := strings.TrimSpace(query)
	dir := e.directory()
	out := Suggestions{Query: q}

	if q == "" {
		out.add(CategoryLocation, regencyItems(dir.TopRegencies(browseRegencies)))
		props, err := e.src.Newest(ctx, browseListings)
		if err != nil {
			e.logger.Warn("fetching newest listings for suggestions", "error", err)
		}
		out.add(CategoryProperty, propertyItems(props))
		return out
	}

	out.add(CategoryKeyword, []Item{{
		Kind:     KindKeyword,
		Label:    q,
		Category: CategoryKeyword,
		Fragment: filter.Fragment{Keyword: q},
	}})

	locations := regencyItems(dir.MatchRegencies(q, matchRegencies))
	for _, p := range dir.MatchProvinces(q, matchProvinces) {
		locations = append(locations, Item{
			Kind:     KindProvince,
			Label:    p,
			Category: CategoryLocation,
			Fragment: filter.Fragment{Keyword: p},
		})
	}
	out.add(CategoryLocation, locations)

	props, err := e.src.Search(ctx, q, matchProperties)
	if err != nil {
		e.logger.Warn("fetching property suggestions", "query", q, "error", err)
	}
	out.add(CategoryProperty, propertyItems(props))

	return out
}

func regencyItems(regs []Regency) []Item {
	items := make([]Item, 0, len(regs))
	for _, r := range regs {
		items = append(items, Item{
			Kind:     KindRegency,
			Label:    r.Name,
			Sublabel: r.Province,
			Category: CategoryLocation,
			Fragment: filter.Fragment{Location: r.Name},
		})
	}
	return items
}

func propertyItems(props []listing.Property) []Item {
	if len(props) > matchProperties {
		props = props[:matchProperties]
	}
	items := make([]Item, 0, len(props))
	for _, p := range props {
		items = append(items, Item{
			Kind:       KindProperty,
			Label:      p.Title,
			Sublabel:   p.Location(),
			Category:   CategoryProperty,
			Fragment:   filter.Fragment{Keyword: p.Title},
			PropertyID: p.ID,
		})
	}
	return items
}
