package solr

import (
	"fmt"
	"strings"
)

// Options configures a search beyond the query string. The zero value asks
// for the first page with the configured default row count and no filters,
// facets or explicit highlight fields.
type Options struct {
	// DefaultField overrides the field searched when the query names none.
	DefaultField string

	// Fields restricts the returned fields. Empty means all fields.
	Fields []string

	// Filters are filter queries, each ANDed independently by the engine.
	Filters []string

	// Sort is passed through verbatim, e.g. "score desc".
	Sort string

	// FacetFields enables faceting on the named fields.
	FacetFields []string

	// HighlightFields scopes highlighting. Empty highlights all fields when
	// highlighting is enabled.
	HighlightFields []string

	// Start is the pagination offset.
	Start int

	// Rows is the row count. Nil means "use the configured default";
	// an explicit zero is a valid facet-only query.
	Rows *int

	// Suggest requests spelling suggestions alongside the results.
	Suggest bool
}

// Request is a validated, immutable search query.
type Request struct {
	query           string
	defaultField    string
	fields          []string
	filters         []string
	sort            string
	facetFields     []string
	highlightFields []string
	start           int
	rows            *int
	suggest         bool
}

// NewRequest validates and normalizes search parameters. The query string is
// opaque to this layer and passed to the engine verbatim.
func NewRequest(query string, opts Options) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if opts.Start < 0 {
		return Request{}, fmt.Errorf("start must not be negative, got %d", opts.Start)
	}
	var rows *int
	if opts.Rows != nil {
		if *opts.Rows < 0 {
			return Request{}, fmt.Errorf("rows must not be negative, got %d", *opts.Rows)
		}
		n := *opts.Rows
		rows = &n
	}

	return Request{
		query:           query,
		defaultField:    opts.DefaultField,
		fields:          cloneStrings(opts.Fields),
		filters:         cloneStrings(opts.Filters),
		sort:            opts.Sort,
		facetFields:     cloneStrings(opts.FacetFields),
		highlightFields: cloneStrings(opts.HighlightFields),
		start:           opts.Start,
		rows:            rows,
		suggest:         opts.Suggest,
	}, nil
}

// Query returns the opaque query string.
func (r *Request) Query() string { return r.query }

// Start returns the pagination offset.
func (r *Request) Start() int { return r.start }

// Rows returns the requested row count and whether one was set.
func (r *Request) Rows() (int, bool) {
	if r.rows == nil {
		return 0, false
	}
	return *r.rows, true
}

// Filters returns the filter queries.
func (r *Request) Filters() []string { return cloneStrings(r.filters) }

// Suggest reports whether spelling suggestions were requested.
func (r *Request) Suggest() bool { return r.suggest }

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// IntPtr is a convenience for building Options with an explicit row count.
func IntPtr(n int) *int { return &n }
