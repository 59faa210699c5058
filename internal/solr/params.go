package solr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Highlight markers are fixed, not configurable per request.
const (
	highlightPre  = "<mark>"
	highlightPost = "</mark>"
)

// buildParams maps a validated request onto the engine's wire parameters.
// Pure: no I/O, fails only on a row count above the configured cap.
func buildParams(req *Request, cfg *Config) (url.Values, error) {
	rows := cfg.MaxRows
	if rows > defaultRowCap {
		rows = defaultRowCap
	}
	if req.rows != nil {
		if *req.rows > cfg.MaxRows {
			return nil, fmt.Errorf("rows %d exceeds configured maximum %d", *req.rows, cfg.MaxRows)
		}
		rows = *req.rows
	}

	p := url.Values{}
	p.Set("q", req.query)
	p.Set("start", strconv.Itoa(req.start))
	p.Set("rows", strconv.Itoa(rows))
	p.Set("wt", "json")

	switch {
	case req.defaultField != "":
		p.Set("df", req.defaultField)
	case cfg.DefaultSearchField != "":
		p.Set("df", cfg.DefaultSearchField)
	}

	// An empty field list means "all fields", same as no list at all.
	if len(req.fields) > 0 {
		p.Set("fl", strings.Join(req.fields, ","))
	}

	if req.sort != "" {
		p.Set("sort", req.sort)
	}

	// Filter queries stay separate values; the engine ANDs them itself.
	for _, fq := range req.filters {
		p.Add("fq", fq)
	}

	if len(req.facetFields) > 0 {
		p.Set("facet", "true")
		for _, f := range req.facetFields {
			p.Add("facet.field", f)
		}
		p.Set("facet.limit", strconv.Itoa(cfg.FacetLimit))
		p.Set("facet.mincount", "1")
	}

	switch {
	case cfg.DisableHighlighting:
		// omitted entirely
	case len(req.highlightFields) > 0:
		p.Set("hl", "true")
		p.Set("hl.fl", strings.Join(req.highlightFields, ","))
		p.Set("hl.simple.pre", highlightPre)
		p.Set("hl.simple.post", highlightPost)
	default:
		p.Set("hl", "true")
		p.Set("hl.fl", "*")
		p.Set("hl.simple.pre", highlightPre)
		p.Set("hl.simple.post", highlightPost)
	}

	if req.suggest {
		p.Set("spellcheck", "true")
		p.Set("spellcheck.build", "true")
		p.Set("spellcheck.collate", "true")
	}

	return p, nil
}
