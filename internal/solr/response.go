package solr

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Result is a single matched document. The identifier and score are promoted
// out of the generic field map.
type Result struct {
	ID           string
	Score        *float64
	Fields       map[string]any
	Highlighting map[string][]string
}

// FacetValue is one aggregated bucket: a value label and its count.
type FacetValue struct {
	Value string
	Count int64
}

// FacetField is a facet field with its decoded values, in engine order.
type FacetField struct {
	Name   string
	Values []FacetValue
}

// Response is the normalized reply to a search.
type Response struct {
	Results    []Result
	TotalFound int64
	Start      int64

	// Rows is the number of results actually returned, which may be zero
	// even when TotalFound is not (facet-only queries).
	Rows int

	// QTimeMillis is the engine-reported execution time, when present.
	QTimeMillis *int

	// Facets is nil unless at least one facet field decoded to values.
	Facets []FacetField

	// Suggestions maps misspelled terms to corrected candidates; nil when
	// the reply carried none.
	Suggestions map[string][]string
}

// Stats holds basic collection statistics.
type Stats struct {
	TotalDocuments int64
	Collection     string
	BaseURL        string
}

// rawReply is the engine's reply schema. The optional fragments stay raw so a
// malformed section degrades to an absent attribute instead of failing the
// whole call.
type rawReply struct {
	ResponseHeader struct {
		Status int  `json:"status"`
		QTime  *int `json:"QTime"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int64            `json:"numFound"`
		Start    int64            `json:"start"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	FacetCounts  json.RawMessage `json:"facet_counts"`
	Highlighting json.RawMessage `json:"highlighting"`
	Spellcheck   json.RawMessage `json:"spellcheck"`
	Error        *struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

// normalize converts a raw reply into a Response.
func normalize(raw *rawReply) Response {
	highlighting := decodeHighlighting(raw.Highlighting)

	results := make([]Result, 0, len(raw.Response.Docs))
	for _, doc := range raw.Response.Docs {
		results = append(results, normalizeDoc(doc, highlighting))
	}

	return Response{
		Results:     results,
		TotalFound:  raw.Response.NumFound,
		Start:       raw.Response.Start,
		Rows:        len(results),
		QTimeMillis: raw.ResponseHeader.QTime,
		Facets:      normalizeFacets(raw.FacetCounts),
		Suggestions: normalizeSuggestions(raw.Spellcheck),
	}
}

func normalizeDoc(doc map[string]any, highlighting map[string]map[string][]string) Result {
	id, _ := doc["id"].(string)
	if id == "" {
		id = stableDocID(doc)
	}

	var score *float64
	if s, ok := doc["score"].(float64); ok {
		score = &s
	}

	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "id" || k == "score" {
			continue
		}
		fields[k] = v
	}

	res := Result{ID: id, Score: score, Fields: fields}
	if hl, ok := highlighting[id]; ok && len(hl) > 0 {
		res.Highlighting = hl
	}
	return res
}

func decodeHighlighting(raw json.RawMessage) map[string]map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	out := map[string]map[string][]string{}
	if json.Unmarshal(raw, &out) != nil {
		return nil
	}
	return out
}

// normalizeFacets decodes the positional facet encoding: each field carries a
// flat sequence alternating value and count. Pairs keep engine order; a
// trailing unpaired element is dropped; fields with no pairs are omitted.
// Returns nil when nothing decodes, so callers can tell "no facets" apart
// from "empty facets".
func normalizeFacets(raw json.RawMessage) []FacetField {
	if len(raw) == 0 {
		return nil
	}
	var counts struct {
		FacetFields map[string]json.RawMessage `json:"facet_fields"`
	}
	if json.Unmarshal(raw, &counts) != nil {
		return nil
	}

	names := make([]string, 0, len(counts.FacetFields))
	for name := range counts.FacetFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []FacetField
	for _, name := range names {
		var seq []any
		if json.Unmarshal(counts.FacetFields[name], &seq) != nil {
			continue
		}
		values := make([]FacetValue, 0, len(seq)/2)
		for i := 0; i+1 < len(seq); i += 2 {
			count, ok := seq[i+1].(float64)
			if !ok || count < 0 {
				continue
			}
			values = append(values, FacetValue{
				Value: stringify(seq[i]),
				Count: int64(count),
			})
		}
		if len(values) > 0 {
			out = append(out, FacetField{Name: name, Values: values})
		}
	}
	return out
}

// rawSuggestion is one spellcheck entry; candidates may be plain strings or
// extended objects carrying a word field.
type rawSuggestion struct {
	Suggestion []json.RawMessage `json:"suggestion"`
}

// normalizeSuggestions flattens the spellcheck section to term -> candidates.
// The engine serializes suggestions as either a term-keyed map or a flat
// name/value array depending on its json.nl setting; both shapes are
// accepted. Entries without a suggestion list (collations, the
// correctlySpelled flag) are skipped. Returns nil when nothing remains.
func normalizeSuggestions(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var spellcheck struct {
		Suggestions json.RawMessage `json:"suggestions"`
	}
	if json.Unmarshal(raw, &spellcheck) != nil || len(spellcheck.Suggestions) == 0 {
		return nil
	}

	entries := map[string]rawSuggestion{}

	var byTerm map[string]json.RawMessage
	if json.Unmarshal(spellcheck.Suggestions, &byTerm) == nil {
		for term, payload := range byTerm {
			var entry rawSuggestion
			if json.Unmarshal(payload, &entry) == nil {
				entries[term] = entry
			}
		}
	} else {
		var flat []json.RawMessage
		if json.Unmarshal(spellcheck.Suggestions, &flat) != nil {
			return nil
		}
		for i := 0; i+1 < len(flat); i += 2 {
			var term string
			if json.Unmarshal(flat[i], &term) != nil || term == "" {
				continue
			}
			var entry rawSuggestion
			if json.Unmarshal(flat[i+1], &entry) == nil {
				entries[term] = entry
			}
		}
	}

	out := make(map[string][]string, len(entries))
	for term, entry := range entries {
		if len(entry.Suggestion) == 0 {
			continue
		}
		candidates := make([]string, 0, len(entry.Suggestion))
		for _, item := range entry.Suggestion {
			var word string
			if json.Unmarshal(item, &word) == nil {
				candidates = append(candidates, word)
				continue
			}
			var ext struct {
				Word string `json:"word"`
			}
			if json.Unmarshal(item, &ext) == nil && ext.Word != "" {
				candidates = append(candidates, ext.Word)
			}
		}
		if len(candidates) > 0 {
			out[term] = candidates
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stableDocID derives a deterministic identifier for a document without an id
// field: a hash over the sorted field/value pairs, so field order and map
// iteration cannot change the result.
func stableDocID(doc map[string]any) string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		b, err := json.Marshal(doc[k])
		if err != nil {
			b = []byte(fmt.Sprint(doc[k]))
		}
		fmt.Fprintf(h, "%s=%s\n", k, b)
	}
	return "doc:" + hex.EncodeToString(h.Sum(nil))[:16]
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}
