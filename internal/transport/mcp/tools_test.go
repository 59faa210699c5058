package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/solr"
)

// --- Mocks ---

type mockSearch struct {
	lastReq solr.Request

	resp        solr.Response
	err         error
	suggestions map[string][]string
	fields      []string
	stats       solr.Stats
	statsOK     bool
	pingOK      bool
}

func (m *mockSearch) Search(_ context.Context, req solr.Request) (solr.Response, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockSearch) Suggest(_ context.Context, _ string, count int) map[string][]string {
	out := make(map[string][]string)
	for term, candidates := range m.suggestions {
		if len(candidates) > count {
			candidates = candidates[:count]
		}
		out[term] = candidates
	}
	return out
}

func (m *mockSearch) SchemaFields(_ context.Context) []string { return m.fields }

func (m *mockSearch) CollectionStats(_ context.Context) (solr.Stats, bool) {
	return m.stats, m.statsOK
}

func (m *mockSearch) Ping(_ context.Context) bool { return m.pingOK }
func (m *mockSearch) Collection() string          { return "docs" }
func (m *mockSearch) BaseURL() string             { return "http://localhost:8983/solr" }

type mockRewriter struct {
	out string
	err error
}

func (m *mockRewriter) Rewrite(_ context.Context, _ string) (string, error) {
	return m.out, m.err
}

// --- Helpers ---

func newTestServer(search SearchClient, rewriter QueryRewriter) *Server {
	return NewServer(search, rewriter, zap.NewNop())
}

func callRequest(args map[string]interface{}) mcplib.CallToolRequest {
	req := mcplib.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func decodePayload(t *testing.T, res *mcplib.CallToolResult, out any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resultText(t, res)), out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func sampleResponse() solr.Response {
	score := 1.5
	return solr.Response{
		Results: []solr.Result{
			{
				ID:           "1",
				Score:        &score,
				Fields:       map[string]any{"title": "Go"},
				Highlighting: map[string][]string{"title": {"<mark>Go</mark>"}},
			},
		},
		TotalFound: 42,
		Start:      0,
		Rows:       1,
	}
}

// --- Tests ---

func TestHandleSearch_DefaultsRowsAndStart(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	srv := newTestServer(search, nil)

	res, err := srv.handleSearch(context.Background(), callRequest(map[string]interface{}{
		"query": "golang",
	}))
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	if got := search.lastReq.Query(); got != "golang" {
		t.Errorf("query = %q", got)
	}
	rows, explicit := search.lastReq.Rows()
	if !explicit || rows != 10 {
		t.Errorf("rows = %d (explicit=%t), want explicit 10", rows, explicit)
	}
	if search.lastReq.Start() != 0 {
		t.Errorf("start = %d, want 0", search.lastReq.Start())
	}

	var payload searchPayload
	decodePayload(t, res, &payload)
	if payload.TotalFound != 42 {
		t.Errorf("total_found = %d, want 42", payload.TotalFound)
	}
	if len(payload.Results) != 1 || payload.Results[0].ID != "1" {
		t.Errorf("unexpected results: %+v", payload.Results)
	}
	if payload.Results[0].Highlighting != nil {
		t.Error("basic search should not carry highlighting")
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	srv := newTestServer(&mockSearch{}, nil)

	res, err := srv.handleSearch(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing query")
	}
}

func TestHandleSearch_EngineFailureBecomesToolError(t *testing.T) {
	search := &mockSearch{err: &solr.QueryError{Op: "search", Err: errors.New("boom")}}
	srv := newTestServer(search, nil)

	res, err := srv.handleSearch(context.Background(), callRequest(map[string]interface{}{
		"query": "golang",
	}))
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for engine failure")
	}
	if !strings.Contains(resultText(t, res), "boom") {
		t.Errorf("error text should carry the cause, got %q", resultText(t, res))
	}
}

func TestHandleAdvancedSearch_PassesOptions(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	srv := newTestServer(search, nil)

	res, err := srv.handleAdvancedSearch(context.Background(), callRequest(map[string]interface{}{
		"query":         "go concurrency",
		"default_field": "content",
		"fields":        []interface{}{"id", "title"},
		"filters":       []interface{}{"type:book", "year:2021"},
		"sort":          "score desc",
		"rows":          float64(5),
		"start":         float64(20),
	}))
	if err != nil {
		t.Fatalf("handleAdvancedSearch: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	if got := search.lastReq.Filters(); len(got) != 2 || got[0] != "type:book" {
		t.Errorf("filters = %v", got)
	}
	rows, _ := search.lastReq.Rows()
	if rows != 5 {
		t.Errorf("rows = %d, want 5", rows)
	}
	if search.lastReq.Start() != 20 {
		t.Errorf("start = %d, want 20", search.lastReq.Start())
	}
}

func TestHandleFacetedSearch_RequiresFacetFields(t *testing.T) {
	srv := newTestServer(&mockSearch{}, nil)

	res, err := srv.handleFacetedSearch(context.Background(), callRequest(map[string]interface{}{
		"query": "golang",
	}))
	if err != nil {
		t.Fatalf("handleFacetedSearch: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing facet_fields")
	}
}

func TestHandleFacetedSearch_PayloadShape(t *testing.T) {
	resp := sampleResponse()
	resp.Facets = []solr.FacetField{
		{Name: "type", Values: []solr.FacetValue{
			{Value: "book", Count: 5},
			{Value: "article", Count: 3},
		}},
	}
	search := &mockSearch{resp: resp}
	srv := newTestServer(search, nil)

	res, err := srv.handleFacetedSearch(context.Background(), callRequest(map[string]interface{}{
		"query":        "golang",
		"facet_fields": []interface{}{"type"},
		"rows":         float64(0),
	}))
	if err != nil {
		t.Fatalf("handleFacetedSearch: %v", err)
	}

	var payload facetedPayload
	decodePayload(t, res, &payload)
	if len(payload.Facets) != 1 || payload.Facets[0].Field != "type" {
		t.Fatalf("unexpected facets: %+v", payload.Facets)
	}
	if payload.Facets[0].Values[0].Value != "book" || payload.Facets[0].Values[0].Count != 5 {
		t.Errorf("unexpected first bucket: %+v", payload.Facets[0].Values[0])
	}

	rows, explicit := search.lastReq.Rows()
	if !explicit || rows != 0 {
		t.Errorf("rows = %d (explicit=%t), want explicit 0", rows, explicit)
	}
}

func TestHandleSearchWithHighlighting_CarriesHighlights(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	srv := newTestServer(search, nil)

	res, err := srv.handleSearchWithHighlighting(context.Background(), callRequest(map[string]interface{}{
		"query": "golang",
	}))
	if err != nil {
		t.Fatalf("handleSearchWithHighlighting: %v", err)
	}

	var payload searchPayload
	decodePayload(t, res, &payload)
	if payload.Results[0].Highlighting == nil {
		t.Fatal("highlighting missing from payload")
	}
	if got := payload.Results[0].Highlighting["title"][0]; got != "<mark>Go</mark>" {
		t.Errorf("highlight snippet = %q", got)
	}
}

func TestHandleGetSuggestions(t *testing.T) {
	search := &mockSearch{suggestions: map[string][]string{
		"documnt": {"document", "documents", "documented"},
	}}
	srv := newTestServer(search, nil)

	res, err := srv.handleGetSuggestions(context.Background(), callRequest(map[string]interface{}{
		"query": "documnt",
		"count": float64(2),
	}))
	if err != nil {
		t.Fatalf("handleGetSuggestions: %v", err)
	}

	var payload struct {
		Suggestions map[string][]string `json:"suggestions"`
	}
	decodePayload(t, res, &payload)
	if got := payload.Suggestions["documnt"]; len(got) != 2 || got[0] != "document" {
		t.Errorf("suggestions = %v", got)
	}
}

func TestHandleGetSchemaFields(t *testing.T) {
	search := &mockSearch{fields: []string{"author", "id", "title"}}
	srv := newTestServer(search, nil)

	res, err := srv.handleGetSchemaFields(context.Background(), mcplib.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleGetSchemaFields: %v", err)
	}

	var payload struct {
		Fields []string `json:"fields"`
	}
	decodePayload(t, res, &payload)
	if len(payload.Fields) != 3 || payload.Fields[0] != "author" {
		t.Errorf("fields = %v", payload.Fields)
	}
}

func TestHandleGetCollectionStats(t *testing.T) {
	search := &mockSearch{
		stats:   solr.Stats{TotalDocuments: 1234, Collection: "docs", BaseURL: "http://localhost:8983/solr"},
		statsOK: true,
	}
	srv := newTestServer(search, nil)

	res, err := srv.handleGetCollectionStats(context.Background(), mcplib.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleGetCollectionStats: %v", err)
	}

	var payload statsPayload
	decodePayload(t, res, &payload)
	if payload.TotalDocuments != 1234 || payload.CollectionName != "docs" {
		t.Errorf("unexpected stats payload: %+v", payload)
	}
}

func TestHandleGetCollectionStats_Failure(t *testing.T) {
	srv := newTestServer(&mockSearch{statsOK: false}, nil)

	res, err := srv.handleGetCollectionStats(context.Background(), mcplib.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleGetCollectionStats: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error when stats are unavailable")
	}
}

func TestHandlePing(t *testing.T) {
	for _, tc := range []struct {
		ok   bool
		want string
	}{
		{ok: true, want: "healthy"},
		{ok: false, want: "unhealthy"},
	} {
		srv := newTestServer(&mockSearch{pingOK: tc.ok}, nil)

		res, err := srv.handlePing(context.Background(), mcplib.CallToolRequest{})
		if err != nil {
			t.Fatalf("handlePing: %v", err)
		}

		var payload pingPayload
		decodePayload(t, res, &payload)
		if payload.Status != tc.want {
			t.Errorf("status = %q, want %q", payload.Status, tc.want)
		}
		if payload.Collection != "docs" {
			t.Errorf("collection = %q", payload.Collection)
		}
	}
}

func TestHandleRewriteQuery(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockRewriter{out: "title:golang AND type:book"})

	res, err := srv.handleRewriteQuery(context.Background(), callRequest(map[string]interface{}{
		"query": "books about golang",
	}))
	if err != nil {
		t.Fatalf("handleRewriteQuery: %v", err)
	}

	var payload struct {
		Query     string `json:"query"`
		Rewritten string `json:"rewritten"`
	}
	decodePayload(t, res, &payload)
	if payload.Rewritten != "title:golang AND type:book" {
		t.Errorf("rewritten = %q", payload.Rewritten)
	}
}

func TestHandleRewriteQuery_Failure(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockRewriter{err: errors.New("model unavailable")})

	res, err := srv.handleRewriteQuery(context.Background(), callRequest(map[string]interface{}{
		"query": "books about golang",
	}))
	if err != nil {
		t.Fatalf("handleRewriteQuery: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error when the rewriter fails")
	}
}
