package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/solr"
)

const (
	defaultRows  = 10
	defaultCount = 5
)

type resultPayload struct {
	ID           string              `json:"id"`
	Score        *float64            `json:"score"`
	Fields       map[string]any      `json:"fields"`
	Highlighting map[string][]string `json:"highlighting,omitempty"`
}

type searchPayload struct {
	TotalFound int64           `json:"total_found"`
	Start      int64           `json:"start"`
	Rows       int             `json:"rows"`
	QueryTime  *int            `json:"query_time"`
	Results    []resultPayload `json:"results"`
}

type facetValuePayload struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type facetPayload struct {
	Field  string              `json:"field"`
	Values []facetValuePayload `json:"values"`
}

type facetedPayload struct {
	TotalFound int64           `json:"total_found"`
	QueryTime  *int            `json:"query_time"`
	Facets     []facetPayload  `json:"facets"`
	Results    []resultPayload `json:"results"`
}

type statsPayload struct {
	TotalDocuments int64  `json:"total_documents"`
	CollectionName string `json:"collection_name"`
	SolrURL        string `json:"solr_url"`
}

type pingPayload struct {
	Status     string `json:"status"`
	Collection string `json:"collection"`
	SolrURL    string `json:"solr_url"`
}

func (s *Server) registerTools(m *server.MCPServer) {
	m.AddTool(mcp.NewTool("solr_search",
		mcp.WithDescription("Perform basic search in the Solr collection"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("rows", mcp.Description("Number of results to return (default: 10)")),
		mcp.WithNumber("start", mcp.Description("Starting offset for pagination (default: 0)")),
	), s.handleSearch)

	m.AddTool(mcp.NewTool("solr_advanced_search",
		mcp.WithDescription("Perform advanced search with filters, sorting and field selection"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("default_field", mcp.Description("Default field to search in (df parameter)")),
		mcp.WithArray("fields", mcp.Description("List of fields to return")),
		mcp.WithArray("filters", mcp.Description("List of filter queries (fq parameters)")),
		mcp.WithString("sort", mcp.Description("Sort specification (e.g. 'score desc', 'date asc')")),
		mcp.WithNumber("rows", mcp.Description("Number of results to return (default: 10)")),
		mcp.WithNumber("start", mcp.Description("Starting offset for pagination (default: 0)")),
	), s.handleAdvancedSearch)

	m.AddTool(mcp.NewTool("solr_faceted_search",
		mcp.WithDescription("Perform faceted search to get aggregated counts"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithArray("facet_fields", mcp.Required(), mcp.Description("List of fields to facet on")),
		mcp.WithArray("filters", mcp.Description("List of filter queries")),
		mcp.WithNumber("rows", mcp.Description("Number of results to return; 0 for counts only (default: 10)")),
	), s.handleFacetedSearch)

	m.AddTool(mcp.NewTool("solr_search_with_highlighting",
		mcp.WithDescription("Search with matched terms highlighted in the results"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithArray("highlight_fields", mcp.Description("Fields to highlight (empty for all fields)")),
		mcp.WithNumber("rows", mcp.Description("Number of results to return (default: 10)")),
		mcp.WithNumber("start", mcp.Description("Starting offset for pagination (default: 0)")),
	), s.handleSearchWithHighlighting)

	m.AddTool(mcp.NewTool("solr_get_suggestions",
		mcp.WithDescription("Get spelling suggestions for a query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query to get suggestions for")),
		mcp.WithNumber("count", mcp.Description("Maximum number of suggestions (default: 5)")),
	), s.handleGetSuggestions)

	m.AddTool(mcp.NewTool("solr_get_schema_fields",
		mcp.WithDescription("Get available fields in the Solr schema"),
	), s.handleGetSchemaFields)

	m.AddTool(mcp.NewTool("solr_get_collection_stats",
		mcp.WithDescription("Get basic statistics about the Solr collection"),
	), s.handleGetCollectionStats)

	m.AddTool(mcp.NewTool("solr_ping",
		mcp.WithDescription("Test the Solr connection"),
	), s.handlePing)

	if s.rewriter != nil {
		m.AddTool(mcp.NewTool("solr_rewrite_query",
			mcp.WithDescription("Rewrite a natural-language question into Solr query syntax"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question")),
		), s.handleRewriteQuery)
	}
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_search")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	req, err := solr.NewRequest(query, solr.Options{
		Rows:  solr.IntPtr(intArg(args, "rows", defaultRows)),
		Start: intArg(args, "start", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.search.Search(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(buildSearchPayload(resp, false))
}

func (s *Server) handleAdvancedSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_advanced_search")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	sort, _ := args["sort"].(string)
	defaultField, _ := args["default_field"].(string)

	req, err := solr.NewRequest(query, solr.Options{
		DefaultField: defaultField,
		Fields:       stringSliceArg(args, "fields"),
		Filters:      stringSliceArg(args, "filters"),
		Sort:         sort,
		Rows:         solr.IntPtr(intArg(args, "rows", defaultRows)),
		Start:        intArg(args, "start", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.search.Search(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(buildSearchPayload(resp, false))
}

func (s *Server) handleFacetedSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_faceted_search")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	facetFields := stringSliceArg(args, "facet_fields")
	if len(facetFields) == 0 {
		return mcp.NewToolResultError("facet_fields parameter is required"), nil
	}

	req, err := solr.NewRequest(query, solr.Options{
		Filters:     stringSliceArg(args, "filters"),
		FacetFields: facetFields,
		Rows:        solr.IntPtr(intArg(args, "rows", defaultRows)),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.search.Search(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := facetedPayload{
		TotalFound: resp.TotalFound,
		QueryTime:  resp.QTimeMillis,
		Facets:     make([]facetPayload, 0, len(resp.Facets)),
		Results:    buildResultPayloads(resp.Results, false),
	}
	for _, f := range resp.Facets {
		fp := facetPayload{Field: f.Name, Values: make([]facetValuePayload, 0, len(f.Values))}
		for _, v := range f.Values {
			fp.Values = append(fp.Values, facetValuePayload{Value: v.Value, Count: v.Count})
		}
		payload.Facets = append(payload.Facets, fp)
	}
	return jsonResult(payload)
}

func (s *Server) handleSearchWithHighlighting(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_search_with_highlighting")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	req, err := solr.NewRequest(query, solr.Options{
		HighlightFields: stringSliceArg(args, "highlight_fields"),
		Rows:            solr.IntPtr(intArg(args, "rows", defaultRows)),
		Start:           intArg(args, "start", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.search.Search(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(buildSearchPayload(resp, true))
}

func (s *Server) handleGetSuggestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_get_suggestions")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	suggestions := s.search.Suggest(ctx, query, intArg(args, "count", defaultCount))
	return jsonResult(map[string]any{"suggestions": suggestions})
}

func (s *Server) handleGetSchemaFields(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logCall("solr_get_schema_fields")
	return jsonResult(map[string]any{"fields": s.search.SchemaFields(ctx)})
}

func (s *Server) handleGetCollectionStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logCall("solr_get_collection_stats")

	stats, ok := s.search.CollectionStats(ctx)
	if !ok {
		return mcp.NewToolResultError("failed to retrieve collection statistics"), nil
	}
	return jsonResult(statsPayload{
		TotalDocuments: stats.TotalDocuments,
		CollectionName: stats.Collection,
		SolrURL:        stats.BaseURL,
	})
}

func (s *Server) handlePing(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logCall("solr_ping")

	status := "unhealthy"
	if s.search.Ping(ctx) {
		status = "healthy"
	}
	return jsonResult(pingPayload{
		Status:     status,
		Collection: s.search.Collection(),
		SolrURL:    s.search.BaseURL(),
	})
}

func (s *Server) handleRewriteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	s.logCall("solr_rewrite_query")

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	rewritten, err := s.rewriter.Rewrite(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rewrite failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"query": query, "rewritten": rewritten})
}

func (s *Server) logCall(tool string) {
	s.logger.Info("tool call",
		zap.String("tool", tool),
		zap.String("request_id", uuid.NewString()),
	)
}

func buildSearchPayload(resp solr.Response, withHighlighting bool) searchPayload {
	return searchPayload{
		TotalFound: resp.TotalFound,
		Start:      resp.Start,
		Rows:       resp.Rows,
		QueryTime:  resp.QTimeMillis,
		Results:    buildResultPayloads(resp.Results, withHighlighting),
	}
}

func buildResultPayloads(results []solr.Result, withHighlighting bool) []resultPayload {
	out := make([]resultPayload, 0, len(results))
	for _, r := range results {
		p := resultPayload{ID: r.ID, Score: r.Score, Fields: r.Fields}
		if withHighlighting {
			p.Highlighting = r.Highlighting
		}
		out = append(out, p)
	}
	return out
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg reads an optional integer argument, tolerating the float64 the JSON
// decoder produces.
func intArg(args map[string]interface{}, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
