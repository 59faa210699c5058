// Package solr is a client for a single Apache Solr collection: it maps
// structured search requests onto the engine's wire parameters, manages the
// pooled connection with retried health probing, and normalizes the engine's
// reply shapes into stable result structures.
package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/metrics"
)

const defaultSuggestCount = 5

// Client executes search operations against one Solr collection. Safe for
// concurrent use; each operation is an independent request/response exchange.
type Client struct {
	cfg    Config
	conn   *conn
	logger *zap.Logger
}

// New validates the configuration, builds the pooled connection and performs
// the blocking init probe. A probe that fails all attempts surfaces as
// *ConnectionError.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("solr config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:    cfg,
		conn:   newConn(&cfg, logger),
		logger: logger,
	}

	if err := c.conn.probe(ctx); err != nil {
		c.conn.close()
		logger.Error("failed to connect to solr",
			zap.String("base_url", cfg.BaseURL),
			zap.String("collection", cfg.Collection),
			zap.Error(err),
		)
		return nil, &ConnectionError{Err: err}
	}

	logger.Info("connected to solr",
		zap.String("base_url", cfg.BaseURL),
		zap.String("collection", cfg.Collection),
	)
	return c, nil
}

// Collection returns the collection name the client is bound to.
func (c *Client) Collection() string { return c.cfg.Collection }

// BaseURL returns the engine root URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Close releases the pooled transport. Idempotent; operations after Close
// fail fast instead of reconnecting.
func (c *Client) Close() {
	c.conn.close()
	c.logger.Info("solr connection closed")
}

// Ping reports whether the engine answers the health probe. Never errors.
func (c *Client) Ping(ctx context.Context) bool {
	start := time.Now()
	err := c.conn.ping(ctx)
	observe("ping", start, err)
	if err != nil {
		c.logger.Warn("solr ping failed", zap.Error(err))
		return false
	}
	return true
}

// Search executes a query and returns the normalized response. Failures of
// any kind during the call surface as *QueryError.
func (c *Client) Search(ctx context.Context, req Request) (Response, error) {
	params, err := buildParams(&req, &c.cfg)
	if err != nil {
		return Response{}, &QueryError{Op: "search", Err: err}
	}

	raw, err := c.selectQuery(ctx, "search", params)
	if err != nil {
		c.logger.Error("solr search failed",
			zap.String("query", req.query),
			zap.Error(err),
		)
		return Response{}, &QueryError{Op: "search", Err: err}
	}

	resp := normalize(raw)
	metrics.SearchResultsReturned.WithLabelValues("search").Observe(float64(resp.Rows))
	c.logger.Debug("solr search completed",
		zap.Int64("total_found", resp.TotalFound),
		zap.Int("rows", resp.Rows),
	)
	return resp, nil
}

// Suggest returns spelling suggestions for a query, truncated to count
// candidates per term. Best-effort: any failure yields an empty map.
func (c *Client) Suggest(ctx context.Context, query string, count int) map[string][]string {
	if count <= 0 {
		count = defaultSuggestCount
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", "0")
	params.Set("wt", "json")
	params.Set("spellcheck", "true")
	params.Set("spellcheck.count", strconv.Itoa(count))
	params.Set("spellcheck.build", "true")

	raw, err := c.selectQuery(ctx, "suggest", params)
	if err != nil {
		c.logger.Warn("solr suggest failed", zap.Error(err))
		return map[string][]string{}
	}

	out := map[string][]string{}
	for term, candidates := range normalizeSuggestions(raw.Spellcheck) {
		if len(candidates) > count {
			candidates = candidates[:count]
		}
		out[term] = candidates
	}
	return out
}

// SchemaFields samples one document and returns its field names, sorted.
// Not a true schema call; best-effort, empty on failure.
func (c *Client) SchemaFields(ctx context.Context) []string {
	params := url.Values{}
	params.Set("q", "*:*")
	params.Set("rows", "1")
	params.Set("fl", "*")
	params.Set("wt", "json")

	raw, err := c.selectQuery(ctx, "schema_fields", params)
	if err != nil {
		c.logger.Warn("solr schema fields lookup failed", zap.Error(err))
		return []string{}
	}
	if len(raw.Response.Docs) == 0 {
		return []string{}
	}

	doc := raw.Response.Docs[0]
	fields := make([]string, 0, len(doc))
	for name := range doc {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// CollectionStats returns basic statistics about the collection. Best-effort:
// ok is false on any failure.
func (c *Client) CollectionStats(ctx context.Context) (Stats, bool) {
	params := url.Values{}
	params.Set("q", "*:*")
	params.Set("rows", "0")
	params.Set("wt", "json")

	raw, err := c.selectQuery(ctx, "collection_stats", params)
	if err != nil {
		c.logger.Warn("solr collection stats lookup failed", zap.Error(err))
		return Stats{}, false
	}

	return Stats{
		TotalDocuments: raw.Response.NumFound,
		Collection:     c.cfg.Collection,
		BaseURL:        c.cfg.BaseURL,
	}, true
}

// selectQuery issues the parameter set against the select handler and decodes
// the raw reply. No retry here beyond what the transport already does.
func (c *Client) selectQuery(ctx context.Context, op string, params url.Values) (*rawReply, error) {
	start := time.Now()
	body, err := c.conn.do(ctx, "select", params)
	observe(op, start, err)
	if err != nil {
		return nil, err
	}

	var raw rawReply
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if raw.Error != nil && raw.Error.Msg != "" {
		return nil, fmt.Errorf("engine error %d: %s", raw.Error.Code, raw.Error.Msg)
	}
	return &raw, nil
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.SearchRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
