package solr

import (
	"fmt"
	"strings"
	"time"
)

// Query limits and defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRows     = 1000
	MaxRowsCeiling     = 10000
	DefaultFacetLimit  = 100
	DefaultSearchField = "text"

	// defaultRowCap bounds the implicit row count when a request does not
	// specify one.
	defaultRowCap = 100
)

// Config holds connection settings and query defaults for one Solr collection.
// The zero value of the boolean flags matches the engine-facing defaults:
// TLS verification on, highlighting on.
type Config struct {
	// BaseURL is the Solr root, e.g. "http://localhost:8983/solr".
	BaseURL    string
	Collection string

	// Username/Password enable HTTP basic auth when both are set.
	Username string
	Password string

	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// MaxRows caps the row count of a single query.
	MaxRows int

	// DefaultSearchField is sent as the df parameter when a request does not
	// override it. Empty leaves the choice to the collection schema.
	DefaultSearchField string

	// FacetLimit caps the number of values returned per facet field.
	FacetLimit int

	// DisableHighlighting turns off result highlighting entirely.
	DisableHighlighting bool
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.FacetLimit <= 0 {
		c.FacetLimit = DefaultFacetLimit
	}
	if c.DefaultSearchField == "" {
		c.DefaultSearchField = DefaultSearchField
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must start with http:// or https://, got %q", c.BaseURL)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.MaxRows > MaxRowsCeiling {
		return fmt.Errorf("max rows must not exceed %d, got %d", MaxRowsCeiling, c.MaxRows)
	}
	return nil
}
