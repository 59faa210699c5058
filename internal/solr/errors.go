package solr

import "errors"

// ErrClosed is returned by operations invoked after Close.
var ErrClosed = errors.New("solr: client is closed")

// ConnectionError reports a failure to establish the initial connection
// after the bounded probe retry is exhausted. It is returned only from New.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "solr: connect: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed query operation. Transport-level failures and
// engine-reported errors are both wrapped here; Op names the originating
// operation for diagnostics.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return "solr: " + e.Op + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }
