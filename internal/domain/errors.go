package domain

import (
	"fmt"
	"strings"
)

// RetrievalError reports a network, catalog, or archive-structure failure.
// It is not retried automatically; the run aborts and is rerun later.
type RetrievalError struct {
	Op  string
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("retrieval failed: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("retrieval failed: %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// SchemaError reports upstream format drift: unexpected or missing columns,
// unparseable numeric or date cells, or an unrecognized document layout.
// Always fatal for the run; drift must never be silently absorbed.
type SchemaError struct {
	Dataset string
	Detail  string
	Columns []string
	Err     error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error in %s: %s", e.Dataset, e.Detail)
	if len(e.Columns) > 0 {
		msg += ": " + strings.Join(e.Columns, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IntegrityError reports a data-integrity violation inside a single dataset,
// such as a duplicate primary identifier.
type IntegrityError struct {
	Dataset string
	Detail  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error in %s: %s", e.Dataset, e.Detail)
}
