package media

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/metadata"
)

// PersistenceError wraps metadata writes that failed for reasons other than
// a missing record or a version conflict.
var PersistenceError = errs.Class("persistence failed")

// ErrMalformedLocator marks a stored locator no key can be extracted from.
var ErrMalformedLocator = errors.New("malformed locator")

// Kind classifies an error for callers that render or retry it.
type Kind string

const (
	KindValidation  Kind = "validation_failed"
	KindQuota       Kind = "quota_exceeded"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence_failed"
	KindConflict    Kind = "conflict_retryable"
	KindBlob        Kind = "blob_operation_failed"
	KindMalformed   Kind = "malformed_locator"
	KindUnknown     Kind = "unknown"
)

// Classifier lets an error declare its Kind.
type Classifier interface {
	ErrorKind() Kind
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields catalog.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}

// ErrorKind implements Classifier.
func (e *ValidationError) ErrorKind() Kind { return KindValidation }

// QuotaError reports an owner at or over their plan's record limit.
type QuotaError struct {
	Plan    string
	Current int
	Limit   int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: plan %q allows %d records, owner has %d", e.Plan, e.Limit, e.Current)
}

// ErrorKind implements Classifier.
func (e *QuotaError) ErrorKind() Kind { return KindQuota }

// KindOf maps any error onto the Kind taxonomy. nil maps to "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var c Classifier
	switch {
	case errors.As(err, &c):
		return c.ErrorKind()
	case errors.Is(err, metadata.ErrConflict):
		return KindConflict
	case errors.Is(err, ErrMalformedLocator):
		return KindMalformed
	case PersistenceError.Has(err):
		return KindPersistence
	case blobstore.Error.Has(err):
		return KindBlob
	case errors.Is(err, metadata.ErrNotFound):
		return KindNotFound
	}
	return KindUnknown
}

// persistErr classifies a metadata write failure. Not-found and conflict
// errors pass through so KindOf reports them as such.
func persistErr(err error) error {
	if errors.Is(err, metadata.ErrNotFound) || errors.Is(err, metadata.ErrConflict) {
		return err
	}
	return PersistenceError.Wrap(err)
}
