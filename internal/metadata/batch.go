package metadata

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

// OpKind distinguishes batch operations.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
)

func (k OpKind) String() string {
	if k == OpUpdate {
		return "update"
	}
	return "insert"
}

// Op is one write in an unordered batch. Updates overwrite by id.
type Op struct {
	Kind   OpKind
	Record catalog.Record
}

// OpResult reports the outcome of one Op.
type OpResult struct {
	Op  Op
	Err error
}

// ApplyBatch runs every op independently. A failed op does not stop the
// others; the caller inspects each result.
func (s *Store) ApplyBatch(ctx context.Context, ops []Op) []OpResult {
	results := make([]OpResult, 0, len(ops))
	for _, op := range ops {
		rec := op.Record.Clone()
		var err error
		switch op.Kind {
		case OpInsert:
			err = s.CreateRecord(ctx, &rec)
		case OpUpdate:
			err = s.OverwriteRecord(ctx, &rec)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		results = append(results, OpResult{Op: Op{Kind: op.Kind, Record: rec}, Err: err})
	}
	return results
}
