// Package importer implements the reconciliation engine: diff-based
// upserts, chunked batch execution, paginated bulk deletes and the derived
// salesman rebuild.
package importer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/orderlink/importer/internal/docstore"
)

// Op is the reconciler's verdict for one entity.
type Op int

const (
	OpSkip Op = iota
	OpCreate
	OpPatch
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpPatch:
		return "patch"
	default:
		return "skip"
	}
}

// Decision carries the verdict and the exact fields to write.
type Decision struct {
	Op      Op
	Payload docstore.Doc
}

// Reconcile compares a canonical entity against the currently stored
// document and decides what, if anything, to write.
//
// Absent existing document: create, with an importedAt stamp. Present: the
// payload collects only the canonical fields whose value structurally
// differs from the stored one, plus an updatedAt stamp when non-empty.
// Fields the canonical document does not carry are never touched; a newer
// export missing a column must not erase previously known data.
func Reconcile(canonical, existing docstore.Doc, now time.Time) Decision {
	stamp := now.UTC().Format(time.RFC3339)

	if existing == nil {
		payload := docstore.Clone(canonical)
		payload["importedAt"] = stamp
		return Decision{Op: OpCreate, Payload: payload}
	}

	diff := docstore.Doc{}
	for field, value := range canonical {
		if !valueEqual(existing[field], value) {
			diff[field] = value
		}
	}
	if len(diff) == 0 {
		return Decision{Op: OpSkip}
	}
	diff["updatedAt"] = stamp
	return Decision{Op: OpPatch, Payload: diff}
}

// valueEqual compares two field values structurally. Both sides are
// marshaled to JSON, which sorts object keys, so two nested objects with
// the same pairs compare equal regardless of insertion order and numeric
// types collapse to their JSON form.
func valueEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
