// Package journal persists an append-only record of every mutating
// command: the forward patches applied and the inverse patches needed to
// undo them. Rows are written once and never edited.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/jameskraus/nab/pkg/mutate"
	"github.com/jameskraus/nab/pkg/ynab"
)

// Action types.
const (
	ActionEdit   = "transaction.edit"
	ActionRemove = "transaction.remove"
	ActionRevert = "revert"
)

// Entry describes one change to one transaction: a field patch, a restore
// from snapshot, or a deletion. Exactly one of Patch, Restore and Delete
// is set.
type Entry struct {
	ID      string                `json:"id"`
	Patch   *ynab.Patch           `json:"patch,omitempty"`
	Restore *ynab.SaveTransaction `json:"restore,omitempty"`
	Delete  bool                  `json:"delete,omitempty"`
}

// Payload carries what an action did: the originating command, the
// affected ids, and the forward entries actually applied.
type Payload struct {
	Command string  `json:"command"`
	IDs     []string `json:"ids"`
	Forward []Entry `json:"forward,omitempty"`

	// Reverts holds the original action id for revert actions.
	Reverts string `json:"reverts,omitempty"`
}

// Inverse carries the entries that undo an action, in forward-apply order.
type Inverse struct {
	Entries []Entry `json:"entries"`
}

// Action is one immutable journal row.
type Action struct {
	ID        string
	CreatedAt time.Time
	Type      string
	Payload   Payload
	Inverse   *Inverse
}

// BuildAction assembles a journal action from mutation results. Only
// updated results are journaled; noop, dry-run and failed entries leave no
// trace. Returns nil when nothing was applied, in which case nothing
// should be recorded.
func BuildAction(actionType, command string, results []mutate.Result) *Action {
	var (
		ids     []string
		forward []Entry
		inverse []Entry
	)

	for _, r := range results {
		if r.Status != mutate.StatusUpdated {
			continue
		}
		ids = append(ids, r.ID)

		switch {
		case r.Forward != nil:
			forward = append(forward, Entry{ID: r.ID, Patch: r.Forward})
			inverse = append(inverse, Entry{ID: r.ID, Patch: r.Inverse})
		case r.Snapshot != nil:
			// A deletion: the inverse is recreating from the snapshot.
			forward = append(forward, Entry{ID: r.ID, Delete: true})
			inverse = append(inverse, Entry{ID: r.ID, Restore: r.Snapshot})
		}
	}

	if len(forward) == 0 {
		return nil
	}

	return &Action{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Type:      actionType,
		Payload: Payload{
			Command: command,
			IDs:     ids,
			Forward: forward,
		},
		Inverse: &Inverse{Entries: inverse},
	}
}
