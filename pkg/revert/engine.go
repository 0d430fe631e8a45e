// Package revert replays the inverse entries of a journaled action and
// journals that reversal as a new action, so a revert can itself be
// reverted.
package revert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jameskraus/nab/pkg/journal"
	"github.com/jameskraus/nab/pkg/mutate"
	"github.com/jameskraus/nab/pkg/ynab"
)

// Options control revert execution.
type Options struct {
	DryRun bool
}

// Outcome reports what a revert did.
type Outcome struct {
	// Results holds one entry per inverse entry processed, in stored
	// order. For restored deletions the result id is the new id.
	Results []mutate.Result

	// Remap maps original transaction ids to the new ids assigned when a
	// deletion was restored. Callers displaying ids afterwards must apply
	// this remap.
	Remap map[string]string

	// Action is the journal row recording the revert; nil for dry runs
	// and when nothing was applied.
	Action *journal.Action
}

// Engine replays inverse patches through the mutation service and client.
type Engine struct {
	store  *journal.Store
	svc    *mutate.Service
	api    mutate.API
	logger *slog.Logger
}

// New creates a revert engine.
func New(store *journal.Store, svc *mutate.Service, api mutate.API, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, svc: svc, api: api, logger: logger}
}

// Revert undoes a journaled action by replaying its inverse entries in
// stored order (the original forward-apply order, deliberately not
// reversed). Entries fail independently; the new journal row records only
// what was actually changed, with inverse values recomputed from current
// state so the revert can be reverted even if records changed in the
// interim. The original journal row is never touched.
func (e *Engine) Revert(ctx context.Context, actionID string, opts Options) (*Outcome, error) {
	action, err := e.store.Get(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.Inverse == nil || len(action.Inverse.Entries) == 0 {
		return nil, fmt.Errorf("action %s has no inverse to apply", actionID)
	}

	out := &Outcome{Remap: make(map[string]string)}
	var (
		ids     []string
		forward []journal.Entry
		inverse []journal.Entry
	)

	record := func(r mutate.Result, fwd, inv journal.Entry) {
		out.Results = append(out.Results, r)
		if r.Status != mutate.StatusUpdated {
			return
		}
		ids = append(ids, fwd.ID)
		forward = append(forward, fwd)
		inverse = append(inverse, inv)
	}

	abort := func(cause error) (*Outcome, error) {
		// Journal the successful subset before surfacing the abort, so
		// partial reverts remain undoable.
		if err := e.persist(ctx, actionID, ids, forward, inverse, out); err != nil {
			e.logger.Error("failed to journal partial revert", "action", actionID, "error", err)
		}
		return out, cause
	}

	for _, entry := range action.Inverse.Entries {
		switch {
		case entry.Patch != nil:
			results, err := e.svc.ApplyPatch(ctx, []string{entry.ID}, *entry.Patch, mutate.Options(opts))
			if err != nil {
				return abort(err)
			}
			r := results[0]
			record(r,
				journal.Entry{ID: r.ID, Patch: r.Forward},
				journal.Entry{ID: r.ID, Patch: r.Inverse},
			)

		case entry.Restore != nil:
			r, err := e.restore(ctx, entry, opts, out.Remap)
			if err != nil {
				return abort(err)
			}
			record(r,
				journal.Entry{ID: r.ID, Restore: entry.Restore},
				journal.Entry{ID: r.ID, Delete: true},
			)

		case entry.Delete:
			results, err := e.svc.Delete(ctx, []string{entry.ID}, mutate.Options(opts))
			if err != nil {
				return abort(err)
			}
			r := results[0]
			record(r,
				journal.Entry{ID: r.ID, Delete: true},
				journal.Entry{ID: r.ID, Restore: r.Snapshot},
			)

		default:
			return abort(fmt.Errorf("action %s has a malformed inverse entry for id %s", actionID, entry.ID))
		}
	}

	if opts.DryRun {
		return out, nil
	}
	if err := e.persist(ctx, actionID, ids, forward, inverse, out); err != nil {
		return out, err
	}
	return out, nil
}

// restore recreates a deleted transaction from its snapshot. The remote
// service assigns a fresh id; the original one is recorded in the remap.
func (e *Engine) restore(ctx context.Context, entry journal.Entry, opts Options, remap map[string]string) (mutate.Result, error) {
	if opts.DryRun {
		return mutate.Result{ID: entry.ID, Status: mutate.StatusDryRun, Snapshot: entry.Restore}, nil
	}

	created, err := e.api.CreateTransaction(ctx, *entry.Restore)
	if err != nil {
		if errors.Is(err, ynab.ErrPoolExhausted) {
			return mutate.Result{}, err
		}
		e.logger.Warn("restore failed", "id", entry.ID, "error", err)
		return mutate.Result{ID: entry.ID, Status: mutate.StatusFailed, Err: err}, nil
	}

	remap[entry.ID] = created.ID
	e.logger.Info("transaction restored", "original_id", entry.ID, "new_id", created.ID)
	return mutate.Result{ID: created.ID, Status: mutate.StatusUpdated, Snapshot: entry.Restore}, nil
}

// persist journals what the revert actually changed. A revert that changed
// nothing leaves no row.
func (e *Engine) persist(ctx context.Context, actionID string, ids []string, forward, inverse []journal.Entry, out *Outcome) error {
	if len(forward) == 0 || out.Action != nil {
		return nil
	}

	action := &journal.Action{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Type:      journal.ActionRevert,
		Payload: journal.Payload{
			Command: "undo " + actionID,
			IDs:     ids,
			Forward: forward,
			Reverts: actionID,
		},
		Inverse: &journal.Inverse{Entries: inverse},
	}

	if err := e.store.Record(ctx, action); err != nil {
		return fmt.Errorf("failed to journal revert: %w", err)
	}
	out.Action = action
	return nil
}
