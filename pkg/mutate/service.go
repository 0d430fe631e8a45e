// Package mutate computes and applies minimal, idempotent patches against
// remote transactions and derives the exact inverse of each applied patch.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jameskraus/nab/pkg/ynab"
)

// ErrValidation marks malformed input that must never reach the API.
var ErrValidation = errors.New("validation error")

// API is the client surface the mutation service depends on.
type API interface {
	GetTransaction(ctx context.Context, id string) (*ynab.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch ynab.Patch) (*ynab.Transaction, error)
	CreateTransaction(ctx context.Context, tx ynab.SaveTransaction) (*ynab.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) (*ynab.Transaction, error)
}

// Status classifies the outcome of one requested mutation.
type Status string

const (
	// StatusNoop: the current value already matched the desired patch.
	StatusNoop Status = "noop"
	// StatusDryRun: would apply, not executed.
	StatusDryRun Status = "dry_run"
	// StatusUpdated: applied; Forward and Inverse are set.
	StatusUpdated Status = "updated"
	// StatusFailed: this id failed; the batch continued.
	StatusFailed Status = "failed"
)

// Result is the outcome for one requested transaction id.
type Result struct {
	ID     string
	Status Status

	// Forward is the effective patch that was (or would be) sent.
	Forward *ynab.Patch
	// Inverse restores the pre-update values; set when Status is updated.
	Inverse *ynab.Patch
	// Snapshot is the pre-delete state for deletions: the inverse of a
	// delete is recreating from this snapshot.
	Snapshot *ynab.SaveTransaction

	Err error
}

// Options control mutation execution.
type Options struct {
	DryRun bool
}

// Service applies patches through the multi-credential client.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService creates a mutation service.
func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}

// ApplyPatch applies the desired patch to each id in turn. Ids are
// processed sequentially and results preserve input order. A failure on
// one id is recorded in its result and does not abort the batch; pool
// exhaustion and validation errors abort the whole call.
func (s *Service) ApplyPatch(ctx context.Context, ids []string, patch ynab.Patch, opts Options) ([]Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no transaction ids given", ErrValidation)
	}
	if patch.IsZero() {
		return nil, fmt.Errorf("%w: patch changes nothing", ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		result, err := s.applyOne(ctx, id, patch, opts)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) applyOne(ctx context.Context, id string, patch ynab.Patch, opts Options) (Result, error) {
	current, err := s.api.GetTransaction(ctx, id)
	if err != nil {
		return s.failure(id, err)
	}

	effective := EffectivePatch(patch, current)
	if effective.IsZero() {
		s.logger.Debug("patch is a no-op", "id", id)
		return Result{ID: id, Status: StatusNoop}, nil
	}

	if opts.DryRun {
		return Result{ID: id, Status: StatusDryRun, Forward: &effective}, nil
	}

	inverse := InversePatch(effective, current)
	if _, err := s.api.UpdateTransaction(ctx, id, effective); err != nil {
		return s.failure(id, err)
	}

	s.logger.Info("transaction updated", "id", id, "fields", effective.FieldNames())
	return Result{ID: id, Status: StatusUpdated, Forward: &effective, Inverse: &inverse}, nil
}

// Delete deletes each id in turn. The inverse of a deletion is a full
// snapshot of the transaction as it existed immediately before: enough to
// recreate an equivalent one (under a new id) on revert.
func (s *Service) Delete(ctx context.Context, ids []string, opts Options) ([]Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no transaction ids given", ErrValidation)
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		result, err := s.deleteOne(ctx, id, opts)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) deleteOne(ctx context.Context, id string, opts Options) (Result, error) {
	current, err := s.api.GetTransaction(ctx, id)
	if err != nil {
		return s.failure(id, err)
	}

	snapshot := ynab.Snapshot(current)
	if opts.DryRun {
		return Result{ID: id, Status: StatusDryRun, Snapshot: &snapshot}, nil
	}

	if _, err := s.api.DeleteTransaction(ctx, id); err != nil {
		return s.failure(id, err)
	}

	s.logger.Info("transaction deleted", "id", id)
	return Result{ID: id, Status: StatusUpdated, Snapshot: &snapshot}, nil
}

// failure wraps a per-id error into a failed result, except for
// pool-level errors which abort the whole batch.
func (s *Service) failure(id string, err error) (Result, error) {
	if errors.Is(err, ynab.ErrPoolExhausted) {
		return Result{}, err
	}
	s.logger.Warn("mutation failed", "id", id, "error", err)
	return Result{ID: id, Status: StatusFailed, Err: err}, nil
}
