// Package changelogtest provides an in-memory change log for service tests.
package changelogtest

import (
	"context"
	"sync"

	"github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/changelog/service"
)

// Recorder computes diffs like the real service and keeps every dispatched
// entry in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

type Entry struct {
	Ref   domain.EntityRef
	Diffs []domain.FieldDiff
}

func (r *Recorder) RecordChanges(_ context.Context, req domain.RecordRequest) (domain.RecordResult, error) {
	if err := req.Ref.Validate(); err != nil {
		return domain.RecordResult{}, err
	}
	diffs := service.Diff(req.New, req.Original)
	if len(diffs) == 0 {
		return domain.RecordResult{}, nil
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Ref: req.Ref, Diffs: diffs})
	r.mu.Unlock()
	return domain.RecordResult{Diffs: diffs, Dispatched: true}, nil
}

func (r *Recorder) List(context.Context, domain.ListChangeLogRequest) (domain.ListChangeLogResponse, error) {
	return domain.ListChangeLogResponse{}, nil
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
