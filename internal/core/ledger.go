package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLedgerListLimit bounds List when the caller passes no limit.
const DefaultLedgerListLimit = 100

// Ledger records every ingestion attempt.
//
// An entry is written before any player mutation and flipped to processed
// only after the merge succeeds. Removing an entry never touches players.
type Ledger struct {
	store LedgerStore
	now   func() time.Time
}

// NewLedger creates a ledger over store.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Record creates an unprocessed entry and returns its id. content is only
// kept for analysis notes.
func (l *Ledger) Record(ctx context.Context, filename string, fileType FileType, content string) (string, error) {
	if fileType != FileAnalysis {
		content = ""
	}
	u := FileUpload{
		ID:        uuid.NewString(),
		Filename:  filename,
		FileType:  fileType,
		Content:   content,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.InsertUpload(ctx, u); err != nil {
		return "", fmt.Errorf("record upload %s: %w", filename, err)
	}
	return u.ID, nil
}

// MarkProcessed is the single success signal for an entry.
func (l *Ledger) MarkProcessed(ctx context.Context, id string, rows int) error {
	if err := l.store.MarkUploadProcessed(ctx, id, rows, l.now().UTC()); err != nil {
		return fmt.Errorf("mark upload %s processed: %w", id, err)
	}
	return nil
}

// MarkFailed stores the failure reason. The entry stays unprocessed so a
// retry is distinguishable from a success.
func (l *Ledger) MarkFailed(ctx context.Context, id string, cause error) error {
	reason := "unknown error"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	if err := l.store.MarkUploadFailed(ctx, id, reason); err != nil {
		return fmt.Errorf("mark upload %s failed: %w", id, err)
	}
	return nil
}

// Get returns one entry or ErrUploadNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*FileUpload, error) {
	return l.store.GetUpload(ctx, id)
}

// List returns the newest entries first.
func (l *Ledger) List(ctx context.Context, limit int) ([]FileUpload, error) {
	if limit <= 0 {
		limit = DefaultLedgerListLimit
	}
	return l.store.ListUploads(ctx, limit)
}

// Remove deletes the ledger entry only.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	ok, err := l.store.DeleteUpload(ctx, id)
	if err != nil {
		return fmt.Errorf("remove upload %s: %w", id, err)
	}
	if !ok {
		return ErrUploadNotFound
	}
	return nil
}

// Prune deletes processed entries created before now minus retention.
// Unprocessed entries are kept as evidence of failed attempts.
func (l *Ledger) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return l.store.PruneProcessedUploads(ctx, l.now().UTC().Add(-retention))
}
