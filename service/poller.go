package service

import (
	"context"
	"strings"
	"time"

	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/store"
)

// pollPageSize is how many sent documents each sweep fetches per store page.
const pollPageSize = 500

// Poller watches sent documents and marks them signed once SignNow reports
// a completed signing session.
type Poller struct {
	store    *store.Store
	signNow  *SignNowService
	archive  *ArchiveService
	interval time.Duration
}

func NewPoller(st *store.Store, signNow *SignNowService, archive *ArchiveService, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		store:    st,
		signNow:  signNow,
		archive:  archive,
		interval: interval,
	}
}

// CheckDocument queries the provider history for one document and promotes
// it to signed when complete. Mock documents are never checked. Returns
// whether the document is now signed.
func (p *Poller) CheckDocument(ctx context.Context, doc *model.Document) (bool, error) {
	if doc.Status == model.StatusSigned {
		return true, nil
	}
	if doc.SignNowDocumentID == "" || strings.HasPrefix(doc.SignNowDocumentID, "MOCK-DOC-") {
		return false, nil
	}
	if !p.signNow.Configured() {
		return false, ErrNotConfigured
	}

	history, err := p.signNow.DocumentHistory(doc.SignNowDocumentID)
	if err != nil {
		return false, err
	}

	if !IsComplete(history) {
		return false, nil
	}

	if _, err := p.store.UpdateDocumentStatus(doc.ID, model.StatusSigned); err != nil {
		return false, err
	}

	p.store.AddSignatureEvent(&model.SignatureEvent{
		DocumentID: doc.ID,
		EventType:  "signnow.completed",
		EventData:  model.JSONMap{"signnow_document_id": doc.SignNowDocumentID},
	})

	if p.archive != nil {
		signed, err := p.signNow.Download(doc.SignNowDocumentID, true)
		if err != nil {
			logger.Warn(ctx, "failed to download signed pdf", "document_id", doc.ID, "error", err)
		} else if _, err := p.archive.ArchiveSigned(ctx, doc.SignNowDocumentID, signed); err != nil {
			logger.Warn(ctx, "failed to archive signed pdf", "document_id", doc.ID, "error", err)
		}
	}

	logger.Info(ctx, "document signed", "document_id", doc.ID, "signnow_id", doc.SignNowDocumentID)
	return true, nil
}

// CheckAllSent walks every sent document sequentially and returns how many
// were checked and how many came back signed. Per-document provider errors
// are logged and skipped so one bad document doesn't stall the sweep.
func (p *Poller) CheckAllSent(ctx context.Context) (checked, signed int, err error) {
	// Collect the whole backlog up front: checking mutates documents out of
	// the sent filter, which would shift later pages under the sweep.
	var docs []model.Document
	for page := 1; ; page++ {
		batch, _, err := p.store.ListDocuments(model.StatusSent, page, pollPageSize)
		if err != nil {
			return 0, 0, err
		}
		docs = append(docs, batch...)
		if len(batch) < pollPageSize {
			break
		}
	}

	for i := range docs {
		select {
		case <-ctx.Done():
			return checked, signed, ctx.Err()
		default:
		}

		checked++
		ok, err := p.CheckDocument(ctx, &docs[i])
		if err != nil {
			if err == ErrNotConfigured {
				return checked, signed, err
			}
			logger.Warn(ctx, "status check failed", "document_id", docs[i].ID, "error", err)
			continue
		}
		if ok {
			signed++
		}
	}

	return checked, signed, nil
}

// Run sweeps sent documents on the configured interval until ctx ends.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checked, signed, err := p.CheckAllSent(ctx)
			if err != nil && err != ErrNotConfigured {
				logger.Error(ctx, "status sweep failed", "error", err)
				continue
			}
			if checked > 0 {
				logger.Info(ctx, "status sweep finished", "checked", checked, "signed", signed)
			}
		}
	}
}
