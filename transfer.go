package tierguard

import (
	"context"
	"log/slog"

	"github.com/xraph/tierguard/transfer"
)

const reasonImported = "Imported from file"

// Export writes the explicit permission state of the whole catalog.
func (e *Engine) Export(ctx context.Context) (*transfer.Document, error) {
	m, err := e.Matrix(ctx)
	if err != nil {
		return nil, err
	}
	exportedBy := e.config.ExportedBy
	if a, ok := ActorFromContext(ctx); ok {
		exportedBy = a.ID
	}
	return transfer.Export(m, transfer.Meta{
		Version:    e.config.ExportVersion,
		ExportedBy: exportedBy,
		ExportedAt: e.now(),
	}), nil
}

// PreviewImport decodes an import document and diffs it against the
// current explicit state. Nothing is queued or written. A malformed
// document fails with an error wrapping ErrImportFormat.
func (e *Engine) PreviewImport(ctx context.Context, data []byte) (*transfer.Preview, error) {
	doc, err := transfer.Decode(data)
	if err != nil {
		return nil, err
	}
	m, err := e.Matrix(ctx)
	if err != nil {
		return nil, err
	}
	preview := transfer.BuildPreview(doc, m)
	if e.plugins != nil {
		e.plugins.EmitImportPreviewed(ctx, preview)
	}
	return preview, nil
}

// QueueImport previews an import document and queues every changed entry
// on s for a later commit. Entities missing from the catalog are skipped.
func (e *Engine) QueueImport(ctx context.Context, s *Session, data []byte) (*transfer.Preview, int, error) {
	preview, err := e.PreviewImport(ctx, data)
	if err != nil {
		return nil, 0, err
	}
	queued := 0
	for _, c := range preview.PendingChanges(reasonImported) {
		ok, err := s.QueueChange(ctx, c.Ref(), c.Tier, c.NewPermission, c.Reason)
		if err != nil {
			return preview, queued, err
		}
		if ok {
			queued++
		}
	}
	e.logger.Info("tierguard: import queued",
		slog.String("session_id", s.ID),
		slog.Int("queued", queued),
		slog.Int("unknown", preview.Unknown),
	)
	return preview, queued, nil
}
