// internal/export/exporter.go
//
// PDF pass-through: the recommendation export is streamed to local storage
// untouched. Failures come back as career.ExportError and never affect
// workflow state.

package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
)

// Source streams the binary export for a recommendation.
type Source interface {
	ExportRecommendation(ctx context.Context, recommendationID string) (io.ReadCloser, error)
}

// Exporter downloads recommendation PDFs into a store.
type Exporter struct {
	source Source
	store  *FSStore
	logger *zap.Logger
}

// Option customizes exporter construction.
type Option func(*Exporter)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an exporter writing into store.
func New(source Source, store *FSStore, opts ...Option) (*Exporter, error) {
	if source == nil {
		return nil, fmt.Errorf("export: source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("export: store is required")
	}
	e := &Exporter{source: source, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// FileName is the deterministic name for a recommendation export.
func FileName(recommendationID string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, recommendationID)
	return "career_recommendation_" + safe + ".pdf"
}

// Export downloads the PDF for recommendationID and returns the written path.
// Exporting the same id again overwrites the previous file.
func (e *Exporter) Export(ctx context.Context, recommendationID string) (string, error) {
	id := strings.TrimSpace(recommendationID)
	if id == "" {
		return "", &career.ExportError{Err: fmt.Errorf("recommendation id is required")}
	}
	body, err := e.source.ExportRecommendation(ctx, id)
	if err != nil {
		e.logger.Warn("export download failed", zap.String("recommendation_id", id), zap.Error(err))
		return "", &career.ExportError{RecommendationID: id, Err: err}
	}
	defer body.Close()
	path, size, err := e.store.Put(FileName(id), body)
	if err != nil {
		e.logger.Warn("export write failed", zap.String("recommendation_id", id), zap.Error(err))
		return "", &career.ExportError{RecommendationID: id, Err: err}
	}
	e.logger.Info("recommendation exported",
		zap.String("recommendation_id", id),
		zap.String("path", path),
		zap.Int64("bytes", size))
	return path, nil
}
