package tickets

import (
	"context"
	"log/slog"
	"time"

	"github.com/warelog-erp/warelog-erp/internal/receipt"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	InsertCase(ctx context.Context, record CaseRecord, messages []MessageRecord) error
	ListUndispatched(ctx context.Context, limit int) ([]CaseRecord, error)
	MarkDispatched(ctx context.Context, caseID string) error
}

// Service persists generated cases and feeds the dispatch worker.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the ticket sink.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// OpenCase stores one generated case with its messages. It implements the
// receipt service's ticket port.
func (s *Service) OpenCase(ctx context.Context, c receipt.Case) error {
	record := CaseRecord{
		ID:             c.ID,
		ReceiptBatchID: c.ReceiptBatchID,
		Subject:        c.Subject,
		Priority:       string(c.Priority),
		Status:         string(c.Status),
		CreatedAt:      time.Now().UTC(),
	}
	messages := make([]MessageRecord, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, MessageRecord{
			ID:        m.ID,
			CaseID:    c.ID,
			Kind:      string(m.Kind),
			Author:    m.Author,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	if err := s.repo.InsertCase(ctx, record, messages); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("case opened",
			slog.String("case_id", c.ID),
			slog.String("subject", c.Subject),
			slog.String("priority", string(c.Priority)))
	}
	return nil
}

// ListUndispatched returns cases not yet forwarded to the external system.
func (s *Service) ListUndispatched(ctx context.Context, limit int) ([]CaseRecord, error) {
	return s.repo.ListUndispatched(ctx, limit)
}

// MarkDispatched flags a case as forwarded.
func (s *Service) MarkDispatched(ctx context.Context, caseID string) error {
	return s.repo.MarkDispatched(ctx, caseID)
}
