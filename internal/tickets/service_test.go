package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warelog-erp/warelog-erp/internal/receipt"
)

type memoryCaseRepo struct {
	cases    map[string]CaseRecord
	messages map[string][]MessageRecord
}

func newMemoryCaseRepo() *memoryCaseRepo {
	return &memoryCaseRepo{cases: make(map[string]CaseRecord), messages: make(map[string][]MessageRecord)}
}

func (r *memoryCaseRepo) InsertCase(ctx context.Context, record CaseRecord, messages []MessageRecord) error {
	r.cases[record.ID] = record
	r.messages[record.ID] = messages
	return nil
}

func (r *memoryCaseRepo) ListUndispatched(ctx context.Context, limit int) ([]CaseRecord, error) {
	var out []CaseRecord
	for _, c := range r.cases {
		if !c.Dispatched {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryCaseRepo) MarkDispatched(ctx context.Context, caseID string) error {
	record, ok := r.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	record.Dispatched = true
	r.cases[caseID] = record
	return nil
}

func TestOpenCaseMapsFields(t *testing.T) {
	repo := newMemoryCaseRepo()
	service := NewService(repo, nil)

	err := service.OpenCase(context.Background(), receipt.Case{
		ID:             "case-1",
		ReceiptBatchID: "b-9",
		Subject:        "Qualitätsproblem: Beschädigung – PO-1",
		Priority:       receipt.PriorityHigh,
		Status:         receipt.CaseOpen,
		Messages: []receipt.Message{
			{ID: "m-1", Kind: receipt.MessageSystem, Author: "System", Text: "Automatisch erstellt", Timestamp: time.Now()},
		},
	})
	require.NoError(t, err)

	record := repo.cases["case-1"]
	require.Equal(t, "b-9", record.ReceiptBatchID)
	require.Equal(t, "HIGH", record.Priority)
	require.Equal(t, "OPEN", record.Status)
	require.False(t, record.Dispatched)

	messages := repo.messages["case-1"]
	require.Len(t, messages, 1)
	require.Equal(t, "case-1", messages[0].CaseID)
	require.Equal(t, "SYSTEM", messages[0].Kind)
}

func TestDispatchLifecycle(t *testing.T) {
	repo := newMemoryCaseRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, service.OpenCase(ctx, receipt.Case{ID: "case-1", Priority: receipt.PriorityNormal, Status: receipt.CaseOpen}))

	pending, err := service.ListUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, service.MarkDispatched(ctx, "case-1"))
	pending, err = service.ListUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.ErrorIs(t, service.MarkDispatched(ctx, "missing"), ErrNotFound)
}
