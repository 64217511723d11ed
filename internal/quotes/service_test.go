package quotes

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	quotes   map[int64]Quote
	nextID   int64
	applyErr error
	applied  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{quotes: map[int64]Quote{}, nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, q Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	m.quotes[id] = q
	return id, nil
}

func (m *mockRepo) Update(ctx context.Context, q Quote) error {
	if _, ok := m.quotes[q.ID]; !ok {
		return ErrNotFound
	}
	m.quotes[q.ID] = q
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := q
	return &copied, nil
}

func (m *mockRepo) GetBySlug(ctx context.Context, slug string) (*Quote, error) {
	for _, q := range m.quotes {
		if q.Slug == slug {
			copied := q
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		out = append(out, q)
	}
	return out, len(out), nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.quotes[id]; !ok {
		return ErrNotFound
	}
	delete(m.quotes, id)
	return nil
}

func (m *mockRepo) ApplyDecision(ctx context.Context, q Quote) error {
	m.applied++
	if m.applyErr != nil {
		return m.applyErr
	}
	m.quotes[q.ID] = q
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) EnqueueSendEmail(ctx context.Context, to, subject, htmlBody string) error {
	f.sent = append(f.sent, to)
	return nil
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, notifier, nil, nil, slog.Default(), ServiceConfig{
		OwnerEmail:    "owner@example.com",
		PublicBaseURL: "http://localhost:8080",
	})
}

func saveRequest() SaveQuoteRequest {
	return SaveQuoteRequest{
		ClientName:    "Alex Rivers",
		ClientEmail:   "alex@example.com",
		InvoiceType:   "Quote",
		EventTitle:    "Audition Preparation",
		EventDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EventLocation: "Studio",
		CompulsoryItems: []LineItemPayload{
			{Name: "Coaching", UnitPrice: 450, Quantity: 1, ShowQuantity: true, ShowRate: true},
		},
		AddOns: []LineItemPayload{
			{ID: "addon-1", Name: "Extra session", UnitPrice: 120, Quantity: 0},
		},
		DepositPercentage: 50,
	}
}

func TestSaveDraftPersistsWithSlug(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	q, err := svc.SaveDraft(context.Background(), saveRequest())
	require.NoError(t, err)

	assert.Equal(t, QuoteStatusDraft, q.Status)
	assert.NotEmpty(t, q.Slug)
	assert.InDelta(t, 450.0, q.TotalAmount, 0.001)
	assert.Len(t, q.Details.Versions, 1)
}

func TestSaveDraftRejectsInvalidPayload(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	req := saveRequest()
	req.ClientEmail = "nope"

	_, err := svc.SaveDraft(context.Background(), req)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "clientEmail")
	assert.Empty(t, repo.quotes)
}

func TestUpdateDraftLockedAfterDecision(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	q, err := svc.SaveDraft(context.Background(), saveRequest())
	require.NoError(t, err)

	stored := repo.quotes[q.ID]
	require.NoError(t, stored.Accept(time.Now(), "", ""))
	repo.quotes[q.ID] = stored

	_, err = svc.UpdateDraft(context.Background(), q.ID, saveRequest())
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestSendNotifiesClient(t *testing.T) {
	repo := newMockRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	q, err := svc.CreateAndSend(context.Background(), saveRequest())
	require.NoError(t, err)

	assert.Equal(t, QuoteStatusSent, q.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "alex@example.com", notifier.sent[0])
}

func TestGetBySlugHidesDrafts(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	q, err := svc.SaveDraft(context.Background(), saveRequest())
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), q.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptAppliesSelectionsAndNotifies(t *testing.T) {
	repo := newMockRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	q, err := svc.CreateAndSend(context.Background(), saveRequest())
	require.NoError(t, err)
	notifier.sent = nil

	decided, err := svc.Accept(context.Background(), q.Slug, DecisionRequest{
		ClientName:  "Alex Rivers",
		ClientEmail: "alex@example.com",
		FinalSelectedAddOns: []AddOnSelection{
			{ID: "addon-1", Quantity: 1},
			{ID: "unknown", Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, DecisionAccepted, decided.Decision())
	// Selected add-on is priced in; unknown ids are ignored.
	assert.InDelta(t, 570.0, decided.TotalAmount, 0.001)
	// Owner and client both hear about it.
	assert.ElementsMatch(t, []string{"owner@example.com", "alex@example.com"}, notifier.sent)
}

func TestAcceptRaceLosesToWriteGuard(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	q, err := svc.CreateAndSend(context.Background(), saveRequest())
	require.NoError(t, err)

	repo.applyErr = ErrAlreadyDecided
	_, err = svc.Reject(context.Background(), q.Slug, DecisionRequest{
		ClientName: "Alex", ClientEmail: "alex@example.com",
	})
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, 1, repo.applied)
}

func TestNewVersionReopensDecidedQuote(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	q, err := svc.CreateAndSend(context.Background(), saveRequest())
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), q.Slug, DecisionRequest{
		ClientName: "Alex", ClientEmail: "alex@example.com",
	})
	require.NoError(t, err)

	reopened, err := svc.NewVersion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, DecisionPending, reopened.Decision())
	assert.Len(t, reopened.Details.Versions, 2)
}
