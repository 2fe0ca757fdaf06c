package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"go.uber.org/zap"
)

type fakeDataClient struct {
	properties []domain.Property
	err        error
	calls      int
}

func (f *fakeDataClient) SearchProperties(ctx context.Context, address string) ([]domain.Property, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.properties, nil
}

func (f *fakeDataClient) MarketData(ctx context.Context, zipCode string) (map[string]any, error) {
	return map[string]any{"zipCode": zipCode}, nil
}

type fakeRepo struct {
	saved   []*domain.SearchRecord
	saveErr error
}

func (f *fakeRepo) Save(ctx context.Context, record *domain.SearchRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, record)
	return nil
}

func (f *fakeRepo) Find(ctx context.Context, userID string, id int64) (*domain.SearchRecord, error) {
	return nil, domain.ErrSearchNotFound
}

func (f *fakeRepo) List(ctx context.Context, userID string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) SearchByTerm(ctx context.Context, userID, term string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Delete(ctx context.Context, userID string, id int64) error { return nil }
func (f *fakeRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}
func (f *fakeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) RetentionBacklog(ctx context.Context, cutoff time.Time) (int64, *time.Time, error) {
	return 0, nil, nil
}

// countingLedger is an in-memory usage ledger with the same gate semantics
// as the relational implementation.
type countingLedger struct {
	counts  map[string]int
	ceiling int
}

func newCountingLedger(ceiling int) *countingLedger {
	return &countingLedger{counts: map[string]int{}, ceiling: ceiling}
}

func (l *countingLedger) Initialize(ctx context.Context, userID, email string) error { return nil }
func (l *countingLedger) Get(ctx context.Context, userID, email string) (int, error) {
	return l.counts[userID], nil
}
func (l *countingLedger) Allow(ctx context.Context, userID, email string) (bool, error) {
	return l.counts[userID] < l.ceiling, nil
}
func (l *countingLedger) Consume(ctx context.Context, userID string) (bool, error) {
	if l.counts[userID] >= l.ceiling {
		return false, nil
	}
	l.counts[userID]++
	return true, nil
}
func (l *countingLedger) Ceiling() int { return l.ceiling }

func newPropertyService(t *testing.T, client domain.DataClient, repo domain.Repository, ledger usagedomain.Service) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewService(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Client:   client,
		Repo:     repo,
		UsageSvc: ledger,
	})
}

func singleProperty() []domain.Property {
	return []domain.Property{{
		FormattedAddress: "1 Main St, Austin, TX 78701",
		City:             "Austin",
		State:            "TX",
		PropertyType:     "Single Family",
		Raw:              map[string]any{"formattedAddress": "1 Main St, Austin, TX 78701"},
	}}
}

func TestSearchConsumesAndSaves(t *testing.T) {
	client := &fakeDataClient{properties: singleProperty()}
	repo := &fakeRepo{}
	ledger := newCountingLedger(30)
	svc := newPropertyService(t, client, repo, ledger)

	outcome, err := svc.Search(context.Background(), "user-1", "a@example.com", "1 Main St")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if outcome.Used != 1 || outcome.Ceiling != 30 {
		t.Fatalf("outcome meter = %d/%d", outcome.Used, outcome.Ceiling)
	}
	if len(repo.saved) != 1 || repo.saved[0].City != "Austin" {
		t.Fatalf("saved = %+v", repo.saved)
	}
	if ledger.counts["user-1"] != 1 {
		t.Fatalf("ledger = %d", ledger.counts["user-1"])
	}
}

func TestSearchAtCeilingNeverTouchesProvider(t *testing.T) {
	client := &fakeDataClient{properties: singleProperty()}
	ledger := newCountingLedger(30)
	svc := newPropertyService(t, client, &fakeRepo{}, ledger)

	for i := 0; i < 30; i++ {
		if _, err := svc.Search(context.Background(), "user-1", "a@example.com", "1 Main St"); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if client.calls != 30 {
		t.Fatalf("expected 30 provider calls, got %d", client.calls)
	}

	_, err := svc.Search(context.Background(), "user-1", "a@example.com", "1 Main St")
	if !errors.Is(err, usagedomain.ErrQuotaExceeded) {
		t.Fatalf("31st call: expected ErrQuotaExceeded, got %v", err)
	}
	if client.calls != 30 {
		t.Fatalf("rejected call must not reach the provider, got %d calls", client.calls)
	}
	if ledger.counts["user-1"] != 30 {
		t.Fatalf("ledger moved past ceiling: %d", ledger.counts["user-1"])
	}
}

func TestSearchFailedFetchDoesNotConsume(t *testing.T) {
	client := &fakeDataClient{err: domain.ErrCollaboratorUnavailable}
	ledger := newCountingLedger(30)
	svc := newPropertyService(t, client, &fakeRepo{}, ledger)

	_, err := svc.Search(context.Background(), "user-1", "a@example.com", "1 Main St")
	if !errors.Is(err, domain.ErrCollaboratorUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if ledger.counts["user-1"] != 0 {
		t.Fatalf("failed fetch must not cost quota, ledger = %d", ledger.counts["user-1"])
	}
}

func TestSearchEmptyResultStillConsumes(t *testing.T) {
	client := &fakeDataClient{properties: nil}
	repo := &fakeRepo{}
	ledger := newCountingLedger(30)
	svc := newPropertyService(t, client, repo, ledger)

	_, err := svc.Search(context.Background(), "user-1", "a@example.com", "nowhere")
	if !errors.Is(err, domain.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if ledger.counts["user-1"] != 1 {
		t.Fatalf("successful empty fetch still costs quota, ledger = %d", ledger.counts["user-1"])
	}
	if len(repo.saved) != 0 {
		t.Fatalf("empty result must not be saved: %+v", repo.saved)
	}
}

func TestSearchHistoryWriteFailureDoesNotFailLookup(t *testing.T) {
	client := &fakeDataClient{properties: singleProperty()}
	repo := &fakeRepo{saveErr: errors.New("disk full")}
	svc := newPropertyService(t, client, repo, newCountingLedger(30))

	if _, err := svc.Search(context.Background(), "user-1", "a@example.com", "1 Main St"); err != nil {
		t.Fatalf("history failure must not surface: %v", err)
	}
}

func TestSearchBlankAddress(t *testing.T) {
	client := &fakeDataClient{properties: singleProperty()}
	ledger := newCountingLedger(30)
	svc := newPropertyService(t, client, &fakeRepo{}, ledger)

	if _, err := svc.Search(context.Background(), "user-1", "a@example.com", "   "); !errors.Is(err, domain.ErrNoResults) {
		t.Fatalf("blank address: %v", err)
	}
	if client.calls != 0 || ledger.counts["user-1"] != 0 {
		t.Fatalf("blank address must be free: calls=%d ledger=%d", client.calls, ledger.counts["user-1"])
	}
}
