package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
)

func seedUnclaimed(t *testing.T, storage *fakePropertyStorage, expiresAt time.Time) *domain.ImportedProperty {
	t.Helper()

	token, err := domain.NewClaimToken()
	if err != nil {
		t.Fatalf("failed to generate claim token: %v", err)
	}

	property := &domain.ImportedProperty{
		ID:             uuid.New(),
		ImportSource:   domain.SourceSpreadsheet,
		ImportBatchID:  uuid.New(),
		ClaimToken:     token,
		ClaimExpiresAt: expiresAt,
		ApprovalStatus: domain.ApprovalStatusApproved,
		CreatedAt:      time.Now(),
	}
	storage.put(property)
	return property
}

func TestClaimPropertyHappyPath(t *testing.T) {
	storage := newFakePropertyStorage()
	reporter := &fakeReporter{}
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, reporter)
	claimed, err := uc.Execute(context.Background(), property.ClaimToken, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claimed.ClaimedAt == nil || claimed.ClaimedBy == nil || *claimed.ClaimedBy != "user-1" {
		t.Errorf("claim must record claimant and timestamp: %+v", claimed)
	}
	if !claimed.IsActive || !claimed.ForSale {
		t.Error("claimed property must become active and for sale")
	}
	if claimed.ClaimState(time.Now()) != domain.ClaimStateClaimed {
		t.Errorf("claim state: got %q, want %q", claimed.ClaimState(time.Now()), domain.ClaimStateClaimed)
	}
	if len(reporter.claimed) != 1 {
		t.Errorf("claim events: got %d, want 1", len(reporter.claimed))
	}
}

func TestClaimPropertyExactlyOnceUnderRace(t *testing.T) {
	storage := newFakePropertyStorage()
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, nil)

	const attempts = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), property.ClaimToken, "user-1")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrAlreadyClaimed):
				conflict++
			default:
				t.Errorf("attempt %d: unexpected error %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("exactly one claim must win the race, got %d", wins)
	}
	if conflict != attempts-1 {
		t.Errorf("losers: got %d, want %d", conflict, attempts-1)
	}
}

func TestClaimPropertyExpiredToken(t *testing.T) {
	storage := newFakePropertyStorage()
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, nil)
	// Часы юзкейса сдвинуты за дедлайн, сам объект не тронут.
	uc.now = func() time.Time { return property.ClaimExpiresAt.Add(time.Hour) }

	_, err := uc.Execute(context.Background(), property.ClaimToken, "user-1")
	if !errors.Is(err, domain.ErrClaimExpired) {
		t.Fatalf("expected ErrClaimExpired, got %v", err)
	}

	// Объект остался незабранным
	stored, _ := storage.FindByClaimToken(context.Background(), property.ClaimToken)
	if stored.ClaimedAt != nil {
		t.Error("expired claim attempt must not mutate the property")
	}
}

func TestClaimPropertyExpirationBoundary(t *testing.T) {
	storage := newFakePropertyStorage()
	deadline := time.Now().Add(time.Hour).Truncate(time.Second)
	property := seedUnclaimed(t, storage, deadline)

	uc := NewClaimPropertyUseCase(storage, nil)
	// Ровно в момент дедлайна claim еще допустим.
	uc.now = func() time.Time { return deadline }

	if _, err := uc.Execute(context.Background(), property.ClaimToken, "user-1"); err != nil {
		t.Fatalf("claim exactly at the deadline must succeed, got %v", err)
	}
}

func TestClaimPropertyUnknownToken(t *testing.T) {
	uc := NewClaimPropertyUseCase(newFakePropertyStorage(), nil)

	_, err := uc.Execute(context.Background(), "no-such-token", "user-1")
	if !errors.Is(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimPropertyRequiresClaimant(t *testing.T) {
	storage := newFakePropertyStorage()
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, nil)
	if _, err := uc.Execute(context.Background(), property.ClaimToken, ""); err == nil {
		t.Fatal("expected error for empty claimant id")
	}
}

func TestClaimPropertySecondAttemptConflicts(t *testing.T) {
	storage := newFakePropertyStorage()
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, nil)
	if _, err := uc.Execute(context.Background(), property.ClaimToken, "user-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	_, err := uc.Execute(context.Background(), property.ClaimToken, "user-2")
	if !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	// Первый claim не перезаписан
	stored, _ := storage.FindByClaimToken(context.Background(), property.ClaimToken)
	if stored.ClaimedBy == nil || *stored.ClaimedBy != "user-1" {
		t.Errorf("original claimant must survive the conflict: %v", stored.ClaimedBy)
	}
}

func TestClaimPropertyReporterFailureIsNotFatal(t *testing.T) {
	storage := newFakePropertyStorage()
	reporter := &fakeReporter{err: errors.New("broker unavailable")}
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewClaimPropertyUseCase(storage, reporter)
	if _, err := uc.Execute(context.Background(), property.ClaimToken, "user-1"); err != nil {
		t.Fatalf("reporter failure must not fail the claim: %v", err)
	}
}

func TestLookupClaimDoesNotMutate(t *testing.T) {
	storage := newFakePropertyStorage()
	property := seedUnclaimed(t, storage, time.Now().AddDate(0, 0, 30))

	uc := NewLookupClaimUseCase(storage)
	found, err := uc.Execute(context.Background(), property.ClaimToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ClaimedAt != nil {
		t.Error("lookup must not claim the property")
	}
	if found.ClaimState(time.Now()) != domain.ClaimStateUnclaimedActive {
		t.Errorf("claim state: got %q", found.ClaimState(time.Now()))
	}

	if _, err := uc.Execute(context.Background(), "missing"); !errors.Is(err, domain.ErrClaimNotFound) {
		t.Errorf("expected ErrClaimNotFound for unknown token, got %v", err)
	}
}
