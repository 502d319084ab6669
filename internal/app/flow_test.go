package app

import (
	"context"
	"errors"
	"testing"

	"github.com/algofomo/retention-service/internal/domain"
	"github.com/algofomo/retention-service/pkg/whopclient"
)

func TestStartFlowDefaultsToTestSentinel(t *testing.T) {
	repo := &fakeRepository{configErr: errors.New("store unavailable")}
	svc := newTestService(repo, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "")
	snap := flow.Snapshot()

	if snap.State != StateReasons {
		t.Fatalf("expected initial state %q, got %q", StateReasons, snap.State)
	}
	if snap.MembershipID != DefaultMembershipID {
		t.Fatalf("expected default membership id, got %q", snap.MembershipID)
	}
	if snap.DiscountPercent != DefaultDiscountPercent {
		t.Fatalf("expected fallback discount on config failure, got %q", snap.DiscountPercent)
	}
}

func TestSelectReasonAdvancesAndLogsAttempt(t *testing.T) {
	repo := &fakeRepository{config: &domain.DiscountConfig{DiscountPercent: "50"}}
	svc := newTestService(repo, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "mem_TEST_1")
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	if got := flow.Snapshot().State; got != StateOffer {
		t.Fatalf("expected state %q after reason selection, got %q", StateOffer, got)
	}
	if len(repo.attempts) != 1 {
		t.Fatalf("expected 1 attempt record, got %d", len(repo.attempts))
	}
	attempt := repo.attempts[0]
	if attempt.Reason != domain.ReasonPrice {
		t.Fatalf("expected reason price, got %q", attempt.Reason)
	}
	if attempt.Status != domain.AttemptStatusViewedOffer {
		t.Fatalf("expected status %q, got %q", domain.AttemptStatusViewedOffer, attempt.Status)
	}
	if attempt.MembershipID != "mem_TEST_1" {
		t.Fatalf("expected membership id on attempt, got %q", attempt.MembershipID)
	}
}

func TestSelectReasonRejectsUnknownReason(t *testing.T) {
	svc := newTestService(&fakeRepository{}, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "")
	if err := flow.SelectReason(context.Background(), "other"); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("expected ErrInvalidReason, got %v", err)
	}
	if got := flow.Snapshot().State; got != StateReasons {
		t.Fatalf("expected flow to stay in %q, got %q", StateReasons, got)
	}
}

func TestSelectReasonIsBestEffort(t *testing.T) {
	repo := &fakeRepository{attemptErr: errors.New("log store unavailable")}
	svc := newTestService(repo, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "")
	if err := flow.SelectReason(context.Background(), domain.ReasonUsage); err != nil {
		t.Fatalf("expected attempt-write failure to be swallowed, got %v", err)
	}
	if got := flow.Snapshot().State; got != StateOffer {
		t.Fatalf("expected transition despite log failure, got state %q", got)
	}
}

func TestFlowIsStrictlyLinear(t *testing.T) {
	svc := newTestService(&fakeRepository{}, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "")

	// Claim is not valid before a reason was selected.
	if _, err := flow.Claim(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for early claim, got %v", err)
	}

	if err := flow.SelectReason(context.Background(), domain.ReasonBreak); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	// No backward transition: a second reason selection is rejected.
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for repeated reason selection, got %v", err)
	}

	if _, err := flow.Claim(context.Background()); err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}

	// Success is terminal.
	if _, err := flow.Claim(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after success, got %v", err)
	}
}

func TestClaimGuardsAgainstDuplicateSubmission(t *testing.T) {
	svc := newTestService(&fakeRepository{}, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "")
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	flow.mu.Lock()
	flow.busy = true
	flow.mu.Unlock()

	if _, err := flow.Claim(context.Background()); !errors.Is(err, ErrActionInFlight) {
		t.Fatalf("expected ErrActionInFlight while a claim is pending, got %v", err)
	}

	flow.mu.Lock()
	flow.busy = false
	flow.mu.Unlock()

	if _, err := flow.Claim(context.Background()); err != nil {
		t.Fatalf("expected claim to succeed once guard released, got %v", err)
	}
}

func TestEndToEndSimulationScenario(t *testing.T) {
	repo := &fakeRepository{config: &domain.DiscountConfig{DiscountPercent: "50"}}
	billing := &fakeBilling{}
	svc := newTestService(repo, billing, "")

	flow := svc.StartFlow(context.Background(), "mem_TEST_1")
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	snap := flow.Snapshot()
	if snap.Offer.DisplayedPrice != 49 || snap.Offer.Savings != 50 {
		t.Fatalf("expected offer price 49 / savings 50, got %d / %d",
			snap.Offer.DisplayedPrice, snap.Offer.Savings)
	}

	result, err := flow.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result.Mode != domain.ModeSimulation {
		t.Fatalf("expected simulation mode, got %q", result.Mode)
	}
	if billing.calls != 0 {
		t.Fatalf("expected no provider calls in simulation, got %d", billing.calls)
	}

	if got := flow.Snapshot().State; got != StateSuccess {
		t.Fatalf("expected terminal state %q, got %q", StateSuccess, got)
	}
	if len(repo.saves) != 1 {
		t.Fatalf("expected 1 save record, got %d", len(repo.saves))
	}
	if repo.saves[0].DiscountApplied != "50" {
		t.Fatalf("expected discount_applied 50, got %q", repo.saves[0].DiscountApplied)
	}
	if repo.saves[0].MembershipID != "mem_TEST_1" {
		t.Fatalf("expected membership id on save record, got %q", repo.saves[0].MembershipID)
	}
}

func TestEndToEndConfigurationErrorScenario(t *testing.T) {
	repo := &fakeRepository{config: &domain.DiscountConfig{DiscountPercent: "50"}}
	billing := &fakeBilling{}
	svc := newTestService(repo, billing, "") // no credential configured

	flow := svc.StartFlow(context.Background(), "mem_live_999")
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	_, err := flow.Claim(context.Background())
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if billing.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", billing.calls)
	}

	snap := flow.Snapshot()
	if snap.State != StateOffer {
		t.Fatalf("expected flow to stay in %q after gateway failure, got %q", StateOffer, snap.State)
	}
	if len(repo.saves) != 0 {
		t.Fatalf("expected no save records on failure, got %d", len(repo.saves))
	}

	// The failure is retryable: the guard must be released.
	if _, err := flow.Claim(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected retry to reach the gateway again, got %v", err)
	}
}

func TestClaimStaysInOfferOnProviderFailure(t *testing.T) {
	providerErr := &whopclient.ErrorResponse{}
	providerErr.Err.Status = 500
	providerErr.Err.Message = "internal provider error"

	repo := &fakeRepository{config: &domain.DiscountConfig{DiscountPercent: "30"}}
	svc := newTestService(repo, &fakeBilling{err: providerErr}, "whop-key")

	flow := svc.StartFlow(context.Background(), "mem_live_42")
	if err := flow.SelectReason(context.Background(), domain.ReasonFeatures); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	if _, err := flow.Claim(context.Background()); !errors.Is(err, ErrRedemptionFailed) {
		t.Fatalf("expected ErrRedemptionFailed, got %v", err)
	}
	if got := flow.Snapshot().State; got != StateOffer {
		t.Fatalf("expected flow to remain in %q, got %q", StateOffer, got)
	}
}

func TestClaimSaveWriteIsBestEffort(t *testing.T) {
	repo := &fakeRepository{
		config:  &domain.DiscountConfig{DiscountPercent: "50"},
		saveErr: errors.New("log store unavailable"),
	}
	svc := newTestService(repo, &fakeBilling{}, "")

	flow := svc.StartFlow(context.Background(), "mem_TEST_9")
	if err := flow.SelectReason(context.Background(), domain.ReasonPrice); err != nil {
		t.Fatalf("SelectReason returned error: %v", err)
	}

	if _, err := flow.Claim(context.Background()); err != nil {
		t.Fatalf("expected save-write failure to be swallowed, got %v", err)
	}
	if got := flow.Snapshot().State; got != StateSuccess {
		t.Fatalf("expected success despite save-log failure, got %q", got)
	}
}

func TestGetFlowUnknownID(t *testing.T) {
	svc := newTestService(&fakeRepository{}, &fakeBilling{}, "")

	if _, err := svc.GetFlow("nope"); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound, got %v", err)
	}

	flow := svc.StartFlow(context.Background(), "")
	got, err := svc.GetFlow(flow.ID)
	if err != nil {
		t.Fatalf("GetFlow returned error: %v", err)
	}
	if got != flow {
		t.Fatal("expected registry to return the started flow")
	}
}
