/**
 * @description
 * This file implements the retention flow state machine: a strictly linear
 * reasons -> offer -> success progression driven by user actions. Each flow
 * resolves its membership id and discount percentage once at start, writes
 * the attempt and save logs best-effort, and guards its transitions against
 * duplicate submission while a call is in flight.
 */
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/algofomo/retention-service/internal/domain"
)

// FlowState is one of the three states of the retention flow.
type FlowState string

const (
	StateReasons FlowState = "reasons"
	StateOffer   FlowState = "offer"
	StateSuccess FlowState = "success"
)

var (
	// ErrFlowNotFound is returned for unknown flow ids.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrInvalidReason is returned when the selected reason is not in the
	// fixed reason set.
	ErrInvalidReason = errors.New("invalid cancellation reason")

	// ErrInvalidTransition is returned when an action is not valid in the
	// flow's current state. The flow never moves backward.
	ErrInvalidTransition = errors.New("action not valid in current flow state")

	// ErrActionInFlight is returned when a transition is already being
	// processed. This is the submission guard against double-writing logs
	// or double-invoking the billing provider.
	ErrActionInFlight = errors.New("another action is already in flight")
)

// Flow is a single user's pass through the retention widget.
type Flow struct {
	ID string

	mu              sync.Mutex
	state           FlowState
	membershipID    string
	discountPercent string
	selectedReason  domain.CancellationReason
	busy            bool

	svc *Service
}

// FlowSnapshot is a read-only view of a flow, including the computed offer.
type FlowSnapshot struct {
	ID              string                    `json:"id"`
	State           FlowState                 `json:"state"`
	MembershipID    string                    `json:"membership_id"`
	DiscountPercent string                    `json:"discount_percent"`
	SelectedReason  domain.CancellationReason `json:"selected_reason,omitempty"`
	Offer           Offer                     `json:"offer"`
}

// StartFlow creates a new flow in the reasons state. The membership id
// defaults to the test sentinel when absent, and the discount percentage is
// read once from the config store with a silent fallback.
func (s *Service) StartFlow(ctx context.Context, membershipID string) *Flow {
	if membershipID == "" {
		membershipID = DefaultMembershipID
	}

	flow := &Flow{
		ID:              uuid.New().String(),
		state:           StateReasons,
		membershipID:    membershipID,
		discountPercent: s.CurrentDiscount(ctx),
		svc:             s,
	}
	s.flows.add(flow)
	return flow
}

// GetFlow looks up a previously started flow.
func (s *Service) GetFlow(id string) (*Flow, error) {
	flow, ok := s.flows.get(id)
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// SelectReason records why the user is leaving and advances the flow to the
// offer state. The attempt write is best-effort: a log-store failure is
// logged and swallowed, never blocking the transition.
func (f *Flow) SelectReason(ctx context.Context, reason domain.CancellationReason) error {
	f.mu.Lock()
	if f.state != StateReasons {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if !domain.ValidReason(reason) {
		f.mu.Unlock()
		return ErrInvalidReason
	}
	if f.busy {
		f.mu.Unlock()
		return ErrActionInFlight
	}
	f.busy = true
	f.mu.Unlock()

	attempt := &domain.AttemptRecord{
		Reason:       reason,
		MembershipID: f.membershipID,
		Status:       domain.AttemptStatusViewedOffer,
	}
	if err := f.svc.repo.CreateAttempt(ctx, attempt); err != nil {
		f.svc.logger.Warn("failed to record cancellation attempt",
			"membership_id", f.membershipID,
			"reason", reason,
			"error", err,
		)
	}

	f.mu.Lock()
	f.selectedReason = reason
	f.state = StateOffer
	f.busy = false
	f.mu.Unlock()
	return nil
}

// Claim accepts the offer: it invokes the redemption gateway and, on
// success, writes a save record (best-effort) and advances to the success
// state. On gateway failure the flow stays in the offer state with the
// guard released, so the user can retry.
func (f *Flow) Claim(ctx context.Context) (*domain.RedemptionResult, error) {
	f.mu.Lock()
	if f.state != StateOffer {
		f.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if f.busy {
		f.mu.Unlock()
		return nil, ErrActionInFlight
	}
	f.busy = true
	membershipID, discountPercent := f.membershipID, f.discountPercent
	f.mu.Unlock()

	result, err := f.svc.ClaimOffer(ctx, membershipID, discountPercent)
	if err != nil {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
		return nil, err
	}

	save := &domain.SaveRecord{
		MembershipID:    membershipID,
		DiscountApplied: discountPercent,
	}
	if saveErr := f.svc.repo.CreateSave(ctx, save); saveErr != nil {
		f.svc.logger.Warn("failed to record save",
			"membership_id", membershipID,
			"discount_applied", discountPercent,
			"error", saveErr,
		)
	}

	f.mu.Lock()
	f.state = StateSuccess
	f.busy = false
	f.mu.Unlock()
	return result, nil
}

// Snapshot returns a consistent view of the flow for rendering.
func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FlowSnapshot{
		ID:              f.ID,
		State:           f.state,
		MembershipID:    f.membershipID,
		DiscountPercent: f.discountPercent,
		SelectedReason:  f.selectedReason,
		Offer:           ComputeOffer(BasePriceUSD, f.discountPercent),
	}
}

// flowRegistry holds active flows in memory. Flows are single-session and
// are not persisted; abandoning the page simply orphans the entry.
type flowRegistry struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

func newFlowRegistry() *flowRegistry {
	return &flowRegistry{flows: make(map[string]*Flow)}
}

func (r *flowRegistry) add(f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.ID] = f
}

func (r *flowRegistry) get(id string) (*Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flows[id]
	return f, ok
}
