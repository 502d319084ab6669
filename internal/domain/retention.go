/**
 * @description
 * This file defines the core domain models for the retention-service.
 * It includes the records persisted for cancellation attempts and successful
 * saves, the singleton offer configuration, and the result type returned by
 * the redemption gateway.
 */
package domain

import "time"

// CancellationReason is one of the fixed reasons a user can give for leaving.
type CancellationReason string

const (
	ReasonPrice    CancellationReason = "price"
	ReasonUsage    CancellationReason = "usage"
	ReasonFeatures CancellationReason = "features"
	ReasonBreak    CancellationReason = "break"
)

// ValidReason reports whether the given value is one of the fixed reasons.
func ValidReason(r CancellationReason) bool {
	switch r {
	case ReasonPrice, ReasonUsage, ReasonFeatures, ReasonBreak:
		return true
	}
	return false
}

// AttemptStatusViewedOffer is the status written when a user picks a reason
// and is shown the retention offer.
const AttemptStatusViewedOffer = "viewed_offer"

// AttemptRecord is an append-only log entry for a cancellation attempt.
// One record is written per reason-selection event; records are never
// mutated or deleted.
type AttemptRecord struct {
	ID           string             `json:"id"`
	Reason       CancellationReason `json:"reason"`
	MembershipID string             `json:"membership_id"`
	Date         time.Time          `json:"date"`
	Status       string             `json:"status"`
}

// SaveRecord is an append-only log entry written when a user accepts the
// retention offer and the redemption succeeds.
type SaveRecord struct {
	ID              string    `json:"id"`
	MembershipID    string    `json:"membership_id"`
	DiscountApplied string    `json:"discount_applied"`
	Date            time.Time `json:"date"`
}

// DiscountConfig is the singleton offer configuration, edited by the admin
// console. DiscountPercent is a string-encoded integer: any value renders
// in the price math, but only the values in the benefit table map to a
// non-default free-days credit.
type DiscountConfig struct {
	DiscountPercent string    `json:"discount_percent"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RedemptionMode distinguishes the live provider call from the simulated one.
type RedemptionMode string

const (
	ModeLive       RedemptionMode = "live"
	ModeSimulation RedemptionMode = "simulation"
)

// RedemptionResult is the transient outcome of a gateway call. It is never
// persisted; the flow writes a SaveRecord only when Success is true.
type RedemptionResult struct {
	Success bool           `json:"success"`
	Mode    RedemptionMode `json:"mode,omitempty"`
}

// DashboardStats is a DTO for the admin dashboard's aggregate counters.
type DashboardStats struct {
	Attempts         int `json:"attempts"`
	Saves            int `json:"saves"`
	RevenueProtected int `json:"revenue_protected"`
}
