/**
 * @description
 * This file contains the core business logic for the retention-service.
 * The Service layer owns the redemption gateway (simulation vs. live Whop
 * call), the config-backed discount resolution, and the admin dashboard
 * reads, orchestrating data from the repository and the billing client.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/algofomo/retention-service/internal/domain"
	"github.com/algofomo/retention-service/pkg/whopclient"
)

// Repository defines the interface for database operations that the service needs.
type Repository interface {
	GetDiscountConfig(ctx context.Context) (*domain.DiscountConfig, error)
	UpsertDiscountConfig(ctx context.Context, discountPercent string) (*domain.DiscountConfig, error)
	CreateAttempt(ctx context.Context, attempt *domain.AttemptRecord) error
	CreateSave(ctx context.Context, save *domain.SaveRecord) error
	GetRecentAttempts(ctx context.Context, limit int) ([]domain.AttemptRecord, error)
	CountAttempts(ctx context.Context) (int, error)
	CountSaves(ctx context.Context) (int, error)
}

// BillingClient is the outbound surface of the billing provider used by the
// redemption gateway.
type BillingClient interface {
	AddFreeDays(ctx context.Context, membershipID string, days int) (*whopclient.AddFreeDaysResponse, error)
}

const (
	// TestMembershipPrefix routes a membership to simulation mode. This is
	// a hard rule: test memberships never reach the live provider.
	TestMembershipPrefix = "mem_TEST"

	// DefaultMembershipID is used when the caller supplies no membership id.
	DefaultMembershipID = "mem_TEST_12345"

	// DefaultDiscountPercent is the fallback when the config row is missing
	// or unreadable.
	DefaultDiscountPercent = "30"

	// recentAttemptsLimit caps the admin dashboard's activity feed.
	recentAttemptsLimit = 20
)

var (
	// ErrMissingCredential signals that the live redemption path was taken
	// without a configured Whop API key. This is a deployment problem, not
	// something the end user can retry their way out of.
	ErrMissingCredential = errors.New("whop api key is not configured")

	// ErrRedemptionFailed is the generic failure surfaced to callers when
	// the provider rejects the call or the call itself fails. Provider
	// details are logged server-side only.
	ErrRedemptionFailed = errors.New("failed to apply discount")

	// ErrInvalidDiscount is returned for admin config writes that are not
	// a non-negative integer percentage.
	ErrInvalidDiscount = errors.New("discount percent must be a non-negative integer")
)

// Service provides the business logic for offer redemption and the admin
// console.
type Service struct {
	repo    Repository
	billing BillingClient
	apiKey  string
	logger  *slog.Logger

	// simulationDelay mimics provider latency on the simulated path.
	simulationDelay time.Duration

	flows *flowRegistry
}

// NewService creates a new retention service.
func NewService(repo Repository, billing BillingClient, apiKey string, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		billing:         billing,
		apiKey:          apiKey,
		logger:          logger,
		simulationDelay: time.Second,
		flows:           newFlowRegistry(),
	}
}

// SetSimulationDelay overrides the simulated provider latency. Tests use
// this to avoid real sleeps.
func (s *Service) SetSimulationDelay(d time.Duration) {
	s.simulationDelay = d
}

// ClaimOffer is the redemption gateway. The decision order is fixed: the
// simulation check precedes the credential check so the flow stays testable
// without live credentials.
func (s *Service) ClaimOffer(ctx context.Context, membershipID, discountPercent string) (*domain.RedemptionResult, error) {
	if membershipID == "" || strings.HasPrefix(membershipID, TestMembershipPrefix) {
		s.logger.Info("simulation: applying retention save",
			"membership_id", membershipID,
			"discount_percent", discountPercent,
		)
		select {
		case <-time.After(s.simulationDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &domain.RedemptionResult{Success: true, Mode: domain.ModeSimulation}, nil
	}

	if s.apiKey == "" {
		s.logger.Error("CRITICAL: WHOP_API_KEY is missing; cannot perform live redemption")
		return nil, ErrMissingCredential
	}

	days := BenefitDays(discountPercent)

	// Single attempt, fail closed. No retry.
	if _, err := s.billing.AddFreeDays(ctx, membershipID, days); err != nil {
		s.logger.Error("whop redemption failed",
			"membership_id", membershipID,
			"days", days,
			"error", err,
		)
		return nil, ErrRedemptionFailed
	}

	return &domain.RedemptionResult{Success: true, Mode: domain.ModeLive}, nil
}

// CurrentDiscount resolves the configured discount percentage, falling back
// to the default when the config row is missing or the read fails. The
// fallback never blocks the flow from starting.
func (s *Service) CurrentDiscount(ctx context.Context) string {
	cfg, err := s.repo.GetDiscountConfig(ctx)
	if err != nil {
		s.logger.Warn("discount config unavailable, using default",
			"default", DefaultDiscountPercent,
			"error", err,
		)
		return DefaultDiscountPercent
	}
	if cfg.DiscountPercent == "" {
		return DefaultDiscountPercent
	}
	return cfg.DiscountPercent
}

// Dashboard aggregates everything the admin console renders.
type Dashboard struct {
	Config         *domain.DiscountConfig `json:"config"`
	RecentAttempts []domain.AttemptRecord `json:"recent_attempts"`
	Stats          domain.DashboardStats  `json:"stats"`
}

// GetDashboard returns the current config, the most recent attempts, and
// the aggregate counters for the admin console.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	cfg, err := s.repo.GetDiscountConfig(ctx)
	if err != nil {
		// A never-written config renders as the default.
		cfg = &domain.DiscountConfig{DiscountPercent: DefaultDiscountPercent}
	}

	attempts, err := s.repo.GetRecentAttempts(ctx, recentAttemptsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attempts: %w", err)
	}

	attemptCount, err := s.repo.CountAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	saveCount, err := s.repo.CountSaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count saves: %w", err)
	}

	return &Dashboard{
		Config:         cfg,
		RecentAttempts: attempts,
		Stats: domain.DashboardStats{
			Attempts:         attemptCount,
			Saves:            saveCount,
			RevenueProtected: attemptCount * BasePriceUSD,
		},
	}, nil
}

// UpdateDiscount validates and merge-writes the offer configuration.
func (s *Service) UpdateDiscount(ctx context.Context, discountPercent string) (*domain.DiscountConfig, error) {
	pct, err := strconv.Atoi(discountPercent)
	if err != nil || pct < 0 {
		return nil, ErrInvalidDiscount
	}
	return s.repo.UpsertDiscountConfig(ctx, discountPercent)
}
