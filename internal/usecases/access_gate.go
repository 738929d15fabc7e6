package usecases

import (
	"context"
	"fmt"

	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"
	"geoassist/internal/interfaces"

	"github.com/rs/zerolog"
)

// DefaultFreeQuota is the number of prompts an unpaid account may submit.
// The paywall trips once either counter goes past it.
const DefaultFreeQuota = 2

const (
	cardNumberLength   = 16
	securityCodeLength = 3
)

// AccessGate decides, on each interaction, whether the session may submit a
// prompt, must pay, or is logged out. Both the session-local prompt count and
// the persisted usage counter are consulted; either going over the quota trips
// the paywall. The persisted counter is authoritative, so logging out and back
// in does not refresh the quota.
type AccessGate struct {
	store interfaces.AccountStore
	quota int
	log   zerolog.Logger
}

func NewAccessGate(store interfaces.AccountStore, quota int, log zerolog.Logger) *AccessGate {
	if quota <= 0 {
		quota = DefaultFreeQuota
	}
	return &AccessGate{store: store, quota: quota, log: log}
}

// GateStatus is the snapshot the interactive layers render conditionally on.
type GateStatus struct {
	State       entities.GateState `json:"state"`
	Usage       int                `json:"usage"`
	PromptCount int                `json:"prompt_count"`
	PaymentDone bool               `json:"payment_done"`
}

// Submit meters one prompt submission. Both counters are incremented first
// (the store-side increment is conditioned on payment being absent), then the
// quota check runs. ErrQuotaExceeded moves the session to the paywall; the
// crossing increment is kept.
func (g *AccessGate) Submit(ctx context.Context, s *infrastructure.Session) error {
	s.Lock()
	defer s.Unlock()

	switch s.State {
	case entities.StatePaywallPending, entities.StatePaymentForm:
		return entities.ErrQuotaExceeded
	}

	s.PromptCount++
	if err := g.store.IncrementUsage(ctx, s.UserID); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	if s.PaymentMade {
		s.State = entities.StatePostPayment
		return nil
	}
	paid, err := g.store.GetPaymentDone(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("payment status: %w", err)
	}
	if paid {
		// Converge the session flag with the store (e.g. paid from another session).
		s.PaymentMade = true
		s.State = entities.StatePostPayment
		return nil
	}

	usage, err := g.store.GetUsage(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("usage lookup: %w", err)
	}
	if usage > g.quota || s.PromptCount > g.quota {
		s.State = entities.StatePaywallPending
		g.log.Info().Int("user_id", s.UserID).Int("usage", usage).Int("prompt_count", s.PromptCount).Msg("quota exhausted")
		return entities.ErrQuotaExceeded
	}

	s.State = entities.StateActive
	return nil
}

// InitiatePayment opens the payment form from the paywall.
func (g *AccessGate) InitiatePayment(s *infrastructure.Session) error {
	s.Lock()
	defer s.Unlock()

	switch s.State {
	case entities.StatePaywallPending:
		s.State = entities.StatePaymentForm
		return nil
	case entities.StatePaymentForm:
		return nil
	default:
		return entities.ErrPaymentNotRequired
	}
}

// SubmitPayment validates the card form and records the payment. Validation is
// a superficial format check; there is no processor behind it. Accepting a
// payment is idempotent and monotonic: a second valid payment changes nothing.
func (g *AccessGate) SubmitPayment(ctx context.Context, s *infrastructure.Session, username, cardNumber, securityCode string, amount float64) error {
	s.Lock()
	defer s.Unlock()

	if username != s.Username {
		return entities.ErrPaymentUsernameMismatch
	}
	if len(cardNumber) != cardNumberLength || len(securityCode) != securityCodeLength {
		return entities.ErrPaymentInvalidCard
	}

	if err := g.store.SetPaymentDone(ctx, s.UserID); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	s.PaymentMade = true
	s.State = entities.StatePostPayment
	g.log.Info().Int("user_id", s.UserID).Float64("amount", amount).Msg("payment accepted")
	return nil
}

// Logout clears the session-local state. The stored usage counter and payment
// flag are untouched.
func (g *AccessGate) Logout(s *infrastructure.Session) {
	s.Lock()
	defer s.Unlock()

	s.PromptCount = 0
	s.State = entities.StateLoggedOut
}

// Status reads the gate snapshot for conditional rendering.
func (g *AccessGate) Status(ctx context.Context, s *infrastructure.Session) (GateStatus, error) {
	s.Lock()
	defer s.Unlock()

	usage, err := g.store.GetUsage(ctx, s.UserID)
	if err != nil {
		return GateStatus{}, err
	}
	paid, err := g.store.GetPaymentDone(ctx, s.UserID)
	if err != nil {
		return GateStatus{}, err
	}
	return GateStatus{
		State:       s.State,
		Usage:       usage,
		PromptCount: s.PromptCount,
		PaymentDone: paid,
	}, nil
}
