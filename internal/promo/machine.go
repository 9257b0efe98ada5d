package promo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storefront/client/internal/domain"
	"storefront/client/internal/money"

	log "github.com/sirupsen/logrus"
)

// DefaultErrorMessage is shown when the backend rejects a code without a reason.
const DefaultErrorMessage = "Invalid promo code"

var (
	ErrEmptyCode          = errors.New("promo code is empty")
	ErrValidationInFlight = errors.New("promo code validation already in progress")
	ErrNoPromoApplied     = errors.New("no promo code applied")
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateApplied
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validator checks a code against the backend.
type Validator interface {
	ValidatePromoCode(ctx context.Context, req domain.PromoValidationRequest) (*domain.PromoValidation, error)
}

// Machine holds the promo code state of one cart.
type Machine struct {
	validator Validator

	mu      sync.Mutex
	state   State
	input   string
	errMsg  string
	applied *domain.AppliedPromo
}

func NewMachine(validator Validator) *Machine {
	return &Machine{validator: validator}
}

// NormalizeCode trims the code and upper-cases it.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Submit validates rawCode against the current cart. Local rejections (empty code,
// validation already running) return an error without contacting the backend.
// A backend rejection is not returned as an error: it moves the machine to StateFailed.
func (m *Machine) Submit(ctx context.Context, rawCode string, cartTotal int64, items []domain.CartItem, userID string) error {
	code := NormalizeCode(rawCode)
	if code == "" {
		return ErrEmptyCode
	}

	m.mu.Lock()
	if m.state == StateValidating {
		m.mu.Unlock()
		return ErrValidationInFlight
	}
	previous := m.state
	m.state = StateValidating
	m.input = rawCode
	m.errMsg = ""
	m.mu.Unlock()

	if userID == "" {
		userID = domain.AnonymousUser
	}

	result, err := m.validator.ValidatePromoCode(ctx, domain.PromoValidationRequest{
		Code:      code,
		CartTotal: cartTotal,
		CartItems: items,
		UserID:    userID,
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil && result == nil {
		err = errors.New("empty validation response")
	}
	if err != nil {
		m.errMsg = rejectionMessage(err)
		log.Debugf("Promo code %s rejected: %v", code, err)

		// A failed replacement keeps the promo that was already applied.
		if previous == StateApplied {
			m.state = StateApplied
		} else {
			m.state = StateFailed
		}
		return nil
	}

	appliedCode := result.Code
	if appliedCode == "" {
		appliedCode = code
	}
	m.applied = &domain.AppliedPromo{
		Code:           appliedCode,
		Message:        result.Message,
		DiscountAmount: min(money.NonNegative(result.DiscountAmount), money.NonNegative(cartTotal)),
		ValidatedTotal: cartTotal,
	}
	m.state = StateApplied
	m.input = ""
	log.Infof("🏷️ Promo code %s applied: %d off", appliedCode, m.applied.DiscountAmount)
	return nil
}

// Remove discards the applied promo. It never contacts the backend.
func (m *Machine) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateApplied {
		return ErrNoPromoApplied
	}
	m.applied = nil
	m.errMsg = ""
	m.state = StateIdle
	return nil
}

// Clear drops the typed code and any error message. The applied promo, if any, stays.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateValidating {
		return
	}
	m.input = ""
	m.errMsg = ""
	if m.state == StateFailed {
		m.state = StateIdle
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Applied returns a copy of the applied promo, or nil.
func (m *Machine) Applied() *domain.AppliedPromo {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applied == nil {
		return nil
	}
	applied := *m.applied
	return &applied
}

// Input is the code as typed by the user, kept after a failed validation.
func (m *Machine) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input
}

// Error is the message of the last failed validation.
func (m *Machine) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// DiscountedTotal applies the promo to cartTotal; the result is never negative.
func (m *Machine) DiscountedTotal(cartTotal int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applied == nil {
		return cartTotal
	}
	return money.NonNegative(cartTotal - m.applied.DiscountAmount)
}

// Stale reports whether the promo was validated against another cart total.
// Nothing re-validates automatically; the caller decides what to do.
func (m *Machine) Stale(cartTotal int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied != nil && m.applied.ValidatedTotal != cartTotal
}

type reasoner interface {
	Reason() string
}

func rejectionMessage(err error) string {
	var r reasoner
	if errors.As(err, &r) && strings.TrimSpace(r.Reason()) != "" {
		return r.Reason()
	}
	return DefaultErrorMessage
}
