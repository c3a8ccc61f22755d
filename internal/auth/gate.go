// Package auth gates destructive inventory actions behind the shared PIN.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"labstock/pkg/domain"
)

// Gate validates PIN candidates against the store's settings and mediates PIN
// changes. It is stateless: no session survives between calls, so every
// protected operation presents a fresh candidate.
type Gate struct {
	store domain.PersistentStore
}

// NewGate constructs a gate over the given store.
func NewGate(store domain.PersistentStore) *Gate {
	return &Gate{store: store}
}

func pinsEqual(a, b string) bool {
	// Text equality: "9999" and "09999" are different PINs.
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authorize reports whether candidate matches the current stored PIN.
func (g *Gate) Authorize(candidate string) bool {
	return pinsEqual(candidate, g.store.Settings().PIN)
}

// ChangePin replaces the stored PIN. It fails with domain.AuthError when
// current does not match, and with domain.ValidationError when proposed is
// blank or does not match confirmation. No complexity rules are enforced.
func (g *Gate) ChangePin(ctx context.Context, current, proposed, confirmation string) error {
	return g.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateSettings(func(s *domain.Settings) error {
			if !pinsEqual(current, s.PIN) {
				return domain.AuthError{Reason: "incorrect current PIN"}
			}
			if strings.TrimSpace(proposed) == "" {
				return domain.ValidationError{Field: "pin", Reason: "must not be empty"}
			}
			if proposed != confirmation {
				return domain.ValidationError{Field: "pin", Reason: "confirmation does not match"}
			}
			s.PIN = proposed
			return nil
		})
		return err
	})
}
