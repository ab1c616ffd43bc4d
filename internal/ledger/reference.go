/**
 * @description
 * Identifier generation for the ledger: globally unique transaction references and
 * 10-digit account numbers. Random sampling alone cannot guarantee uniqueness, so every
 * candidate is checked against the store and regenerated on collision; a collision that
 * somehow survives generation is still caught by the store at commit time.
 */

package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/zenithpay/ledger-service/internal/store"
)

const (
	referenceLow  = 1_000_000_000
	referenceHigh = 9_999_999_999

	// Account numbers keep the 2xxxxxxxxx range customers already hold.
	accountNumberLow  = 2_000_000_000
	accountNumberHigh = 2_999_999_999

	generationAttempts = 10
)

// ReferenceGenerator produces unique identifiers, consulting the store before
// accepting any candidate.
type ReferenceGenerator struct {
	store store.Store
}

func NewReferenceGenerator(s store.Store) *ReferenceGenerator {
	return &ReferenceGenerator{store: s}
}

// NextReference returns a fresh "REF" + 10-digit transaction reference not yet issued
// by the system.
func (g *ReferenceGenerator) NextReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < generationAttempts; attempt++ {
		n, err := randomInRange(referenceLow, referenceHigh)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		ref := fmt.Sprintf("REF%d", n)
		exists, err := g.store.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference uniqueness: %w", err)
		}
		if !exists {
			return ref, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique reference after %d attempts", generationAttempts)
}

// NextAccountNumber returns a fresh 10-digit account number not assigned to any account.
func (g *ReferenceGenerator) NextAccountNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < generationAttempts; attempt++ {
		n, err := randomInRange(accountNumberLow, accountNumberHigh)
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		number := fmt.Sprintf("%d", n)
		exists, err := g.store.AccountNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check account number uniqueness: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique account number after %d attempts", generationAttempts)
}

func randomInRange(low, high int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(high-low+1))
	if err != nil {
		return 0, err
	}
	return low + n.Int64(), nil
}
