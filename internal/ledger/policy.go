/**
 * @description
 * Daily spending-limit policy. Each tier maps to a maximum cumulative outgoing-transfer
 * amount per calendar day. Only outbound transfers count against the cap: deposits,
 * withdrawals, and bill payments do not. That asymmetry is a product rule, not an
 * oversight.
 *
 * Evaluation is read-only. When the account's last activity date is stale the usage is
 * treated as zero for the check, but nothing is persisted here; the engine folds the
 * reset into the committed state only when the transfer actually proceeds.
 */

package ledger

import "github.com/zenithpay/ledger-service/internal/domain"

// LimitTable maps a tier to its daily outgoing-transfer cap in kobo.
type LimitTable map[domain.Tier]int64

// DefaultLimits mirrors the product's standard tier caps.
func DefaultLimits() LimitTable {
	return LimitTable{
		domain.Tier1: 5_000_000,   // 50,000.00
		domain.Tier2: 20_000_000,  // 200,000.00
		domain.Tier3: 500_000_000, // 5,000,000.00
	}
}

// DailyLimitPolicy evaluates proposed outbound transfers against the tier table.
type DailyLimitPolicy struct {
	limits LimitTable
}

// NewDailyLimitPolicy builds a policy from the given table; nil means DefaultLimits.
func NewDailyLimitPolicy(limits LimitTable) *DailyLimitPolicy {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &DailyLimitPolicy{limits: limits}
}

// Evaluation is the outcome of a limit check.
type Evaluation struct {
	Allowed   bool
	Limit     int64 // effective cap for the account's tier
	UsedToday int64 // usage counted for today, after any conceptual day rollover
}

// LimitFor returns the cap for a tier, falling back to the Tier 1 cap for unknown tiers
// so a malformed record fails closed rather than open.
func (p *DailyLimitPolicy) LimitFor(tier domain.Tier) int64 {
	if limit, ok := p.limits[tier]; ok {
		return limit
	}
	return p.limits[domain.Tier1]
}

// Evaluate reports whether the proposed amount fits in the account's remaining daily
// allowance for the given calendar day.
func (p *DailyLimitPolicy) Evaluate(acct *domain.Account, amount int64, today string) Evaluation {
	used := acct.DailyUsed
	if acct.LastActivityDate != today {
		used = 0
	}
	limit := p.LimitFor(acct.Tier)
	return Evaluation{
		Allowed:   used+amount <= limit,
		Limit:     limit,
		UsedToday: used,
	}
}
