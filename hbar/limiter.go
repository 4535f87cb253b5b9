package hbar

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hashgraph/json-rpc-relay-go/cache"
	"github.com/hashgraph/json-rpc-relay-go/metrics"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/utils"

	"cosmossdk.io/log"
)

const (
	limiterCaller = "hbarLimiter"
	globalPlanID  = "global"
)

// Budget carries the per-tier caps in tinybar and the reset window. A nil
// or zero Global cap disables the limiter entirely.
type Budget struct {
	Basic      *big.Int
	Extended   *big.Int
	Privileged *big.Int
	Global     *big.Int
	// DisallowedModes lists execution modes a tier may not spend on.
	DisallowedModes map[Tier][]string
	ResetDuration   time.Duration
}

// Enabled reports whether the budget enforces anything.
func (b Budget) Enabled() bool {
	return b.Global != nil && b.Global.Sign() > 0
}

func (b Budget) tierCap(tier Tier) *big.Int {
	switch tier {
	case TierExtended:
		return b.Extended
	case TierPrivileged:
		return b.Privileged
	default:
		return b.Basic
	}
}

// historyEntry is one recorded expense.
type historyEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Amount        string    `json:"amount"`
	TxConstructor string    `json:"txConstructor"`
}

// Limiter enforces the HBAR spending budget. Every consensus submission
// consults ShouldLimit first and reports AddExpense once the fee is known.
type Limiter struct {
	mtx           sync.Mutex
	cache         cache.Service
	registry      *Registry
	budget        Budget
	resetDeadline time.Time
	logger        log.Logger
}

// NewLimiter builds a limiter over the shared cache and plan registry.
func NewLimiter(c cache.Service, registry *Registry, budget Budget, logger log.Logger) *Limiter {
	if budget.ResetDuration <= 0 {
		budget.ResetDuration = 24 * time.Hour
	}
	return &Limiter{
		cache:         c,
		registry:      registry,
		budget:        budget,
		resetDeadline: time.Now().Add(budget.ResetDuration),
		logger:        logger.With(log.ModuleKey, "hbar_limiter"),
	}
}

// resolvePlan finds the caller's plan by sender address first, client IP
// second. Unmatched callers spend from the shared BASIC budget.
func (l *Limiter) resolvePlan(ctx context.Context, sender common.Address, rc rpctypes.RequestContext) (string, Tier) {
	if !utils.IsZeroAddress(sender) {
		if plan, ok := l.registry.LookupByEVMAddress(ctx, sender.Hex()); ok {
			return plan.ID, plan.Tier
		}
	}
	if plan, ok := l.registry.LookupByIP(ctx, rc.ClientIP); ok {
		return plan.ID, plan.Tier
	}
	return globalPlanID, TierBasic
}

// ShouldLimit reports whether the submission must be rejected. It returns
// true when the caller's plan budget or the shared BASIC budget is
// exhausted, or when mode is disallowed for the caller's tier.
func (l *Limiter) ShouldLimit(ctx context.Context, mode, methodName, txConstructor string, sender common.Address, rc rpctypes.RequestContext) bool {
	if !l.budget.Enabled() {
		return false
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.resetIfWindowElapsed(ctx)

	planID, tier := l.resolvePlan(ctx, sender, rc)

	for _, disallowed := range l.budget.DisallowedModes[tier] {
		if disallowed == mode {
			l.logger.Debug("mode disallowed for tier",
				"mode", mode, "tier", tier, "method", methodName, "request_id", rc.RequestID)
			metrics.HbarLimitRejections.WithLabelValues(string(tier)).Inc()
			return true
		}
	}

	if limit := l.budget.tierCap(tier); limit != nil && limit.Sign() > 0 {
		if l.amountSpent(ctx, planID).Cmp(limit) >= 0 {
			l.logger.Info("plan budget exhausted",
				"plan_id", planID, "tier", tier, "method", methodName,
				"tx_constructor", txConstructor, "request_id", rc.RequestID)
			metrics.HbarLimitRejections.WithLabelValues(string(tier)).Inc()
			return true
		}
	}

	// BASIC callers additionally share the process-global budget.
	if tier == TierBasic && l.amountSpent(ctx, globalPlanID).Cmp(l.budget.Global) >= 0 {
		l.logger.Info("global budget exhausted",
			"method", methodName, "masked_ip", rc.MaskedClientIP, "request_id", rc.RequestID)
		metrics.HbarLimitRejections.WithLabelValues(string(TierBasic)).Inc()
		return true
	}

	return false
}

// AddExpense records amount (tinybar) against every applicable bucket and
// appends a history entry. Amounts within a reset window only grow; the
// window boundary resets them atomically.
func (l *Limiter) AddExpense(ctx context.Context, amount *big.Int, txConstructor string, sender common.Address, rc rpctypes.RequestContext) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.resetIfWindowElapsed(ctx)

	planID, tier := l.resolvePlan(ctx, sender, rc)

	l.addToBucket(ctx, planID, amount, txConstructor)
	if tier == TierBasic && planID != globalPlanID {
		l.addToBucket(ctx, globalPlanID, amount, txConstructor)
	}
	metrics.HbarSpent.WithLabelValues(string(tier)).Add(float64(amount.Int64()))

	l.logger.Debug("expense recorded",
		"plan_id", planID, "tier", tier, "amount_tinybar", amount.String(),
		"tx_constructor", txConstructor, "request_id", rc.RequestID)
}

// amountSpent reads a bucket's counter. Callers hold l.mtx.
func (l *Limiter) amountSpent(ctx context.Context, planID string) *big.Int {
	raw, ok := l.cache.Get(ctx, planKey(planID)+":"+amountSpentField, limiterCaller)
	if !ok {
		return new(big.Int)
	}
	spent, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		l.logger.Error("undecodable amountSpent counter, treating as zero", "plan_id", planID, "raw", raw)
		return new(big.Int)
	}
	return spent
}

// addToBucket performs the read-add-write under l.mtx, which makes the
// update atomic for this process.
func (l *Limiter) addToBucket(ctx context.Context, planID string, amount *big.Int, txConstructor string) {
	spent := l.amountSpent(ctx, planID)
	spent.Add(spent, amount)
	l.cache.Set(ctx, planKey(planID)+":"+amountSpentField, spent.String(), limiterCaller, cache.NoExpiry)

	historyKey := planKey(planID) + ":" + historyField
	var history []historyEntry
	if raw, ok := l.cache.Get(ctx, historyKey, limiterCaller); ok {
		_ = json.Unmarshal([]byte(raw), &history)
	}
	history = append(history, historyEntry{
		Timestamp:     time.Now(),
		Amount:        amount.String(),
		TxConstructor: txConstructor,
	})
	if encoded, err := json.Marshal(history); err == nil {
		l.cache.Set(ctx, historyKey, string(encoded), limiterCaller, cache.NoExpiry)
	}
}

// resetIfWindowElapsed zeroes every bucket when the reset window has
// passed. Callers hold l.mtx, so the reset is atomic with respect to any
// concurrent ShouldLimit/AddExpense.
func (l *Limiter) resetIfWindowElapsed(ctx context.Context) {
	now := time.Now()
	if now.Before(l.resetDeadline) {
		return
	}
	for _, key := range l.cache.Keys(ctx, planKeyPrefix+":*:"+amountSpentField, limiterCaller) {
		l.cache.Delete(ctx, key, limiterCaller)
	}
	l.resetDeadline = now.Add(l.budget.ResetDuration)
	l.logger.Info("spending counters reset", "next_reset", l.resetDeadline)
}

// AmountSpent exposes a bucket's counter for the current window.
func (l *Limiter) AmountSpent(ctx context.Context, planID string) *big.Int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.amountSpent(ctx, planID)
}
