package hbar

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/hashgraph/json-rpc-relay-go/cache"

	"cosmossdk.io/log"
)

// Tier classifies a spending plan's budget.
type Tier string

const (
	TierBasic      Tier = "BASIC"
	TierExtended   Tier = "EXTENDED"
	TierPrivileged Tier = "PRIVILEGED"
)

// Cache-key collections of the spending-plan registry.
const (
	planKeyPrefix    = "hbarSpendingPlan"
	evmAssocPrefix   = "ethAddressHbarSpendingPlan"
	ipAssocPrefix    = "ipAddressHbarSpendingPlan"
	amountSpentField = "amountSpent"
	historyField     = "spendingHistory"

	registryCaller = "hbarSpendingPlanRegistry"
)

// PlanConfig is one declarative spending plan from the configuration file.
type PlanConfig struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Tier         Tier     `json:"subscriptionTier"`
	EVMAddresses []string `json:"evmAddresses"`
	IPAddresses  []string `json:"ipAddresses"`
}

// Plan is the cached plan record.
type Plan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier Tier   `json:"subscriptionTier"`
}

// ParsePlansConfig reads the spending-plan declaration from source, which
// is either inline JSON or the name of a file containing it.
func ParsePlansConfig(source string) ([]PlanConfig, error) {
	if source == "" {
		return nil, nil
	}
	raw := []byte(source)
	if !strings.HasPrefix(strings.TrimSpace(source), "[") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, errors.Wrapf(err, "reading spending plans config %q", source)
		}
		raw = data
	}
	var plans []PlanConfig
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, errors.Wrap(err, "parsing spending plans config")
	}
	for _, p := range plans {
		if p.ID == "" {
			return nil, errors.New("spending plan with empty id")
		}
		switch p.Tier {
		case TierBasic, TierExtended, TierPrivileged:
		default:
			return nil, errors.Errorf("spending plan %s has unknown tier %q", p.ID, p.Tier)
		}
	}
	return plans, nil
}

// Registry reconciles declarative spending plans into the cache and serves
// plan lookups by EVM address or client IP.
type Registry struct {
	cache  cache.Service
	logger log.Logger
}

// NewRegistry creates a registry over the shared cache.
func NewRegistry(c cache.Service, logger log.Logger) *Registry {
	return &Registry{
		cache:  c,
		logger: logger.With(log.ModuleKey, "hbar_plans"),
	}
}

func planKey(id string) string { return planKeyPrefix + ":" + id }
func evmAssocKey(addr string) string {
	return evmAssocPrefix + ":" + strings.ToLower(addr)
}
func ipAssocKey(ip string) string { return ipAssocPrefix + ":" + ip }

// Populate reconciles the cache against the declared plans. Repeated calls
// with the same configuration converge to the same cache state.
func (r *Registry) Populate(ctx context.Context, plans []PlanConfig) error {
	declared := make(map[string]PlanConfig, len(plans))
	for _, p := range plans {
		declared[p.ID] = p
	}

	// Drop cached EXTENDED/PRIVILEGED plans no longer declared, along with
	// their counters and associations.
	for _, key := range r.cache.Keys(ctx, planKeyPrefix+":*", registryCaller) {
		raw, ok := r.cache.Get(ctx, key, registryCaller)
		if !ok {
			continue
		}
		var cached Plan
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			r.logger.Error("dropping undecodable cached spending plan", "key", key, "error", err)
			r.cache.Delete(ctx, key, registryCaller)
			continue
		}
		if cached.Tier != TierExtended && cached.Tier != TierPrivileged {
			continue
		}
		if _, still := declared[cached.ID]; still {
			continue
		}
		r.logger.Info("removing obsolete spending plan", "id", cached.ID, "tier", cached.Tier)
		r.deletePlan(ctx, cached.ID)
	}

	// Create or refresh declared plans.
	for _, p := range plans {
		record, err := json.Marshal(Plan{ID: p.ID, Name: p.Name, Tier: p.Tier})
		if err != nil {
			return errors.Wrapf(err, "encoding spending plan %s", p.ID)
		}
		r.cache.Set(ctx, planKey(p.ID), string(record), registryCaller, cache.NoExpiry)
	}

	// Reconcile associations: remove addresses that now belong to another
	// plan (or none), then add the missing ones.
	r.reconcileAssociations(ctx, evmAssocPrefix, plans, func(p PlanConfig) []string {
		addrs := make([]string, 0, len(p.EVMAddresses))
		for _, a := range p.EVMAddresses {
			addrs = append(addrs, strings.ToLower(a))
		}
		return addrs
	})
	r.reconcileAssociations(ctx, ipAssocPrefix, plans, func(p PlanConfig) []string {
		return p.IPAddresses
	})

	return nil
}

func (r *Registry) reconcileAssociations(ctx context.Context, prefix string, plans []PlanConfig, addrsOf func(PlanConfig) []string) {
	wanted := make(map[string]string) // address -> plan id
	for _, p := range plans {
		for _, addr := range addrsOf(p) {
			wanted[addr] = p.ID
		}
	}

	for _, key := range r.cache.Keys(ctx, prefix+":*", registryCaller) {
		addr := strings.TrimPrefix(key, prefix+":")
		current, ok := r.cache.Get(ctx, key, registryCaller)
		if !ok {
			continue
		}
		want, stillWanted := wanted[addr]
		if !stillWanted || want != current {
			r.cache.Delete(ctx, key, registryCaller)
		}
	}

	for addr, planID := range wanted {
		key := prefix + ":" + addr
		if current, ok := r.cache.Get(ctx, key, registryCaller); ok && current == planID {
			continue
		}
		r.cache.Set(ctx, key, planID, registryCaller, cache.NoExpiry)
	}
}

// deletePlan drops a plan record, its counters and every association
// pointing at it.
func (r *Registry) deletePlan(ctx context.Context, id string) {
	r.cache.Delete(ctx, planKey(id), registryCaller)
	r.cache.Delete(ctx, planKey(id)+":"+amountSpentField, registryCaller)
	r.cache.Delete(ctx, planKey(id)+":"+historyField, registryCaller)

	for _, prefix := range []string{evmAssocPrefix, ipAssocPrefix} {
		for _, key := range r.cache.Keys(ctx, prefix+":*", registryCaller) {
			if v, ok := r.cache.Get(ctx, key, registryCaller); ok && v == id {
				r.cache.Delete(ctx, key, registryCaller)
			}
		}
	}
}

// lookup resolves an association key to its plan record.
func (r *Registry) lookup(ctx context.Context, assocKey string) (*Plan, bool) {
	planID, ok := r.cache.Get(ctx, assocKey, registryCaller)
	if !ok {
		return nil, false
	}
	raw, ok := r.cache.Get(ctx, planKey(planID), registryCaller)
	if !ok {
		// Dangling association; heal it.
		r.cache.Delete(ctx, assocKey, registryCaller)
		return nil, false
	}
	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		r.logger.Error("undecodable spending plan record", "plan_id", planID, "error", err)
		return nil, false
	}
	return &plan, true
}

// LookupByEVMAddress resolves the plan associated with an EVM address.
func (r *Registry) LookupByEVMAddress(ctx context.Context, addr string) (*Plan, bool) {
	return r.lookup(ctx, evmAssocKey(addr))
}

// LookupByIP resolves the plan associated with a client IP.
func (r *Registry) LookupByIP(ctx context.Context, ip string) (*Plan, bool) {
	if ip == "" {
		return nil, false
	}
	return r.lookup(ctx, ipAssocKey(ip))
}

// GetPlan returns the cached plan record by id.
func (r *Registry) GetPlan(ctx context.Context, id string) (*Plan, bool) {
	raw, ok := r.cache.Get(ctx, planKey(id), registryCaller)
	if !ok {
		return nil, false
	}
	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, false
	}
	return &plan, true
}
