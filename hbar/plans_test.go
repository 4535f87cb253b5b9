package hbar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hashgraph/json-rpc-relay-go/cache"

	"cosmossdk.io/log"
)

func newTestRegistry(t *testing.T) (*Registry, cache.Service) {
	t.Helper()
	c, err := cache.NewLocalCache(1024, log.NewNopLogger())
	require.NoError(t, err)
	return NewRegistry(c, log.NewNopLogger()), c
}

func TestParsePlansConfigInlineJSON(t *testing.T) {
	plans, err := ParsePlansConfig(`[
		{"id":"p1","name":"partner","subscriptionTier":"EXTENDED","evmAddresses":["0xA"],"ipAddresses":[]},
		{"id":"p2","name":"internal","subscriptionTier":"PRIVILEGED","evmAddresses":[],"ipAddresses":["10.0.0.1"]}
	]`)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, TierExtended, plans[0].Tier)
	require.Equal(t, []string{"10.0.0.1"}, plans[1].IPAddresses)
}

func TestParsePlansConfigRejectsUnknownTier(t *testing.T) {
	_, err := ParsePlansConfig(`[{"id":"p1","subscriptionTier":"GOLD"}]`)
	require.Error(t, err)
}

func TestParsePlansConfigEmpty(t *testing.T) {
	plans, err := ParsePlansConfig("")
	require.NoError(t, err)
	require.Nil(t, plans)
}

func TestPopulateAndLookup(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	require.NoError(t, r.Populate(ctx, []PlanConfig{
		{ID: "p1", Name: "partner", Tier: TierExtended, EVMAddresses: []string{"0xAAAA000000000000000000000000000000000001"}},
		{ID: "p2", Name: "internal", Tier: TierPrivileged, IPAddresses: []string{"10.0.0.1"}},
	}))

	plan, ok := r.LookupByEVMAddress(ctx, "0xaaaa000000000000000000000000000000000001")
	require.True(t, ok)
	require.Equal(t, "p1", plan.ID)
	require.Equal(t, TierExtended, plan.Tier)

	// address lookup is case-insensitive
	plan, ok = r.LookupByEVMAddress(ctx, "0xAAAA000000000000000000000000000000000001")
	require.True(t, ok)
	require.Equal(t, "p1", plan.ID)

	plan, ok = r.LookupByIP(ctx, "10.0.0.1")
	require.True(t, ok)
	require.Equal(t, "p2", plan.ID)

	_, ok = r.LookupByEVMAddress(ctx, "0xbbbb000000000000000000000000000000000002")
	require.False(t, ok)
	_, ok = r.LookupByIP(ctx, "")
	require.False(t, ok)
}

// Reconciliation moves an address between plans and drops undeclared
// plans without leaving stale associations behind.
func TestPopulateReconciliation(t *testing.T) {
	ctx := context.Background()
	r, c := newTestRegistry(t)

	addrA := "0xaaaa00000000000000000000000000000000000a"
	addrB := "0xbbbb00000000000000000000000000000000000b"

	require.NoError(t, r.Populate(ctx, []PlanConfig{
		{ID: "P1", Tier: TierExtended, EVMAddresses: []string{addrA}},
	}))
	plan, ok := r.LookupByEVMAddress(ctx, addrA)
	require.True(t, ok)
	require.Equal(t, "P1", plan.ID)

	// New config: P1 keeps only addrB; P2 takes over addrA.
	newCfg := []PlanConfig{
		{ID: "P1", Tier: TierExtended, EVMAddresses: []string{addrB}},
		{ID: "P2", Tier: TierPrivileged, EVMAddresses: []string{addrA}},
	}
	require.NoError(t, r.Populate(ctx, newCfg))

	plan, ok = r.LookupByEVMAddress(ctx, addrA)
	require.True(t, ok)
	require.Equal(t, "P2", plan.ID)

	plan, ok = r.LookupByEVMAddress(ctx, addrB)
	require.True(t, ok)
	require.Equal(t, "P1", plan.ID)

	// repeated population converges to the same cache state
	before := c.Keys(ctx, planKeyPrefix+":*", registryCaller)
	require.NoError(t, r.Populate(ctx, newCfg))
	after := c.Keys(ctx, planKeyPrefix+":*", registryCaller)
	require.ElementsMatch(t, before, after)
	require.Len(t, after, 2)
}

func TestPopulateDropsObsoletePlans(t *testing.T) {
	ctx := context.Background()
	r, c := newTestRegistry(t)

	require.NoError(t, r.Populate(ctx, []PlanConfig{
		{ID: "gone", Tier: TierExtended, EVMAddresses: []string{"0xdead000000000000000000000000000000000001"}},
	}))
	// pretend the plan spent something in this window
	c.Set(ctx, planKey("gone")+":"+amountSpentField, "42", "test", cache.NoExpiry)

	require.NoError(t, r.Populate(ctx, []PlanConfig{
		{ID: "fresh", Tier: TierPrivileged},
	}))

	_, ok := r.GetPlan(ctx, "gone")
	require.False(t, ok)
	_, ok = r.LookupByEVMAddress(ctx, "0xdead000000000000000000000000000000000001")
	require.False(t, ok)
	_, spent := c.Get(ctx, planKey("gone")+":"+amountSpentField, "test")
	require.False(t, spent)

	_, ok = r.GetPlan(ctx, "fresh")
	require.True(t, ok)
}
