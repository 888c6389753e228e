package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/whereissam/chainsearch/pkg/kvstore"
	"github.com/whereissam/chainsearch/pkg/types"
)

// ErrRuleNotFound is returned when no gating rule is stored under a name.
var ErrRuleNotFound = errors.New("gating rule not found")

// GatingRule is a named, persisted access requirement. Resolving one fills
// the verification options a caller would otherwise pass by hand.
type GatingRule struct {
	Name     string        `json:"name"`
	Chain    types.ChainID `json:"chain"`
	Contract string        `json:"contract,omitempty"`
	AssetID  string        `json:"assetId,omitempty"`
	// Rule names the adapter-side check, e.g. "holds-any" or "holds-asset".
	Rule string `json:"rule"`
}

// RuleStore persists gating rules in the metadata store.
type RuleStore struct {
	store kvstore.Store
	ttl   time.Duration
}

// NewRuleStore wraps a metadata store. A zero ttl keeps rules until they
// are deleted.
func NewRuleStore(store kvstore.Store, ttl time.Duration) *RuleStore {
	return &RuleStore{store: store, ttl: ttl}
}

func ruleKey(name string) string { return "gating-rule:" + name }

// Save stores or replaces a rule under its name.
func (r *RuleStore) Save(ctx context.Context, rule GatingRule) error {
	if rule.Name == "" {
		return fmt.Errorf("gating rule needs a name")
	}
	if rule.Chain == "" {
		return fmt.Errorf("gating rule %q needs a chain", rule.Name)
	}

	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("encode gating rule %q: %w", rule.Name, err)
	}
	return r.store.Put(ctx, ruleKey(rule.Name), data, r.ttl)
}

// Load fetches a rule by name.
func (r *RuleStore) Load(ctx context.Context, name string) (*GatingRule, error) {
	data, err := r.store.Get(ctx, ruleKey(name))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
		}
		return nil, err
	}

	var rule GatingRule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, fmt.Errorf("decode gating rule %q: %w", name, err)
	}
	return &rule, nil
}

// Delete removes a rule by name.
func (r *RuleStore) Delete(ctx context.Context, name string) error {
	return r.store.Delete(ctx, ruleKey(name))
}

// VerifyRule resolves a stored rule and verifies the user against it.
func (c *Coordinator) VerifyRule(ctx context.Context, rules *RuleStore, name, userAddress string) (*types.VerificationResult, error) {
	rule, err := rules.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.Verify(ctx, rule.Chain, types.VerificationOptions{
		UserAddress: userAddress,
		AssetID:     rule.AssetID,
		Contract:    rule.Contract,
		GatingRule:  rule.Rule,
	})
}
