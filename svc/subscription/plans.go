package subscription

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is one purchasable tier from the catalog. ProviderPriceID binds the
// tier to the billing provider's recurring price.
type Plan struct {
	Tier            string `yaml:"tier"`
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	PriceCents      int64  `yaml:"price_cents"`
	Interval        string `yaml:"interval"`
	SeatsLimit      int    `yaml:"seats_limit"`
	ProviderPriceID string `yaml:"provider_price_id"`
}

// Validate checks a single plan definition. SeatsLimit must be positive or
// SeatsUnlimited; zero seats would make the plan unusable.
func (p Plan) Validate() error {
	if p.Tier == "" {
		return fmt.Errorf("%w: tier is required", ErrInvalidPlan)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: plan %q has no name", ErrInvalidPlan, p.Tier)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: plan %q has negative price", ErrInvalidPlan, p.Tier)
	}
	if p.Interval != "month" && p.Interval != "year" {
		return fmt.Errorf("%w: plan %q has interval %q, want month or year", ErrInvalidPlan, p.Tier, p.Interval)
	}
	if p.SeatsLimit == 0 || p.SeatsLimit < SeatsUnlimited {
		return fmt.Errorf("%w: plan %q has seats limit %d", ErrInvalidPlan, p.Tier, p.SeatsLimit)
	}
	if p.ProviderPriceID == "" {
		return fmt.Errorf("%w: plan %q has no provider price id", ErrInvalidPlan, p.Tier)
	}
	return nil
}

// Catalog is the validated, immutable set of plans loaded at startup.
type Catalog struct {
	plans map[string]Plan
	order []string
}

// NewCatalog validates the given plans and builds a catalog. The incoming
// order is preserved for listing.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, ErrNoCatalogPlans
	}

	byTier := make(map[string]Plan, len(plans))
	order := make([]string, 0, len(plans))
	for _, plan := range plans {
		if err := plan.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byTier[plan.Tier]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTier, plan.Tier)
		}
		byTier[plan.Tier] = plan
		order = append(order, plan.Tier)
	}

	return &Catalog{plans: byTier, order: order}, nil
}

// LoadCatalog reads a YAML plan catalog from disk and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}

	var file struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}

	return NewCatalog(file.Plans...)
}

// ByTier returns the plan for a tier.
func (c *Catalog) ByTier(tier string) (Plan, error) {
	plan, ok := c.plans[tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return plan, nil
}

// Plans returns all plans in catalog order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, tier := range c.order {
		out = append(out, c.plans[tier])
	}
	return out
}

// SeatsForTier resolves the seat limit for a tier, falling back to the
// default when the tier is not in the catalog. Webhook processing must not
// fail on a tier the catalog no longer lists.
func (c *Catalog) SeatsForTier(tier string) int {
	if plan, ok := c.plans[tier]; ok {
		return plan.SeatsLimit
	}
	return DefaultSeatsLimit
}
