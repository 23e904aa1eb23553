// Package statutory computes the regulated payroll deductions: provident fund,
// employee state insurance and professional tax. Every function here is pure.
package statutory

import (
	"errors"
	"fmt"

	"github.com/enjeyisback/HRMS/pkg/config"
	"github.com/shopspring/decimal"
)

// Slab is one professional-tax bracket. A nil UpTo is the open top slab.
// UpTo is an inclusive upper bound.
type Slab struct {
	UpTo   *decimal.Decimal
	Amount decimal.Decimal
}

// Policy is the statutory rate table. Amounts are rounded half away from zero
// to whole currency units.
type Policy struct {
	PFRate        decimal.Decimal
	ESICRate      decimal.Decimal
	ESICThreshold decimal.Decimal
	PTSlabs       []Slab
}

// DefaultPolicy returns PF 12% of basic, ESIC 0.75% of gross below 21000 and
// PT 0/175/200 with breakpoints at 7500 and 10000.
func DefaultPolicy() Policy {
	upTo7500 := decimal.NewFromInt(7500)
	upTo10000 := decimal.NewFromInt(10000)
	return Policy{
		PFRate:        decimal.RequireFromString("0.12"),
		ESICRate:      decimal.RequireFromString("0.0075"),
		ESICThreshold: decimal.NewFromInt(21000),
		PTSlabs: []Slab{
			{UpTo: &upTo7500, Amount: decimal.Zero},
			{UpTo: &upTo10000, Amount: decimal.NewFromInt(175)},
			{UpTo: nil, Amount: decimal.NewFromInt(200)},
		},
	}
}

// PolicyFromConfig parses the payroll section of the service configuration.
// Empty values fall back to the defaults.
func PolicyFromConfig(cfg config.PayrollConfig) (Policy, error) {
	p := DefaultPolicy()

	var err error
	if cfg.PFRate != "" {
		if p.PFRate, err = decimal.NewFromString(cfg.PFRate); err != nil {
			return Policy{}, fmt.Errorf("invalid pf_rate %q: %w", cfg.PFRate, err)
		}
	}
	if cfg.ESICRate != "" {
		if p.ESICRate, err = decimal.NewFromString(cfg.ESICRate); err != nil {
			return Policy{}, fmt.Errorf("invalid esic_rate %q: %w", cfg.ESICRate, err)
		}
	}
	if cfg.ESICThreshold != "" {
		if p.ESICThreshold, err = decimal.NewFromString(cfg.ESICThreshold); err != nil {
			return Policy{}, fmt.Errorf("invalid esic_threshold %q: %w", cfg.ESICThreshold, err)
		}
	}

	if len(cfg.PTSlabs) > 0 {
		slabs := make([]Slab, 0, len(cfg.PTSlabs))
		for i, s := range cfg.PTSlabs {
			amount, err := decimal.NewFromString(s.Amount)
			if err != nil {
				return Policy{}, fmt.Errorf("invalid pt_slabs[%d].amount %q: %w", i, s.Amount, err)
			}
			slab := Slab{Amount: amount}
			if s.UpTo != "" {
				upTo, err := decimal.NewFromString(s.UpTo)
				if err != nil {
					return Policy{}, fmt.Errorf("invalid pt_slabs[%d].up_to %q: %w", i, s.UpTo, err)
				}
				slab.UpTo = &upTo
			}
			slabs = append(slabs, slab)
		}
		p.PTSlabs = slabs
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects negative rates and slab tables that are unordered or lack an open top slab.
func (p Policy) Validate() error {
	if p.PFRate.IsNegative() || p.ESICRate.IsNegative() || p.ESICThreshold.IsNegative() {
		return errors.New("statutory rates and thresholds must not be negative")
	}
	if len(p.PTSlabs) == 0 {
		return errors.New("professional tax needs at least one slab")
	}

	var prev *decimal.Decimal
	for i, s := range p.PTSlabs {
		if s.Amount.IsNegative() {
			return fmt.Errorf("pt slab %d has a negative amount", i)
		}
		last := i == len(p.PTSlabs)-1
		if s.UpTo == nil {
			if !last {
				return fmt.Errorf("pt slab %d is open ended but not the last slab", i)
			}
			continue
		}
		if last {
			return errors.New("last pt slab must be open ended")
		}
		if prev != nil && !s.UpTo.GreaterThan(*prev) {
			return fmt.Errorf("pt slab %d upper bound must be greater than the previous one", i)
		}
		prev = s.UpTo
	}
	return nil
}

// PF returns round(basic × PFRate). Negative basic yields 0.
func (p Policy) PF(basic decimal.Decimal) decimal.Decimal {
	if !basic.IsPositive() {
		return decimal.Zero
	}
	return basic.Mul(p.PFRate).Round(0)
}

// ESIC returns round(gross × ESICRate) while gross is strictly below the
// threshold and 0 from the threshold upward.
func (p Policy) ESIC(gross decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() || !gross.LessThan(p.ESICThreshold) {
		return decimal.Zero
	}
	return gross.Mul(p.ESICRate).Round(0)
}

// PT returns the amount of the first slab whose inclusive upper bound covers gross.
func (p Policy) PT(gross decimal.Decimal) decimal.Decimal {
	for _, s := range p.PTSlabs {
		if s.UpTo == nil || gross.LessThanOrEqual(*s.UpTo) {
			return s.Amount
		}
	}
	return decimal.Zero
}

var defaultPolicy = DefaultPolicy()

// ComputePF applies the default policy.
func ComputePF(basic decimal.Decimal) decimal.Decimal { return defaultPolicy.PF(basic) }

// ComputeESIC applies the default policy.
func ComputeESIC(gross decimal.Decimal) decimal.Decimal { return defaultPolicy.ESIC(gross) }

// ComputePT applies the default policy.
func ComputePT(gross decimal.Decimal) decimal.Decimal { return defaultPolicy.PT(gross) }
