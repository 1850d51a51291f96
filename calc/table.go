// Package calc derives totals from a tax return: total income, AGI,
// taxable income, tax, credits, payments, and the refund or amount owed.
package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gallaway-jp/freedomtax/taxreturn"
)

// Bracket is one marginal tax bracket: income above Lower (up to the next
// bracket's Lower) is taxed at Rate.
type Bracket struct {
	Lower decimal.Decimal
	Rate  decimal.Decimal
}

// CreditParams configures the child tax credit and the credit for other
// dependents, including the AGI phase-out.
type CreditParams struct {
	PerQualifyingChild decimal.Decimal
	PerOtherDependent  decimal.Decimal
	// PhaseOutThreshold is the AGI above which credits phase out, by
	// filing status.
	PhaseOutThreshold map[string]decimal.Decimal
	// PhaseOutPer1000 is the credit reduction per $1,000 (or fraction) of
	// AGI above the threshold.
	PhaseOutPer1000 decimal.Decimal
}

// TaxTable is the year-specific input to the engine: standard deductions
// and bracket tables by filing status plus credit parameters. It is
// supplied by configuration, not owned by the engine.
type TaxTable struct {
	Year              int
	StandardDeduction map[string]decimal.Decimal
	Brackets          map[string][]Bracket
	Credits           CreditParams
}

// validate checks the table is usable for the given filing status.
func (t *TaxTable) validate(status string) error {
	if _, ok := t.StandardDeduction[status]; !ok {
		return fmt.Errorf("%w: no standard deduction for status %q in year %d", ErrConfiguration, status, t.Year)
	}
	brackets, ok := t.Brackets[status]
	if !ok || len(brackets) == 0 {
		return fmt.Errorf("%w: no brackets for status %q in year %d", ErrConfiguration, status, t.Year)
	}
	if !brackets[0].Lower.IsZero() {
		return fmt.Errorf("%w: first bracket for %q must start at zero", ErrConfiguration, status)
	}
	for i := 1; i < len(brackets); i++ {
		if !brackets[i].Lower.GreaterThan(brackets[i-1].Lower) {
			return fmt.Errorf("%w: brackets for %q are not in ascending order", ErrConfiguration, status)
		}
	}
	return nil
}

// Tables maps tax year to its table.
type Tables map[int]*TaxTable

// ForYear returns the table for year or ErrConfiguration when none exists.
func (t Tables) ForYear(year int) (*TaxTable, error) {
	table, ok := t[year]
	if !ok {
		return nil, fmt.Errorf("%w: no tax table for year %d", ErrConfiguration, year)
	}
	return table, nil
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{2025: Table2025()}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func brackets(pairs ...string) []Bracket {
	bs := make([]Bracket, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		bs = append(bs, Bracket{Lower: d(pairs[i]), Rate: d(pairs[i+1])})
	}
	return bs
}

// Table2025 returns the 2025 federal table.
func Table2025() *TaxTable {
	return &TaxTable{
		Year: 2025,
		StandardDeduction: map[string]decimal.Decimal{
			taxreturn.StatusSingle:          d("15000"),
			taxreturn.StatusMarriedJoint:    d("30000"),
			taxreturn.StatusMarriedSeparate: d("15000"),
			taxreturn.StatusHeadOfHousehold: d("22500"),
		},
		Brackets: map[string][]Bracket{
			taxreturn.StatusSingle: brackets(
				"0", "0.10",
				"11925", "0.12",
				"48475", "0.22",
				"103350", "0.24",
				"197300", "0.32",
				"250525", "0.35",
				"626350", "0.37",
			),
			taxreturn.StatusMarriedJoint: brackets(
				"0", "0.10",
				"23850", "0.12",
				"96950", "0.22",
				"206700", "0.24",
				"394600", "0.32",
				"501050", "0.35",
				"751600", "0.37",
			),
			taxreturn.StatusMarriedSeparate: brackets(
				"0", "0.10",
				"11925", "0.12",
				"48475", "0.22",
				"103350", "0.24",
				"197300", "0.32",
				"250525", "0.35",
				"375800", "0.37",
			),
			taxreturn.StatusHeadOfHousehold: brackets(
				"0", "0.10",
				"17000", "0.12",
				"64850", "0.22",
				"103350", "0.24",
				"197300", "0.32",
				"250500", "0.35",
				"626350", "0.37",
			),
		},
		Credits: CreditParams{
			PerQualifyingChild: d("2000"),
			PerOtherDependent:  d("500"),
			PhaseOutThreshold: map[string]decimal.Decimal{
				taxreturn.StatusSingle:          d("200000"),
				taxreturn.StatusMarriedJoint:    d("400000"),
				taxreturn.StatusMarriedSeparate: d("200000"),
				taxreturn.StatusHeadOfHousehold: d("200000"),
			},
			PhaseOutPer1000: d("50"),
		},
	}
}
