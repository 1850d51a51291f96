package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gallaway-jp/freedomtax/taxreturn"
)

// Result holds the derived totals for one calculation pass. Totals are
// value objects: nothing downstream may treat them as settable state, and
// they are never written back into the return.
type Result struct {
	TotalIncome         decimal.Decimal `json:"total_income"`
	AdjustedGrossIncome decimal.Decimal `json:"adjusted_gross_income"`
	DeductionAmount     decimal.Decimal `json:"deduction_amount"`
	TaxableIncome       decimal.Decimal `json:"taxable_income"`
	IncomeTax           decimal.Decimal `json:"income_tax"`
	TotalCredits        decimal.Decimal `json:"total_credits"`
	TaxAfterCredits     decimal.Decimal `json:"tax_after_credits"`
	TotalPayments       decimal.Decimal `json:"total_payments"`
	// RefundOrOwed is positive for a refund, negative for an amount owed.
	RefundOrOwed decimal.Decimal `json:"refund_or_owed"`
}

// Engine is a pure pipeline over an immutable snapshot of the return plus a
// year-specific tax table. It holds no state and is safe for concurrent use.
type Engine struct{}

// NewEngine returns a calculation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Calculate derives all totals for ret using the given table. A missing or
// malformed table is ErrConfiguration; stored data violating a model
// invariant is ErrDataIntegrity. Each stage rounds to the cent, the way a
// preparer rounds each line of a paper form.
func (e *Engine) Calculate(ret *taxreturn.TaxReturn, table *TaxTable) (*Result, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no tax table supplied", ErrConfiguration)
	}

	status := ret.FilingStatus.Status
	if status == "" {
		status = taxreturn.StatusSingle
	}
	switch status {
	case taxreturn.StatusSingle, taxreturn.StatusMarriedJoint,
		taxreturn.StatusMarriedSeparate, taxreturn.StatusHeadOfHousehold:
	default:
		return nil, fmt.Errorf("%w: unknown filing status %q", ErrDataIntegrity, status)
	}
	if err := table.validate(status); err != nil {
		return nil, err
	}
	if err := checkAmounts(ret); err != nil {
		return nil, err
	}

	res := &Result{}

	res.TotalIncome = totalIncome(ret).Round(2)

	adjustments := sum(
		ret.Adjustments.EducatorExpenses,
		ret.Adjustments.StudentLoanInterest,
		ret.Adjustments.IRADeduction,
		ret.Adjustments.HSADeduction,
	)
	agi := res.TotalIncome.Sub(adjustments)
	if agi.IsNegative() {
		agi = decimal.Zero
	}
	res.AdjustedGrossIncome = agi.Round(2)

	res.DeductionAmount = deductionAmount(ret, table, status).Round(2)
	taxable := res.AdjustedGrossIncome.Sub(res.DeductionAmount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	res.TaxableIncome = taxable.Round(2)

	res.IncomeTax = bracketTax(res.TaxableIncome, table.Brackets[status]).Round(2)

	res.TotalCredits = totalCredits(ret, table, status, res.AdjustedGrossIncome).Round(2)
	after := res.IncomeTax.Sub(res.TotalCredits)
	if after.IsNegative() {
		after = decimal.Zero
	}
	res.TaxAfterCredits = after.Round(2)

	res.TotalPayments = totalPayments(ret).Round(2)
	res.RefundOrOwed = res.TotalPayments.Sub(res.TaxAfterCredits).Round(2)

	return res, nil
}

func totalIncome(ret *taxreturn.TaxReturn) decimal.Decimal {
	total := ret.Income.Unemployment
	for _, w2 := range ret.Income.W2Forms {
		total = total.Add(w2.Wages)
	}
	for _, rec := range ret.Income.InterestIncome {
		total = total.Add(rec.Amount)
	}
	for _, rec := range ret.Income.DividendIncome {
		total = total.Add(rec.Amount)
	}
	for _, rec := range ret.Income.BusinessIncome {
		total = total.Add(rec.NetProfit)
	}
	for _, rec := range ret.Income.OtherIncome {
		total = total.Add(rec.Amount)
	}
	return total
}

func deductionAmount(ret *taxreturn.TaxReturn, table *TaxTable, status string) decimal.Decimal {
	if ret.Deductions.Method == taxreturn.DeductionItemized {
		return sum(
			ret.Deductions.MedicalExpenses,
			ret.Deductions.StateLocalTaxes,
			ret.Deductions.MortgageInterest,
			ret.Deductions.CharitableContributions,
			ret.Deductions.OtherDeductions,
		)
	}
	return table.StandardDeduction[status]
}

// bracketTax applies each bracket's marginal rate to the portion of income
// within that bracket.
func bracketTax(taxable decimal.Decimal, brackets []Bracket) decimal.Decimal {
	tax := decimal.Zero
	for i, b := range brackets {
		if taxable.LessThanOrEqual(b.Lower) {
			break
		}
		upper := taxable
		if i+1 < len(brackets) && taxable.GreaterThan(brackets[i+1].Lower) {
			upper = brackets[i+1].Lower
		}
		tax = tax.Add(upper.Sub(b.Lower).Mul(b.Rate))
	}
	return tax
}

// totalCredits computes the child tax credit and the credit for other
// dependents, reduced by the AGI phase-out, plus any directly entered
// credits.
func totalCredits(ret *taxreturn.TaxReturn, table *TaxTable, status string, agi decimal.Decimal) decimal.Decimal {
	p := table.Credits

	children := decimal.NewFromInt(int64(ret.Credits.QualifyingChildren))
	others := decimal.NewFromInt(int64(ret.Credits.OtherDependents))
	credits := children.Mul(p.PerQualifyingChild).Add(others.Mul(p.PerOtherDependent))

	threshold, ok := p.PhaseOutThreshold[status]
	if ok && agi.GreaterThan(threshold) && credits.IsPositive() {
		// Reduced by PhaseOutPer1000 for each $1,000 or fraction thereof
		// of AGI above the threshold.
		over := agi.Sub(threshold)
		steps := over.Div(decimal.NewFromInt(1000)).Ceil()
		reduction := steps.Mul(p.PhaseOutPer1000)
		credits = credits.Sub(reduction)
		if credits.IsNegative() {
			credits = decimal.Zero
		}
	}

	return credits.Add(ret.Credits.OtherCredits)
}

func totalPayments(ret *taxreturn.TaxReturn) decimal.Decimal {
	total := ret.Payments.FederalWithholding.Add(ret.Payments.PriorYearOverpayment)
	for _, p := range ret.Payments.EstimatedPayments {
		total = total.Add(p.Amount)
	}
	return total
}

// checkAmounts refuses to compute over stored amounts that violate the
// model's monetary invariants, which can only happen when validation was
// bypassed (for example through a legacy format migration).
func checkAmounts(ret *taxreturn.TaxReturn) error {
	check := func(name string, v decimal.Decimal) error {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is negative", ErrDataIntegrity, name)
		}
		if v.GreaterThan(taxreturn.MaxMonetaryValue) {
			return fmt.Errorf("%w: %s exceeds the monetary bound", ErrDataIntegrity, name)
		}
		return nil
	}

	for i, w2 := range ret.Income.W2Forms {
		if err := check(fmt.Sprintf("income.w2_forms[%d].wages", i), w2.Wages); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("income.w2_forms[%d].federal_withholding", i), w2.FederalWithholding); err != nil {
			return err
		}
	}
	for i, rec := range ret.Income.InterestIncome {
		if err := check(fmt.Sprintf("income.interest_income[%d].amount", i), rec.Amount); err != nil {
			return err
		}
	}
	for i, rec := range ret.Income.DividendIncome {
		if err := check(fmt.Sprintf("income.dividend_income[%d].amount", i), rec.Amount); err != nil {
			return err
		}
	}
	for i, rec := range ret.Income.BusinessIncome {
		if err := check(fmt.Sprintf("income.business_income[%d].net_profit", i), rec.NetProfit); err != nil {
			return err
		}
	}
	for i, rec := range ret.Income.OtherIncome {
		if err := check(fmt.Sprintf("income.other_income[%d].amount", i), rec.Amount); err != nil {
			return err
		}
	}
	if err := check("income.unemployment", ret.Income.Unemployment); err != nil {
		return err
	}

	named := map[string]decimal.Decimal{
		"adjustments.educator_expenses":       ret.Adjustments.EducatorExpenses,
		"adjustments.student_loan_interest":   ret.Adjustments.StudentLoanInterest,
		"adjustments.ira_deduction":           ret.Adjustments.IRADeduction,
		"adjustments.hsa_deduction":           ret.Adjustments.HSADeduction,
		"deductions.medical_expenses":         ret.Deductions.MedicalExpenses,
		"deductions.state_local_taxes":        ret.Deductions.StateLocalTaxes,
		"deductions.mortgage_interest":        ret.Deductions.MortgageInterest,
		"deductions.charitable_contributions": ret.Deductions.CharitableContributions,
		"deductions.other_deductions":         ret.Deductions.OtherDeductions,
		"credits.other_credits":               ret.Credits.OtherCredits,
		"payments.federal_withholding":        ret.Payments.FederalWithholding,
		"payments.prior_year_overpayment":     ret.Payments.PriorYearOverpayment,
	}
	for name, v := range named {
		if err := check(name, v); err != nil {
			return err
		}
	}
	for i, p := range ret.Payments.EstimatedPayments {
		if err := check(fmt.Sprintf("payments.estimated_payments[%d].amount", i), p.Amount); err != nil {
			return err
		}
	}
	if ret.Credits.QualifyingChildren < 0 || ret.Credits.OtherDependents < 0 {
		return fmt.Errorf("%w: dependent counts must not be negative", ErrDataIntegrity)
	}
	return nil
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
