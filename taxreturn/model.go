// Package taxreturn holds the tax-return data model, its validated
// path-based accessor layer, and the save/load orchestration.
package taxreturn

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormatVersion is the current persisted format version.
const FormatVersion = 2

// Filing statuses.
const (
	StatusSingle          = "single"
	StatusMarriedJoint    = "married_joint"
	StatusMarriedSeparate = "married_separate"
	StatusHeadOfHousehold = "head_of_household"
)

// Deduction methods.
const (
	DeductionStandard = "standard"
	DeductionItemized = "itemized"
)

// Field length and value bounds.
const (
	MaxNameLength    = 50
	MaxAddressLength = 100
	MaxEmailLength   = 100
	MaxStringLength  = 100
)

// MaxMonetaryValue caps every monetary leaf value.
var MaxMonetaryValue = decimal.RequireFromString("999999999.99")

// PersonInfo holds identifying data for the filer or spouse.
type PersonInfo struct {
	FirstName     string `json:"first_name,omitempty"`
	MiddleInitial string `json:"middle_initial,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	SSN           string `json:"ssn,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	Occupation    string `json:"occupation,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZIP           string `json:"zip,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

// FilingInfo holds the filing status selection.
type FilingInfo struct {
	Status string `json:"status,omitempty"`
}

// W2Form is one employer's wage statement.
type W2Form struct {
	Employer           string          `json:"employer,omitempty"`
	EmployerEIN        string          `json:"employer_ein,omitempty"`
	Wages              decimal.Decimal `json:"wages"`
	FederalWithholding decimal.Decimal `json:"federal_withholding"`
}

// InterestIncome is one payer's interest income record.
type InterestIncome struct {
	Payer  string          `json:"payer,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// DividendIncome is one payer's dividend income record.
type DividendIncome struct {
	Payer  string          `json:"payer,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// BusinessIncome is one business activity's net profit.
type BusinessIncome struct {
	Description string          `json:"description,omitempty"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

// OtherIncome is a miscellaneous income record.
type OtherIncome struct {
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// Income groups all income sources.
type Income struct {
	W2Forms        []W2Form         `json:"w2_forms"`
	InterestIncome []InterestIncome `json:"interest_income"`
	DividendIncome []DividendIncome `json:"dividend_income"`
	BusinessIncome []BusinessIncome `json:"business_income"`
	Unemployment   decimal.Decimal  `json:"unemployment"`
	OtherIncome    []OtherIncome    `json:"other_income"`
}

// Adjustments holds above-the-line adjustments subtracted from total income.
type Adjustments struct {
	EducatorExpenses    decimal.Decimal `json:"educator_expenses"`
	StudentLoanInterest decimal.Decimal `json:"student_loan_interest"`
	IRADeduction        decimal.Decimal `json:"ira_deduction"`
	HSADeduction        decimal.Decimal `json:"hsa_deduction"`
}

// Deductions holds the deduction method and itemized breakdown. Itemized
// fields are only meaningful when Method is DeductionItemized.
type Deductions struct {
	Method                  string          `json:"method,omitempty"`
	MedicalExpenses         decimal.Decimal `json:"medical_expenses"`
	StateLocalTaxes         decimal.Decimal `json:"state_local_taxes"`
	MortgageInterest        decimal.Decimal `json:"mortgage_interest"`
	CharitableContributions decimal.Decimal `json:"charitable_contributions"`
	OtherDeductions         decimal.Decimal `json:"other_deductions"`
}

// Credits holds dependent counts and other credit inputs.
type Credits struct {
	QualifyingChildren int             `json:"qualifying_children"`
	OtherDependents    int             `json:"other_dependents"`
	OtherCredits       decimal.Decimal `json:"other_credits"`
}

// EstimatedPayment is one quarterly estimated tax payment.
type EstimatedPayment struct {
	Date   string          `json:"date,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// Payments groups tax already paid toward the year's liability.
type Payments struct {
	FederalWithholding   decimal.Decimal    `json:"federal_withholding"`
	PriorYearOverpayment decimal.Decimal    `json:"prior_year_overpayment"`
	EstimatedPayments    []EstimatedPayment `json:"estimated_payments"`
}

// Metadata identifies and versions a persisted return. FormatVersion and
// TaxYear are set at creation and never absent from a persisted return.
type Metadata struct {
	ReturnID       string    `json:"return_id"`
	FormatVersion  int       `json:"format_version"`
	TaxYear        int       `json:"tax_year"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// TaxReturn is the root aggregate: every section is present from creation,
// populated through validated Set/AppendToList calls only. Calculated
// totals are never stored here.
type TaxReturn struct {
	PersonalInfo PersonInfo  `json:"personal_info"`
	SpouseInfo   PersonInfo  `json:"spouse_info"`
	FilingStatus FilingInfo  `json:"filing_status"`
	Income       Income      `json:"income"`
	Adjustments  Adjustments `json:"adjustments"`
	Deductions   Deductions  `json:"deductions"`
	Credits      Credits     `json:"credits"`
	Payments     Payments    `json:"payments"`
	Metadata     Metadata    `json:"metadata"`
}

// NewTaxReturn creates an empty return for the given tax year with metadata
// stamped.
func NewTaxReturn(taxYear int) *TaxReturn {
	now := time.Now().UTC()
	return &TaxReturn{
		Deductions: Deductions{Method: DeductionStandard},
		Metadata: Metadata{
			ReturnID:       uuid.NewString(),
			FormatVersion:  FormatVersion,
			TaxYear:        taxYear,
			CreatedAt:      now,
			LastModifiedAt: now,
		},
	}
}

// clone deep-copies the return. Record slices are the only reference-typed
// state; everything else copies by value.
func (t *TaxReturn) clone() *TaxReturn {
	c := *t
	c.Income.W2Forms = slices.Clone(t.Income.W2Forms)
	c.Income.InterestIncome = slices.Clone(t.Income.InterestIncome)
	c.Income.DividendIncome = slices.Clone(t.Income.DividendIncome)
	c.Income.BusinessIncome = slices.Clone(t.Income.BusinessIncome)
	c.Income.OtherIncome = slices.Clone(t.Income.OtherIncome)
	c.Payments.EstimatedPayments = slices.Clone(t.Payments.EstimatedPayments)
	return &c
}
