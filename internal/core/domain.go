package core

import (
	"fmt"
	"strings"
	"time"
)

type (
	AccountType     string
	DebtType        string
	TransactionType string
	Frequency       string
	ResetFrequency  string
)

const (
	AccountCurrent    AccountType = "current"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountRetirement AccountType = "retirement"
	AccountCrypto     AccountType = "crypto"
)

const (
	DebtCreditCard DebtType = "credit_card"
	DebtLoan       DebtType = "loan"
	DebtCarPayment DebtType = "car_payment"
	DebtMortgage   DebtType = "mortgage"
)

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

const (
	ResetDaily   ResetFrequency = "daily"
	ResetWeekly  ResetFrequency = "weekly"
	ResetMonthly ResetFrequency = "monthly"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountCurrent, AccountSavings, AccountInvestment, AccountRetirement, AccountCrypto:
		return true
	}
	return false
}

func (t DebtType) Valid() bool {
	switch t {
	case DebtCreditCard, DebtLoan, DebtCarPayment, DebtMortgage:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

func (f ResetFrequency) Valid() bool {
	switch f {
	case ResetDaily, ResetWeekly, ResetMonthly:
		return true
	}
	return false
}

// BrokerageCredentials identify an external brokerage position for
// investment accounts. The engine never calls the brokerage itself; it
// only stores the credentials and a cached result on behalf of callers.
type BrokerageCredentials struct {
	APIKey string
	PieID  string
}

// ResetSchedule declares when an account's projection window resets.
// Day is the day-of-month for monthly resets and ignored otherwise.
type ResetSchedule struct {
	Frequency ResetFrequency
	Day       int
}

// Account is a tracked financial account. Balance is authoritative:
// it always equals the opening balance plus the signed sum of every
// transaction applied through the ledger.
type Account struct {
	ID             string
	Name           string
	Type           AccountType
	Balance        Money
	InterestRate   float64               // annual percentage, 0 = not set
	Brokerage      *BrokerageCredentials // investment accounts only
	Reset          *ResetSchedule
	ExternalResult *Money // cached brokerage valuation, nil = never fetched
	DisplayOrder   int
	CreatedAt      time.Time
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrValidation, a.Type)
	}
	if a.Brokerage != nil && a.Type != AccountInvestment {
		return fmt.Errorf("%w: brokerage credentials only allowed on investment accounts", ErrValidation)
	}
	if a.Reset != nil {
		if !a.Reset.Frequency.Valid() {
			return fmt.Errorf("%w: unknown reset frequency %q", ErrValidation, a.Reset.Frequency)
		}
		if a.Reset.Frequency == ResetMonthly && (a.Reset.Day < 1 || a.Reset.Day > 31) {
			return fmt.Errorf("%w: reset day %d out of range", ErrValidation, a.Reset.Day)
		}
	}
	return nil
}

// Debt is an outstanding liability. Balance is non-negative and only
// decremented by debt payments. CreditLimit is meaningful for
// credit_card debts only and bounds the balance when set.
type Debt struct {
	ID             string
	Name           string
	Type           DebtType
	Balance        Money
	APR            float64
	MinimumPayment Money
	CreditLimit    *Money
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown debt type %q", ErrValidation, d.Type)
	}
	if d.Balance.IsNegative() {
		return fmt.Errorf("%w: debt balance cannot be negative", ErrValidation)
	}
	if d.CreditLimit != nil {
		if d.Type != DebtCreditCard {
			return fmt.Errorf("%w: credit limit only allowed on credit_card debts", ErrValidation)
		}
		if d.CreditLimit.LessThan(d.Balance) {
			return fmt.Errorf("%w: balance %s exceeds credit limit %s", ErrValidation, d.Balance, *d.CreditLimit)
		}
	}
	return nil
}

// Transaction is a single signed ledger entry against an account.
// Amount is always a positive magnitude; Type carries the direction.
// RecurringPaymentID back-references the recurring payment that
// generated the entry, or is empty for manual entries.
type Transaction struct {
	ID                 string
	AccountID          string
	Amount             Money
	Description        string
	Category           string
	Date               time.Time
	Type               TransactionType
	RecurringPaymentID string
}

func (t Transaction) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: missing account id", ErrValidation)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, t.Type)
	}
	return nil
}

// Signed returns the transaction's effect on its account balance:
// +amount for income, -amount for everything else.
func (t Transaction) Signed() Money {
	if t.Type == TransactionIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// RecurringPayment is a template for a periodically due transaction.
// NextPaymentDate advances in place on settle/skip; the entity keeps
// its identity for the lifetime of the schedule. AnchorDay is the
// day-of-month the schedule was created with, so that advancing past a
// shorter month (clamping) and rolling back returns the exact original
// date.
type RecurringPayment struct {
	ID              string
	Name            string
	Amount          Money
	Frequency       Frequency
	Category        string
	Type            TransactionType
	NextPaymentDate time.Time
	AnchorDay       int
	AccountID       string
}

func (p RecurringPayment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrValidation, p.Frequency)
	}
	if p.Type != TransactionIncome && p.Type != TransactionExpense {
		return fmt.Errorf("%w: recurring payment type must be income or expense", ErrValidation)
	}
	if p.AccountID == "" {
		return fmt.Errorf("%w: missing account id", ErrValidation)
	}
	if p.NextPaymentDate.IsZero() {
		return fmt.Errorf("%w: next payment date cannot be zero", ErrValidation)
	}
	return nil
}
