package http

import (
	"fmt"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

const dateLayout = "2006-01-02"

// Amounts travel as decimal strings ("12.34") and are parsed to cents
// server side. Responses carry both the string and the raw cents.

type moneyDTO struct {
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

func toMoneyDTO(m core.Money) moneyDTO {
	return moneyDTO{Amount: m.String(), Cents: m.Cents}
}

type resetScheduleDTO struct {
	Frequency string `json:"frequency"`
	Day       int    `json:"day,omitempty"`
}

type brokerageDTO struct {
	APIKey string `json:"api_key"`
	PieID  string `json:"pie_id"`
}

type accountRequest struct {
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Balance      string            `json:"balance"`
	InterestRate float64           `json:"interest_rate,omitempty"`
	Brokerage    *brokerageDTO     `json:"brokerage,omitempty"`
	Reset        *resetScheduleDTO `json:"reset,omitempty"`
	DisplayOrder int               `json:"display_order,omitempty"`
}

func (req accountRequest) toDomain() (core.Account, error) {
	balance, err := core.ParseAmount(req.Balance)
	if err != nil {
		return core.Account{}, err
	}
	a := core.Account{
		Name:         req.Name,
		Type:         core.AccountType(req.Type),
		Balance:      balance,
		InterestRate: req.InterestRate,
		DisplayOrder: req.DisplayOrder,
	}
	if req.Brokerage != nil {
		a.Brokerage = &core.BrokerageCredentials{APIKey: req.Brokerage.APIKey, PieID: req.Brokerage.PieID}
	}
	if req.Reset != nil {
		a.Reset = &core.ResetSchedule{Frequency: core.ResetFrequency(req.Reset.Frequency), Day: req.Reset.Day}
	}
	return a, nil
}

type accountResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	Balance        moneyDTO          `json:"balance"`
	InterestRate   float64           `json:"interest_rate,omitempty"`
	Brokerage      *brokerageDTO     `json:"brokerage,omitempty"`
	Reset          *resetScheduleDTO `json:"reset,omitempty"`
	ExternalResult *moneyDTO         `json:"external_result,omitempty"`
	DisplayOrder   int               `json:"display_order"`
	CreatedAt      time.Time         `json:"created_at"`
}

func toAccountResponse(a core.Account) accountResponse {
	resp := accountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		Balance:      toMoneyDTO(a.Balance),
		InterestRate: a.InterestRate,
		DisplayOrder: a.DisplayOrder,
		CreatedAt:    a.CreatedAt,
	}
	if a.Brokerage != nil {
		resp.Brokerage = &brokerageDTO{APIKey: a.Brokerage.APIKey, PieID: a.Brokerage.PieID}
	}
	if a.Reset != nil {
		resp.Reset = &resetScheduleDTO{Frequency: string(a.Reset.Frequency), Day: a.Reset.Day}
	}
	if a.ExternalResult != nil {
		dto := toMoneyDTO(*a.ExternalResult)
		resp.ExternalResult = &dto
	}
	return resp
}

type debtRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Balance        string  `json:"balance"`
	APR            float64 `json:"apr,omitempty"`
	MinimumPayment string  `json:"minimum_payment,omitempty"`
	CreditLimit    *string `json:"credit_limit,omitempty"`
}

func (req debtRequest) toDomain() (core.Debt, error) {
	balance, err := core.ParseAmount(req.Balance)
	if err != nil {
		return core.Debt{}, err
	}
	d := core.Debt{
		Name:    req.Name,
		Type:    core.DebtType(req.Type),
		Balance: balance,
		APR:     req.APR,
	}
	if req.MinimumPayment != "" {
		min, err := core.ParseAmount(req.MinimumPayment)
		if err != nil {
			return core.Debt{}, fmt.Errorf("minimum payment: %w", err)
		}
		d.MinimumPayment = min
	}
	if req.CreditLimit != nil {
		limit, err := core.ParseAmount(*req.CreditLimit)
		if err != nil {
			return core.Debt{}, fmt.Errorf("credit limit: %w", err)
		}
		d.CreditLimit = &limit
	}
	return d, nil
}

type debtResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Balance        moneyDTO  `json:"balance"`
	APR            float64   `json:"apr,omitempty"`
	MinimumPayment moneyDTO  `json:"minimum_payment"`
	CreditLimit    *moneyDTO `json:"credit_limit,omitempty"`
}

func toDebtResponse(d core.Debt) debtResponse {
	resp := debtResponse{
		ID:             d.ID,
		Name:           d.Name,
		Type:           string(d.Type),
		Balance:        toMoneyDTO(d.Balance),
		APR:            d.APR,
		MinimumPayment: toMoneyDTO(d.MinimumPayment),
	}
	if d.CreditLimit != nil {
		dto := toMoneyDTO(*d.CreditLimit)
		resp.CreditLimit = &dto
	}
	return resp
}

type transactionRequest struct {
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"`
	Type        string `json:"type"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		AccountID:   req.AccountID,
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
		Type:        core.TransactionType(req.Type),
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", core.ErrValidation, req.Date)
		}
		t.Date = date
	}
	return t, nil
}

type transactionResponse struct {
	ID                 string   `json:"id"`
	AccountID          string   `json:"account_id"`
	Amount             moneyDTO `json:"amount"`
	Description        string   `json:"description"`
	Category           string   `json:"category,omitempty"`
	Date               string   `json:"date"`
	Type               string   `json:"type"`
	RecurringPaymentID string   `json:"recurring_payment_id,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                 t.ID,
		AccountID:          t.AccountID,
		Amount:             toMoneyDTO(t.Amount),
		Description:        t.Description,
		Category:           t.Category,
		Date:               t.Date.Format(dateLayout),
		Type:               string(t.Type),
		RecurringPaymentID: t.RecurringPaymentID,
	}
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

type transferResponse struct {
	From transactionResponse `json:"from"`
	To   transactionResponse `json:"to"`
}

func toTransferResponse(t services.Transfer) transferResponse {
	return transferResponse{
		From: toTransactionResponse(t.From),
		To:   toTransactionResponse(t.To),
	}
}

type debtPaymentRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

type debtPaymentResponse struct {
	Debt        debtResponse        `json:"debt"`
	Transaction transactionResponse `json:"transaction"`
}

type recurringPaymentRequest struct {
	Name            string `json:"name"`
	Amount          string `json:"amount"`
	Frequency       string `json:"frequency"`
	Category        string `json:"category,omitempty"`
	Type            string `json:"type"`
	NextPaymentDate string `json:"next_payment_date"`
	AccountID       string `json:"account_id"`
}

func (req recurringPaymentRequest) toDomain() (core.RecurringPayment, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	date, err := time.Parse(dateLayout, req.NextPaymentDate)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("%w: invalid next payment date %q, want YYYY-MM-DD", core.ErrValidation, req.NextPaymentDate)
	}
	return core.RecurringPayment{
		Name:            req.Name,
		Amount:          amount,
		Frequency:       core.Frequency(req.Frequency),
		Category:        req.Category,
		Type:            core.TransactionType(req.Type),
		NextPaymentDate: date,
		AccountID:       req.AccountID,
	}, nil
}

type recurringPaymentResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Amount          moneyDTO `json:"amount"`
	Frequency       string   `json:"frequency"`
	Category        string   `json:"category,omitempty"`
	Type            string   `json:"type"`
	NextPaymentDate string   `json:"next_payment_date"`
	AccountID       string   `json:"account_id"`
}

func toRecurringPaymentResponse(p core.RecurringPayment) recurringPaymentResponse {
	return recurringPaymentResponse{
		ID:              p.ID,
		Name:            p.Name,
		Amount:          toMoneyDTO(p.Amount),
		Frequency:       string(p.Frequency),
		Category:        p.Category,
		Type:            string(p.Type),
		NextPaymentDate: p.NextPaymentDate.Format(dateLayout),
		AccountID:       p.AccountID,
	}
}

type settleResponse struct {
	Payment     recurringPaymentResponse `json:"payment"`
	Transaction transactionResponse      `json:"transaction"`
}

type projectionResponse struct {
	AccountID  string   `json:"account_id"`
	Balance    moneyDTO `json:"balance"`
	Projected  moneyDTO `json:"projected"`
	IncomeSum  moneyDTO `json:"income_sum"`
	ExpenseSum moneyDTO `json:"expense_sum"`
	Boundary   string   `json:"boundary,omitempty"`
}

func toProjectionResponse(p services.Projection) projectionResponse {
	resp := projectionResponse{
		AccountID:  p.AccountID,
		Balance:    toMoneyDTO(p.Balance),
		Projected:  toMoneyDTO(p.Projected),
		IncomeSum:  toMoneyDTO(p.IncomeSum),
		ExpenseSum: toMoneyDTO(p.ExpenseSum),
	}
	if !p.Boundary.IsZero() {
		resp.Boundary = p.Boundary.Format(time.RFC3339)
	}
	return resp
}

type categoryAmountDTO struct {
	Name   string   `json:"name"`
	Amount moneyDTO `json:"amount"`
}

type overviewResponse struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	Income     moneyDTO            `json:"income"`
	Expenses   moneyDTO            `json:"expenses"`
	ByCategory []categoryAmountDTO `json:"by_category"`
}

func toOverviewResponse(o services.MonthOverview) overviewResponse {
	resp := overviewResponse{
		Year:       o.Year,
		Month:      o.Month,
		Income:     toMoneyDTO(o.Income),
		Expenses:   toMoneyDTO(o.Expenses),
		ByCategory: make([]categoryAmountDTO, 0, len(o.ByCategory)),
	}
	for _, c := range o.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountDTO{Name: c.Name, Amount: toMoneyDTO(c.Amount)})
	}
	return resp
}
