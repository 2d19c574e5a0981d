package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	clock := core.FixedClock{T: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	ledger := services.NewLedger(store, nil, clock)
	scheduler := services.NewScheduler(store, nil, clock)
	projector := services.NewProjector(store, clock)
	srv := NewServer(":0", ledger, scheduler, projector)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func createAccount(t *testing.T, srv *Server, name, balance string) accountResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/accounts",
		`{"name":"`+name+`","type":"current","balance":"`+balance+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp accountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Server.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

func TestAccountCRUD(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "100.00")
	if account.Balance.Cents != 10000 {
		t.Errorf("balance cents = %d, want 10000", account.Balance.Cents)
	}

	rr := doJSON(t, srv, http.MethodGet, "/accounts/"+account.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get account status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/accounts/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing account status=%d, want 404", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/accounts/"+account.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete account status=%d, want 204", rr.Code)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/accounts", `{"name":"","type":"current","balance":"1.00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name status=%d, want 422", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/accounts", `{"name":"X","type":"checking","balance":"1.00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad type status=%d, want 422", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/accounts", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status=%d, want 400", rr.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Checking", "100.00")

	rr := doJSON(t, srv, http.MethodPost, "/transactions",
		`{"account_id":"`+account.ID+`","amount":"30.00","description":"groceries","category":"Food","type":"expense"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Date != "2024-01-15" {
		t.Errorf("defaulted date = %s, want 2024-01-15", created.Date)
	}

	// Balance dropped by 30.
	rr = doJSON(t, srv, http.MethodGet, "/accounts/"+account.ID, "")
	var got accountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Balance.Cents != 7000 {
		t.Errorf("balance after expense = %d, want 7000", got.Balance.Cents)
	}

	// Invalid amount is a 422.
	rr = doJSON(t, srv, http.MethodPost, "/transactions",
		`{"account_id":"`+account.ID+`","amount":"abc","description":"x","type":"expense"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad amount status=%d, want 422", rr.Code)
	}

	// Direct transfer-typed entries are rejected.
	rr = doJSON(t, srv, http.MethodPost, "/transactions",
		`{"account_id":"`+account.ID+`","amount":"1.00","description":"x","type":"transfer"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("transfer entry status=%d, want 422", rr.Code)
	}

	// Delete restores the balance.
	rr = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete transaction status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/accounts/"+account.ID, "")
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Balance.Cents != 10000 {
		t.Errorf("balance after undo = %d, want 10000", got.Balance.Cents)
	}
}

func TestTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)
	from := createAccount(t, srv, "Checking", "40.00")
	to := createAccount(t, srv, "Savings", "0.00")

	rr := doJSON(t, srv, http.MethodPost, "/transfers",
		`{"from_account_id":"`+from.ID+`","to_account_id":"`+to.ID+`","amount":"50.00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("insufficient funds status=%d, want 422", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/transfers",
		`{"from_account_id":"`+from.ID+`","to_account_id":"`+to.ID+`","amount":"25.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("transfer status=%d body=%s", rr.Code, rr.Body.String())
	}
	var transfer transferResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &transfer); err != nil {
		t.Fatal(err)
	}
	if transfer.From.Type != "expense" || transfer.To.Type != "income" {
		t.Errorf("leg types = %s/%s", transfer.From.Type, transfer.To.Type)
	}

	rr = doJSON(t, srv, http.MethodGet, "/accounts/"+to.ID, "")
	var got accountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Balance.Cents != 2500 {
		t.Errorf("destination balance = %d, want 2500", got.Balance.Cents)
	}
}

func TestDebtPaymentEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Checking", "500.00")

	rr := doJSON(t, srv, http.MethodPost, "/debts",
		`{"name":"Visa","type":"credit_card","balance":"200.00","credit_limit":"1000.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt status=%d body=%s", rr.Code, rr.Body.String())
	}
	var debt debtResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &debt); err != nil {
		t.Fatal(err)
	}

	rr = doJSON(t, srv, http.MethodPost, "/debts/"+debt.ID+"/payments",
		`{"account_id":"`+account.ID+`","amount":"50.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("pay debt status=%d body=%s", rr.Code, rr.Body.String())
	}
	var payment debtPaymentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payment); err != nil {
		t.Fatal(err)
	}
	if payment.Debt.Balance.Cents != 15000 {
		t.Errorf("debt balance = %d, want 15000", payment.Debt.Balance.Cents)
	}
	if payment.Transaction.Type != "expense" {
		t.Errorf("payment transaction type = %s, want expense", payment.Transaction.Type)
	}
}

func TestRecurringSettleEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Checking", "100.00")

	rr := doJSON(t, srv, http.MethodPost, "/recurring-payments",
		`{"name":"Netflix","amount":"14.99","frequency":"monthly","type":"expense","next_payment_date":"2024-01-31","account_id":"`+account.ID+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create recurring status=%d body=%s", rr.Code, rr.Body.String())
	}
	var payment recurringPaymentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payment); err != nil {
		t.Fatal(err)
	}

	rr = doJSON(t, srv, http.MethodPost, "/recurring-payments/"+payment.ID+"/settle", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("settle status=%d body=%s", rr.Code, rr.Body.String())
	}
	var settled settleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &settled); err != nil {
		t.Fatal(err)
	}
	if settled.Payment.NextPaymentDate != "2024-02-29" {
		t.Errorf("advanced date = %s, want 2024-02-29", settled.Payment.NextPaymentDate)
	}
	if settled.Transaction.Date != "2024-01-31" {
		t.Errorf("settled transaction date = %s, want 2024-01-31", settled.Transaction.Date)
	}
}

func TestMonthOverviewCaching(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Checking", "100.00")

	rr := doJSON(t, srv, http.MethodPost, "/transactions",
		`{"account_id":"`+account.ID+`","amount":"10.00","description":"coffee","category":"Food","type":"expense","date":"2024-01-05"}`)
	if rr.Code != http.StatusCreated {
		t.Fatal(rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/overview?year=2024&month=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("overview status=%d", rr.Code)
	}
	var first overviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.Expenses.Cents != 1000 {
		t.Errorf("expenses = %d, want 1000", first.Expenses.Cents)
	}

	// A new write in the same month must invalidate the cached view.
	rr = doJSON(t, srv, http.MethodPost, "/transactions",
		`{"account_id":"`+account.ID+`","amount":"5.00","description":"tea","category":"Food","type":"expense","date":"2024-01-06"}`)
	if rr.Code != http.StatusCreated {
		t.Fatal(rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/overview?year=2024&month=1", "")
	var second overviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if second.Expenses.Cents != 1500 {
		t.Errorf("expenses after invalidation = %d, want 1500", second.Expenses.Cents)
	}
}

func TestProjectionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/accounts",
		`{"name":"Checking","type":"current","balance":"1000.00","reset":{"frequency":"monthly","day":25}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status=%d body=%s", rr.Code, rr.Body.String())
	}
	var account accountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &account); err != nil {
		t.Fatal(err)
	}

	rr = doJSON(t, srv, http.MethodPost, "/recurring-payments",
		`{"name":"Rent","amount":"900.00","frequency":"monthly","type":"expense","next_payment_date":"2024-01-20","account_id":"`+account.ID+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatal(rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/accounts/"+account.ID+"/projection", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("projection status=%d", rr.Code)
	}
	var projection projectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &projection); err != nil {
		t.Fatal(err)
	}
	if projection.Projected.Cents != 10000 {
		t.Errorf("projected = %d, want 10000", projection.Projected.Cents)
	}
	if projection.Boundary == "" {
		t.Error("boundary missing for account with reset schedule")
	}
}
