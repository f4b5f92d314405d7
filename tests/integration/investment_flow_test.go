package integration

import (
	"net/http"
	"testing"
)

func TestInvestmentFlow(t *testing.T) {
	app := setupApp(t)
	token := app.onboardStudent(t, "500")

	// No account yet.
	rec := app.request("GET", "/api/v1/investment", "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before opening, got %d", rec.Code)
	}

	// Open with a starting balance.
	rec = app.request("POST", "/api/v1/investment", `{"initial_amount":"1000","monthly_interest_rate":"5"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open failed: %d %s", rec.Code, rec.Body.String())
	}
	inv := parseJSON(t, rec)["investment"].(map[string]interface{})
	if inv["balance"] != "1000" {
		t.Errorf("expected balance 1000, got %v", inv["balance"])
	}

	// Opening twice conflicts.
	rec = app.request("POST", "/api/v1/investment", `{"initial_amount":"0","monthly_interest_rate":"5"}`, token)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on second open, got %d", rec.Code)
	}

	// Overdraw fails and leaves the balance untouched.
	rec = app.request("POST", "/api/v1/investment/withdraw", `{"amount":"1200"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on overdraw, got %d %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "INSUFFICIENT_FUNDS" {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %v", errObj["code"])
	}

	rec = app.request("GET", "/api/v1/investment", "", token)
	inv = parseJSON(t, rec)["investment"].(map[string]interface{})
	if inv["balance"] != "1000" {
		t.Errorf("expected balance unchanged at 1000, got %v", inv["balance"])
	}

	// Interest credits once, then no-ops within the same month.
	rec = app.request("POST", "/api/v1/investment/interest", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("interest failed: %d %s", rec.Code, rec.Body.String())
	}
	txn := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if txn["amount"] != "50" {
		t.Errorf("expected interest 50, got %v", txn["amount"])
	}
	if txn["balance_after"] != "1050" {
		t.Errorf("expected balance 1050, got %v", txn["balance_after"])
	}

	rec = app.request("POST", "/api/v1/investment/interest", "", token)
	if parseJSON(t, rec)["transaction"] != nil {
		t.Error("expected same-month interest to be a no-op")
	}

	// Withdraw within balance; the response carries the updated account.
	rec = app.request("POST", "/api/v1/investment/withdraw", `{"amount":"300","notes":"books"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("withdraw failed: %d %s", rec.Code, rec.Body.String())
	}
	inv = parseJSON(t, rec)["investment"].(map[string]interface{})
	if inv["balance"] != "750" {
		t.Errorf("expected balance 750, got %v", inv["balance"])
	}

	// Summary: log newest first, totals derived from the log.
	rec = app.request("GET", "/api/v1/investment/summary", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary failed: %d %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)
	transactions := summary["transactions"].([]interface{})
	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}
	newest := transactions[0].(map[string]interface{})
	if newest["type"] != "WITHDRAW" {
		t.Errorf("expected newest entry WITHDRAW, got %v", newest["type"])
	}
	totals := summary["totals"].(map[string]interface{})
	if totals["total_invested"] != "1000" {
		t.Errorf("expected invested 1000, got %v", totals["total_invested"])
	}
	if totals["total_interest_earned"] != "50" {
		t.Errorf("expected interest 50, got %v", totals["total_interest_earned"])
	}
	if totals["total_withdrawn"] != "300" {
		t.Errorf("expected withdrawn 300, got %v", totals["total_withdrawn"])
	}
	balance := summary["investment"].(map[string]interface{})["balance"]
	if balance != "750" {
		t.Errorf("expected balance 750, got %v", balance)
	}
}
