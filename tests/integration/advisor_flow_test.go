package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAdvisorFlow(t *testing.T) {
	app := setupApp(t)
	token := app.onboardStudent(t, "90")
	food := app.createCategory(t, "Food")

	// Healthy budget raises nothing.
	rec := app.request("POST", "/api/v1/alerts/evaluate", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate failed: %d %s", rec.Code, rec.Body.String())
	}
	alerts := parseJSON(t, rec)["alerts"].([]interface{})
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts on a fresh budget, got %d", len(alerts))
	}

	// Overspend the whole budget.
	body := fmt.Sprintf(`{"category_id":%d,"amount":"120"}`, food)
	rec = app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/alerts/evaluate", "", token)
	alerts = parseJSON(t, rec)["alerts"].([]interface{})
	if len(alerts) == 0 {
		t.Fatal("expected alerts after overspending")
	}
	titles := map[string]bool{}
	for _, a := range alerts {
		titles[a.(map[string]interface{})["title"].(string)] = true
	}
	if !titles["Budget Exhausted"] {
		t.Errorf("expected Budget Exhausted alert, got %v", titles)
	}

	// Same-day re-evaluation is idempotent.
	rec = app.request("POST", "/api/v1/alerts/evaluate", "", token)
	again := parseJSON(t, rec)["alerts"].([]interface{})
	if len(again) != 0 {
		t.Errorf("expected no new alerts on re-evaluation, got %d", len(again))
	}

	// Alerts are listed and counted.
	rec = app.request("GET", "/api/v1/alerts", "", token)
	list := parseJSON(t, rec)
	total := list["total_items"].(float64)
	if int(total) != len(alerts) {
		t.Errorf("expected %d stored alerts, got %v", len(alerts), total)
	}

	rec = app.request("GET", "/api/v1/alerts/unread-count", "", token)
	unread := parseJSON(t, rec)["unread"].(float64)
	if int(unread) != len(alerts) {
		t.Errorf("expected %d unread, got %v", len(alerts), unread)
	}

	// Read one, resolve it, and watch the counters move.
	first := list["data"].([]interface{})[0].(map[string]interface{})
	id := int(first["id"].(float64))

	rec = app.request("PUT", fmt.Sprintf("/api/v1/alerts/%d/read", id), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("read failed: %d %s", rec.Code, rec.Body.String())
	}
	alert := parseJSON(t, rec)["alert"].(map[string]interface{})
	if alert["is_read"] != true {
		t.Error("expected alert marked read")
	}

	rec = app.request("GET", "/api/v1/alerts/unread-count", "", token)
	unread = parseJSON(t, rec)["unread"].(float64)
	if int(unread) != len(alerts)-1 {
		t.Errorf("expected %d unread after reading one, got %v", len(alerts)-1, unread)
	}

	rec = app.request("PUT", fmt.Sprintf("/api/v1/alerts/%d/resolve", id), "", token)
	alert = parseJSON(t, rec)["alert"].(map[string]interface{})
	if alert["is_resolved"] != true {
		t.Error("expected alert resolved")
	}

	// Deleting removes it from the store.
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/alerts/%d", id), "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/alerts", "", token)
	list = parseJSON(t, rec)
	if int(list["total_items"].(float64)) != len(alerts)-1 {
		t.Errorf("expected %d alerts after delete, got %v", len(alerts)-1, list["total_items"])
	}
}

func TestAdvisorWithdrawalHint(t *testing.T) {
	app := setupApp(t)
	token := app.onboardStudent(t, "90")
	food := app.createCategory(t, "Food")

	rec := app.request("POST", "/api/v1/investment", `{"initial_amount":"200","monthly_interest_rate":"5"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open failed: %d %s", rec.Code, rec.Body.String())
	}

	body := fmt.Sprintf(`{"category_id":%d,"amount":"120"}`, food)
	rec = app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/alerts/evaluate", "", token)
	alerts := parseJSON(t, rec)["alerts"].([]interface{})

	found := false
	for _, a := range alerts {
		if a.(map[string]interface{})["title"] == "Consider Withdrawing from Investment" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected withdrawal hint when over budget with invested funds, got %v", alerts)
	}
}
