package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/ledger"
	"budget/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *auth.Session) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	session := auth.NewSession(auth.NewVerifier(map[string]string{"chad": string(hash)}))
	l := ledger.New(memory.New(), nil, core.OutOfPocketRule, decimal.NewFromInt(10000))
	return NewServer(":0", l, session), session
}

func login(t *testing.T, s *Server) {
	t.Helper()
	form := url.Values{"username": {"chad"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func expenseForm(vendor, amount string, oop bool) url.Values {
	form := url.Values{
		"date":           {"2025-06-01"},
		"vendor":         {vendor},
		"description":    {"desc"},
		"location":       {"HQ"},
		"recovery_type":  {"travel"},
		"charged_amount": {amount},
		"invoice":        {"INV-1"},
		"chq_req":        {"CHQ-1"},
	}
	if oop {
		form.Set("out_of_pocket", "1")
	}
	return form
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/", "/expenses", "/export/reimbursed"} {
		rec := get(s, path)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s expected redirect to /login, got %d %s", path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestHealthEndpointsSkipLogin(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := get(s, path); rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, rec.Code)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s, session := newTestServer(t)

	rec := postForm(s, "/login", url.Values{"username": {"chad"}, "password": {"nope"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Wrong credentials") {
		t.Fatalf("expected error message, got %q", rec.Body.String())
	}
	if session.LoggedIn() {
		t.Fatalf("failed login must not authenticate")
	}
}

func TestLoginLockout(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < auth.MaxAttempts; i++ {
		postForm(s, "/login", url.Values{"username": {"chad"}, "password": {"nope"}})
	}

	rec := postForm(s, "/login", url.Values{"username": {"chad"}, "password": {"hunter2"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after lockout, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Too many failed logins") {
		t.Fatalf("expected lockout message, got %q", rec.Body.String())
	}
}

func TestAddDeleteFlow(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := postForm(s, "/expenses", expenseForm("Acme", "1000", false))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}

	page := get(s, "/")
	body := page.Body.String()
	if !strings.Contains(body, "Acme") {
		t.Fatalf("ledger page missing added record:\n%s", body)
	}
	// Fully reimbursed record leaves the budget untouched.
	if !strings.Contains(body, "$10000.00") {
		t.Fatalf("expected untouched remaining budget:\n%s", body)
	}

	rec = postForm(s, "/expenses/delete", url.Values{"id": {"1"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete expected redirect, got %d", rec.Code)
	}
	if body := get(s, "/").Body.String(); strings.Contains(body, "Acme") {
		t.Fatalf("record still present after delete")
	}
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := postForm(s, "/expenses/delete", url.Values{"id": {"42"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("deleting a nonexistent id should not surface an error, got %d", rec.Code)
	}
}

func TestSummaryReflectsOutOfPocket(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	postForm(s, "/expenses", expenseForm("Acme", "500", true))

	body := get(s, "/").Body.String()
	if !strings.Contains(body, "$500.00") {
		t.Fatalf("expected spent 500:\n%s", body)
	}
	if !strings.Contains(body, "$9500.00") {
		t.Fatalf("expected remaining 9500:\n%s", body)
	}
	if !strings.Contains(body, `class="oop"`) {
		t.Fatalf("out-of-pocket row should carry the highlight class")
	}
}

func TestAddRejectsMalformedInput(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	form := expenseForm("Acme", "not-a-number", false)
	if rec := postForm(s, "/expenses", form); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad amount, got %d", rec.Code)
	}

	form = expenseForm("Acme", "10", false)
	form.Set("date", "01/06/2025")
	if rec := postForm(s, "/expenses", form); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date, got %d", rec.Code)
	}
}

func TestExportDownloads(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	postForm(s, "/expenses", expenseForm("Reimbursable", "100", false))
	postForm(s, "/expenses", expenseForm("Pocket", "50", true))

	cases := []struct {
		path     string
		filename string
		vendor   string
	}{
		{"/export/reimbursed", export.ReimbursedFilename, "Reimbursable"},
		{"/export/out-of-pocket", export.OutOfPocketFilename, "Pocket"},
	}
	for _, tc := range cases {
		rec := get(s, tc.path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", tc.path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != export.ContentType {
			t.Fatalf("%s unexpected content type %q", tc.path, got)
		}
		if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, tc.filename) {
			t.Fatalf("%s unexpected disposition %q", tc.path, got)
		}

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("%s not a workbook: %v", tc.path, err)
		}
		rows, err := f.GetRows(export.SheetName)
		f.Close()
		if err != nil {
			t.Fatalf("%s rows: %v", tc.path, err)
		}
		if len(rows) != 2 || rows[1][1] != tc.vendor {
			t.Fatalf("%s expected single row for %s, got %v", tc.path, tc.vendor, rows)
		}
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, core.Record) (int64, error) {
	return 0, errors.New("store down")
}
func (failingStore) Delete(context.Context, int64) error { return errors.New("store down") }
func (failingStore) List(context.Context) ([]core.Record, error) {
	return nil, errors.New("store down")
}

func TestStoreFailureDegrades(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	session := auth.NewSession(auth.NewVerifier(map[string]string{"u": string(hash)}))
	l := ledger.New(failingStore{}, nil, core.OutOfPocketRule, decimal.NewFromInt(100))
	s := NewServer(":0", l, session)
	if err := session.Login("u", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Read failure: page renders with an error banner and an empty ledger.
	rec := get(s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty view") {
		t.Fatalf("expected error banner:\n%s", rec.Body.String())
	}

	// Write failure: recoverable error, not a crash.
	if rec := postForm(s, "/expenses", expenseForm("Acme", "10", false)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for write failure, got %d", rec.Code)
	}
}
