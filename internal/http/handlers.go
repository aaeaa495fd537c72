package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/export"
)

type ledgerPage struct {
	BudgetTotal string
	Spent       string
	Remaining   string
	Records     []rowView
	Error       string
}

type loginPage struct {
	Error        string
	AttemptsLeft int
	Locked       bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page := ledgerPage{}

	records, err := s.ledger.List(r.Context())
	if err != nil {
		// Degraded but available: render the page empty with the error.
		slog.ErrorContext(r.Context(), "Failed to load ledger", "error", err)
		page.Error = "Could not load the expense ledger. Showing an empty view."
		records = nil
	}

	summary := core.Summarize(records, s.ledger.BudgetTotal())
	page.BudgetTotal = summary.TotalBudget.StringFixed(2)
	page.Spent = summary.Spent.StringFixed(2)
	page.Remaining = summary.Remaining.StringFixed(2)
	page.Records = toRowViews(records)

	s.render(w, r, "index.html", page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.session.LoggedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page := loginPage{AttemptsLeft: s.session.AttemptsLeft()}
	page.Locked = page.AttemptsLeft == 0

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		err := s.session.Login(r.Form.Get("username"), r.Form.Get("password"))
		if err == nil {
			slog.InfoContext(r.Context(), "Login succeeded")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		page.AttemptsLeft = s.session.AttemptsLeft()
		if errors.Is(err, auth.ErrLocked) {
			slog.WarnContext(r.Context(), "Login locked out")
			page.Locked = true
			page.Error = "Too many failed logins. Restart the app."
		} else {
			slog.WarnContext(r.Context(), "Login failed", "attempts_left", page.AttemptsLeft)
			page.Error = fmt.Sprintf("Wrong credentials. %d tries left.", page.AttemptsLeft)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}

	s.render(w, r, "login.html", page)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	draft, err := parseRecordForm(r)
	if err != nil {
		slog.WarnContext(r.Context(), "Rejected expense form", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("Invalid expense: " + err.Error()))
		return
	}

	id, err := s.ledger.Add(r.Context(), draft)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save expense",
			"error", err,
			"vendor", draft.Vendor,
			"charged", draft.Charged.String())
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Error saving expense"))
		return
	}

	slog.InfoContext(r.Context(), "Expense created", "id", id, "vendor", draft.Vendor)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var id int64
	if _, err := fmt.Sscanf(r.Form.Get("id"), "%d", &id); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid record id"))
		return
	}

	err := s.ledger.Delete(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		// Already gone; the user gets the same result either way.
		slog.InfoContext(r.Context(), "Delete of unknown record ignored", "id", id)
	} else if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete expense", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Error deleting expense"))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExportReimbursed(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, false, export.ReimbursedFilename)
}

func (s *Server) handleExportOutOfPocket(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, true, export.OutOfPocketFilename)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, outOfPocket bool, filename string) {
	records, err := s.ledger.ExportView(r.Context(), outOfPocket)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build export view", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Error building export"))
		return
	}

	blob, err := export.Records(records)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to serialize export", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Error building export"))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(blob)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template render failed", "template", name, "error", err)
	}
}
