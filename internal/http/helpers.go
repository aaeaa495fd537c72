package http

import (
	"net/http"
	"strings"

	"budget/internal/core"
)

// parseRecordForm builds a draft record from the add-expense form.
// Validation beyond type coercion happens in the ledger.
func parseRecordForm(r *http.Request) (core.Record, error) {
	date, err := core.ParseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		return core.Record{}, err
	}
	charged, err := core.ParseAmount(r.Form.Get("charged_amount"))
	if err != nil {
		return core.Record{}, err
	}

	return core.Record{
		Date:         date,
		Vendor:       strings.TrimSpace(r.Form.Get("vendor")),
		Description:  strings.TrimSpace(r.Form.Get("description")),
		Location:     strings.TrimSpace(r.Form.Get("location")),
		RecoveryType: strings.TrimSpace(r.Form.Get("recovery_type")),
		Charged:      charged,
		Invoice:      strings.TrimSpace(r.Form.Get("invoice")),
		ChqReq:       strings.TrimSpace(r.Form.Get("chq_req")),
		OutOfPocket:  r.Form.Get("out_of_pocket") != "",
	}, nil
}

// rowView is a display row for the ledger table.
type rowView struct {
	ID           int64
	Date         string
	Vendor       string
	Description  string
	Location     string
	RecoveryType string
	Charged      string
	Reimbursed   string
	Invoice      string
	ChqReq       string
	OutOfPocket  bool
}

func toRowViews(records []core.Record) []rowView {
	out := make([]rowView, len(records))
	for i, r := range records {
		out[i] = rowView{
			ID:           r.ID,
			Date:         r.Date.String(),
			Vendor:       r.Vendor,
			Description:  r.Description,
			Location:     r.Location,
			RecoveryType: r.RecoveryType,
			Charged:      r.Charged.StringFixed(2),
			Reimbursed:   r.Reimbursed.StringFixed(2),
			Invoice:      r.Invoice,
			ChqReq:       r.ChqReq,
			OutOfPocket:  r.OutOfPocket,
		}
	}
	return out
}
