package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Record is a single expense ledger entry. Reimbursed is never entered
	// by a user; it is derived from Charged and OutOfPocket by the active
	// reimbursement rule.
	Record struct {
		ID           int64 // store-assigned; 0 means the store issues none
		Date         Date
		Vendor       string
		Description  string
		Location     string
		RecoveryType string
		Charged      decimal.Decimal
		Invoice      string
		ChqReq       string
		OutOfPocket  bool
		Reimbursed   decimal.Decimal
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotFound      = errors.New("record not found")
)

// DateLayout is the wire format for dates in the flat-file store and exports.
const DateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Validate checks the write-time constraints: a real date and a
// non-negative charged amount. Text fields are free-form.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.Charged.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Equal reports field equality ignoring the store-assigned ID.
func (r Record) Equal(o Record) bool {
	return r.Date.Equal(o.Date.Time) &&
		r.Vendor == o.Vendor &&
		r.Description == o.Description &&
		r.Location == o.Location &&
		r.RecoveryType == o.RecoveryType &&
		r.Charged.Equal(o.Charged) &&
		r.Invoice == o.Invoice &&
		r.ChqReq == o.ChqReq &&
		r.OutOfPocket == o.OutOfPocket &&
		r.Reimbursed.Equal(o.Reimbursed)
}
