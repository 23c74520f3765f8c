package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// MaxDescriptionLen bounds expense descriptions, in runes.
const MaxDescriptionLen = 200

type (
	// Kind tags a ledger row as income or expense.
	Kind string

	// Date is a calendar day in UTC. The zero value means "no date".
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	IncomeRecord struct {
		Date     Date
		Category string // One of IncomeCategories
		Amount   Money
	}

	ExpenseRecord struct {
		Date        Date
		Description string
		Amount      Money
	}
)

// IncomeCategories is the fixed set of income labels, in display order.
var IncomeCategories = []string{
	"ค่าจัดการเรียนการสอน",
	"ค่าหนังสือเรียน",
	"ค่าอุปกรณ์การเรียน",
	"ค่าเครื่องแบบนักเรียน",
	"ค่ากิจกรรมพัฒนาคุณภาพผู้เรียน",
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingField    = errors.New("missing field")
	ErrEmptyRangeInput = errors.New("empty range input")
)

// User-facing rejection reasons.
const (
	ReasonAmountNotPositive  = "กรุณาใส่จำนวนเงินมากกว่า 0"
	ReasonAmountMalformed    = "กรุณาใส่จำนวนเงินเป็นตัวเลขที่ถูกต้อง"
	ReasonMissingDescription = "กรุณากรอกรายละเอียดรายจ่าย"
	ReasonDescriptionTooLong = "รายละเอียดรายจ่ายต้องยาวไม่เกิน 200 ตัวอักษร"
	ReasonMissingCategory    = "กรุณาเลือกหมวดหมู่รายรับ"
	ReasonEmptyRange         = "ยังไม่มีรายการสำหรับเลือกช่วงวันที่"
	ReasonDateMalformed      = "กรุณาใส่วันที่ในรูปแบบ ปปปป-ดด-วว"
)

// ValidationError is a rejection the user can fix by re-submitting the form.
// Kind is one of the Err* sentinels above, so errors.Is works on it.
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Kind.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func newValidationError(kind error, field, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}

// ReasonOf returns the user-facing reason carried by err, or "" when err is
// not a validation error.
func ReasonOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return ""
}

// Label returns the Thai display name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "รายรับ"
	case KindExpense:
		return "รายจ่าย"
	default:
		return string(k)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDateField parses a submitted date. A malformed value is a validation
// error on the date field.
func ParseDateField(s string) (Date, error) {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, newValidationError(ErrMissingField, "date", ReasonDateMalformed)
	}
	return d, nil
}

// MinYear is the earliest year a ledger date may carry. It keeps typed
// dates clear of the zero Date, which means undated.
const MinYear = 1900

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	if t.Year() < MinYear {
		return Date{}, fmt.Errorf("date %s is before %d", s, MinYear)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return newValidationError(ErrInvalidAmount, "amount", ReasonAmountNotPositive)
	}
	return nil
}

// IsIncomeCategory reports whether c is one of the fixed income labels.
func IsIncomeCategory(c string) bool {
	return slices.Contains(IncomeCategories, c)
}

// Validate checks an income candidate. The amount is checked first, so a
// non-positive amount is reported whatever the category holds.
func (r IncomeRecord) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !IsIncomeCategory(strings.TrimSpace(r.Category)) {
		return newValidationError(ErrMissingField, "category", ReasonMissingCategory)
	}
	return nil
}

// Validate checks an expense candidate. The amount is checked first.
func (r ExpenseRecord) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return newValidationError(ErrMissingField, "description", ReasonMissingDescription)
	}
	if len([]rune(desc)) > MaxDescriptionLen {
		return newValidationError(ErrMissingField, "description", ReasonDescriptionTooLong)
	}
	return nil
}
