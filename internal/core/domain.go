package core

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	Earning  Kind = "earning"
	Spending Kind = "spending"
)

type (
	// Kind tells which series a transaction belongs to.
	Kind string

	// Transaction is a single dated money movement. Day and Description are
	// kept for storage only; aggregation looks at Year and Month.
	Transaction struct {
		Year        int     `json:"year"`
		Month       int     `json:"month"` // 1-12
		Day         int     `json:"day,omitempty"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description,omitempty"`
	}

	// PeriodKey identifies a calendar month.
	PeriodKey struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}

	// Registration is an immutable sign-up form submission.
	Registration struct {
		Name     string
		Email    string
		Password string
	}

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDay      = errors.New("invalid day")
	ErrDuplicatePeriod = errors.New("duplicate period")
	ErrInvalidKind     = errors.New("invalid kind")

	ErrEmptyName       = errors.New("empty name")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNotFound        = errors.New("not found")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Kinds lists every valid Kind in display order.
func Kinds() []Kind {
	return []Kind{Earning, Spending}
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Validate() error {
	if !slices.Contains(Kinds(), k) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}

// ParseKind accepts the canonical names plus the plural forms used by the UI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earning", "earnings", "income":
		return Earning, nil
	case "spending", "expense", "expenses":
		return Spending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (p PeriodKey) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPeriod, p.Month)
	}
	if p.Year <= 0 {
		return fmt.Errorf("%w: year %d must be positive", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Index encodes the key as a month count so that ordering by Index is
// chronological ordering.
func (p PeriodKey) Index() int {
	return p.Year*12 + (p.Month - 1)
}

// Before reports whether p is strictly earlier than q.
func (p PeriodKey) Before(q PeriodKey) bool {
	return p.Index() < q.Index()
}

// Label renders the key as "<month>/<year>" without zero padding.
func (p PeriodKey) Label() string {
	return strconv.Itoa(p.Month) + "/" + strconv.Itoa(p.Year)
}

func (p PeriodKey) String() string {
	return p.Label()
}

// Period returns the grouping key of the transaction.
func (t Transaction) Period() PeriodKey {
	return PeriodKey{Year: t.Year, Month: t.Month}
}

func (t Transaction) Validate() error {
	if err := t.Period().Validate(); err != nil {
		return err
	}
	if t.Day < 0 || t.Day > 31 {
		return fmt.Errorf("%w: %d", ErrInvalidDay, t.Day)
	}
	return ValidateAmount(t.Amount)
}

// ValidateAmount rejects negative, NaN and infinite amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v is not a finite number", ErrInvalidAmount, amount)
	}
	if amount < 0 {
		return fmt.Errorf("%w: %v is negative", ErrInvalidAmount, amount)
	}
	return nil
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if len(r.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
	if err != nil || addr.Address != strings.TrimSpace(r.Email) {
		return ErrInvalidEmail
	}
	if len(r.Password) < 8 {
		return ErrWeakPassword
	}
	if len(r.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// NormalizedEmail is the lookup form of the email address.
func (r Registration) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}
