package core

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestPeriodKeyValidate(t *testing.T) {
	cases := []struct {
		p  PeriodKey
		ok bool
	}{
		{PeriodKey{2024, 1}, true},
		{PeriodKey{2024, 12}, true},
		{PeriodKey{2024, 0}, false},
		{PeriodKey{2024, 13}, false},
		{PeriodKey{0, 5}, false},
		{PeriodKey{-1, 5}, false},
	}
	for i, tc := range cases {
		err := tc.p.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("case %d expected ErrInvalidPeriod, got %v", i, err)
		}
	}
}

func TestPeriodKeyIndexOrdersChronologically(t *testing.T) {
	dec := PeriodKey{2023, 12}
	jan := PeriodKey{2024, 1}
	feb := PeriodKey{2024, 2}
	if !dec.Before(jan) || !jan.Before(feb) {
		t.Fatalf("expected %v < %v < %v", dec, jan, feb)
	}
	if jan.Index()-dec.Index() != 1 {
		t.Fatalf("expected consecutive indexes, got %d and %d", dec.Index(), jan.Index())
	}
}

func TestPeriodKeyLabel(t *testing.T) {
	if got := (PeriodKey{2024, 3}).Label(); got != "3/2024" {
		t.Fatalf("expected 3/2024, got %q", got)
	}
	if got := (PeriodKey{1999, 11}).Label(); got != "11/1999" {
		t.Fatalf("expected 11/1999, got %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Year: 2024, Month: 2, Day: 29, Amount: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := Transaction{Year: 2024, Month: 2, Amount: 0}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Year: 2024, Month: 13, Amount: 1}, ErrInvalidPeriod},
		{Transaction{Year: 0, Month: 1, Amount: 1}, ErrInvalidPeriod},
		{Transaction{Year: 2024, Month: 1, Day: 32, Amount: 1}, ErrInvalidDay},
		{Transaction{Year: 2024, Month: 1, Amount: -1}, ErrInvalidAmount},
		{Transaction{Year: 2024, Month: 1, Amount: math.NaN()}, ErrInvalidAmount},
		{Transaction{Year: 2024, Month: 1, Amount: math.Inf(1)}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"earning":   Earning,
		" Earnings": Earning,
		"income":    Earning,
		"spending":  Spending,
		"EXPENSE":   Spending,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("savings"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if err := Kind("x").Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestRegistrationValidate(t *testing.T) {
	good := Registration{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	longest := good
	longest.Password = strings.Repeat("x", MaxPasswordBytes)
	if err := longest.Validate(); err != nil {
		t.Fatalf("expected %d-byte password to pass, got %v", MaxPasswordBytes, err)
	}

	bads := []struct {
		r    Registration
		want error
	}{
		{Registration{Name: " ", Email: "ada@example.com", Password: "12345678"}, ErrEmptyName},
		{Registration{Name: "Ada", Email: "not-an-email", Password: "12345678"}, ErrInvalidEmail},
		{Registration{Name: "Ada", Email: "Ada <ada@example.com>", Password: "12345678"}, ErrInvalidEmail},
		{Registration{Name: "Ada", Email: "ada@example.com", Password: "short"}, ErrWeakPassword},
		{Registration{Name: "Ada", Email: "ada@example.com", Password: strings.Repeat("x", 73)}, ErrPasswordTooLong},
	}
	for i, tc := range bads {
		if err := tc.r.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	if got := (Registration{Email: "  Ada@Example.COM "}).NormalizedEmail(); got != "ada@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
