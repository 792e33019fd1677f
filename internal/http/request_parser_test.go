package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartspend/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"name":"  test\u0001 ","amount":12.5,"flag":true}`)
	if got := p.Get("name"); got != "test" {
		t.Errorf("Get(name) = %q", got)
	}
	if got := p.Get("amount"); got != "12.5" {
		t.Errorf("Get(amount) = %q", got)
	}
	if got := p.Get("flag"); got != "true" {
		t.Errorf("Get(flag) = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q", got)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "name=test&amount=12%2C50")
	if got := p.Get("amount"); got != "12,50" {
		t.Errorf("Get(amount) = %q", got)
	}
}

func TestRequestBodyParser_Empty(t *testing.T) {
	p := newParser(t, "", "")
	if got := p.Get("anything"); got != "" {
		t.Errorf("Get on empty body = %q", got)
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken":`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); !errors.Is(err, errMalformedBody) {
		t.Fatalf("Parse() = %v, want errMalformedBody", err)
	}
	// Parse is idempotent
	if err := p.Parse(); !errors.Is(err, errMalformedBody) {
		t.Fatalf("second Parse() = %v", err)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "description=" + strings.Repeat("x", maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestParseTransaction(t *testing.T) {
	now := time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		body     string
		wantKind core.Kind
		wantTx   core.Transaction
		wantErr  error
	}{
		{
			name:     "all fields",
			body:     "kind=income&year=2024&month=6&day=15&amount=%E2%82%AC+1.234,56&description=Salary",
			wantKind: core.Earning,
			wantTx:   core.Transaction{Year: 2024, Month: 6, Day: 15, Amount: 1234.56, Description: "Salary"},
		},
		{
			name:     "defaults to current month",
			body:     "kind=expense&amount=3",
			wantKind: core.Spending,
			wantTx:   core.Transaction{Year: 2025, Month: 7, Amount: 3},
		},
		{
			name:    "invalid kind",
			body:    "kind=loan&amount=3",
			wantErr: core.ErrInvalidKind,
		},
		{
			name:    "month out of range",
			body:    "kind=earning&month=0&amount=3",
			wantErr: core.ErrInvalidPeriod,
		},
		{
			name:    "garbage day",
			body:    "kind=earning&day=x&amount=3",
			wantErr: core.ErrInvalidDay,
		},
		{
			name:    "garbage amount",
			body:    "kind=earning&amount=12abc",
			wantErr: core.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, "application/x-www-form-urlencoded", tt.body)
			kind, tx, err := ParseTransaction(p, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if tx != tt.wantTx {
				t.Errorf("tx = %+v, want %+v", tx, tt.wantTx)
			}
		})
	}
}

func TestParseRegistration_KeepsPasswordVerbatim(t *testing.T) {
	p := newParser(t, "application/json", `{"name":" Ada ","email":"ada@example.com","password":"  spaced pass  "}`)
	reg := ParseRegistration(p)
	if reg.Name != "Ada" {
		t.Errorf("Name = %q", reg.Name)
	}
	if reg.Password != "  spaced pass  " {
		t.Errorf("Password = %q", reg.Password)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
