package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartspend/internal/core"
)

// maxBodyBytes bounds every request body the API reads.
const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a JSON or form-encoded body once and serves
// sanitized string values from it.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object, and as
// form values otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p.err
}

// Get returns a sanitized value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseTransaction builds a kind and transaction from the parsed body.
// Missing year and month default to the current month.
func ParseTransaction(p *RequestBodyParser, now time.Time) (core.Kind, core.Transaction, error) {
	kind, err := core.ParseKind(p.Get("kind"))
	if err != nil {
		return "", core.Transaction{}, err
	}

	year, err := atoiDefault(p.Get("year"), now.Year())
	if err != nil {
		return "", core.Transaction{}, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, p.Get("year"))
	}
	month, err := atoiDefault(p.Get("month"), int(now.Month()))
	if err != nil {
		return "", core.Transaction{}, fmt.Errorf("%w: month %q", core.ErrInvalidPeriod, p.Get("month"))
	}
	day, err := atoiDefault(p.Get("day"), 0)
	if err != nil {
		return "", core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidDay, p.Get("day"))
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return "", core.Transaction{}, err
	}

	desc := p.Get("description")
	if len(desc) > 200 {
		return "", core.Transaction{}, errors.New("description too long (max 200 characters)")
	}

	tx := core.Transaction{
		Year:        year,
		Month:       month,
		Day:         day,
		Amount:      amount,
		Description: desc,
	}
	return kind, tx, tx.Validate()
}

// ParseRegistration reads the sign-up fields. The password is not sanitized.
func ParseRegistration(p *RequestBodyParser) core.Registration {
	password := ""
	if p.jsonData != nil {
		password = stringValue(p.jsonData["password"])
	} else if p.formData != nil {
		password = p.formData.Get("password")
	}
	return core.Registration{
		Name:     p.Get("name"),
		Email:    p.Get("email"),
		Password: password,
	}
}
