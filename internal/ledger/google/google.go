package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ensure interface conformance
var (
	_ ledger.TransactionWriter = (*Client)(nil)
	_ ledger.TransactionSource = (*Client)(nil)
	_ ledger.UserRegistrar     = (*Client)(nil)
)

// Config names the spreadsheet and its tabs.
type Config struct {
	SpreadsheetID string
	EarningsSheet string
	SpendingSheet string
	UsersSheet    string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.EarningsSheet) == "" {
		c.EarningsSheet = "Earnings"
	}
	if strings.TrimSpace(c.SpendingSheet) == "" {
		c.SpendingSheet = "Spending"
	}
	if strings.TrimSpace(c.UsersSheet) == "" {
		c.UsersSheet = "Users"
	}
	return c
}

// Client stores transactions in one tab per kind with the columns
// Year | Month | Day | Amount | Description, and users in a separate tab.
type Client struct {
	svc *gsheet.Service
	cfg Config
}

// New creates a Sheets client authenticated with service account credentials
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	return &Client{svc: svc, cfg: cfg.withDefaults()}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) sheetFor(kind core.Kind) (string, error) {
	switch kind {
	case core.Earning:
		return c.cfg.EarningsSheet, nil
	case core.Spending:
		return c.cfg.SpendingSheet, nil
	}
	return "", kind.Validate()
}

// Submit appends the transaction as a new row and returns the updated range.
func (c *Client) Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet, err := c.sheetFor(kind)
	if err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{{tx.Year, tx.Month, tx.Day, tx.Amount, tx.Description}}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, sheet+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transaction appended to Google Sheets", "kind", kind, "ref", ref)
	return ref, nil
}

// ListTransactions reads every row of the kind's tab. Headers, notes and
// blank rows are skipped; numeric rows are returned unvalidated so that bad
// data surfaces in the chart instead of vanishing.
func (c *Client) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	sheet, err := c.sheetFor(kind)
	if err != nil {
		return nil, err
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := sheet + "!A:E"
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	txs, skipped := parseTransactions(resp.Values)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unparsable sheet rows", "sheet", sheet, "skipped", skipped)
	}
	return txs, nil
}

// RegisterUser appends the user to the users tab after checking that the
// email is not already present.
func (c *Client) RegisterUser(ctx context.Context, u core.User) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	emailRange := c.cfg.UsersSheet + "!B:B"
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, emailRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", emailRange, err)
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, row := range resp.Values {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), email) {
			return "", core.ErrEmailTaken
		}
	}

	vr := &gsheet.ValueRange{Values: [][]any{{u.ID, email, u.Name, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339)}}}
	appended, err := c.svc.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, c.cfg.UsersSheet+"!A:E", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append user: %w", err)
	}
	if appended.Updates != nil && appended.Updates.UpdatedRange != "" {
		return appended.Updates.UpdatedRange, nil
	}
	return c.cfg.UsersSheet, nil
}
