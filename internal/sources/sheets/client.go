// Package sheets keeps budgets and the transaction snapshot in a Google
// Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

const (
	DefaultBudgetsSheet      = "Budgets"
	DefaultTransactionsSheet = "Transactions"
)

// Config selects the spreadsheet, its tabs and the credentials used to
// reach it. Service account credentials win over OAuth.
type Config struct {
	SpreadsheetID      string
	BudgetsSheet       string
	TransactionsSheet  string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// values is the part of the Sheets values API the client uses.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, rows [][]any) error
}

type Client struct {
	values            values
	budgetsSheet      string
	transactionsSheet string
	logger            *log.Logger
}

// Ensure interface conformance
var (
	_ sources.TransactionSource = (*Client)(nil)
	_ sources.BudgetStore       = (*Client)(nil)
	_ sources.SnapshotWriter    = (*Client)(nil)
)

// New creates a Sheets client authenticated per cfg.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	opts, err := clientOptions(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg, logger), nil
}

func newClient(v values, cfg Config, logger *log.Logger) *Client {
	c := &Client{
		values:            v,
		budgetsSheet:      strings.TrimSpace(cfg.BudgetsSheet),
		transactionsSheet: strings.TrimSpace(cfg.TransactionsSheet),
		logger:            logger,
	}
	if c.budgetsSheet == "" {
		c.budgetsSheet = DefaultBudgetsSheet
	}
	if c.transactionsSheet == "" {
		c.transactionsSheet = DefaultTransactionsSheet
	}
	return c
}

// clientOptions picks the credential source: inline service account JSON,
// a service account file, or an OAuth client plus a stored token.
func clientOptions(ctx context.Context, cfg Config, logger *log.Logger) ([]goption.ClientOption, error) {
	saJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	saFile := strings.TrimSpace(cfg.ServiceAccountFile)

	switch {
	case saJSON != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		return []goption.ClientOption{
			goption.WithCredentialsJSON([]byte(saJSON)),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	case saFile != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", saFile)
		data, err := os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{
			goption.WithCredentialsJSON(data),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	case cfg.OAuthClientFile != "" && cfg.OAuthTokenFile != "":
		logger.InfoContext(ctx, "Using OAuth client credentials", "token_file", cfg.OAuthTokenFile)
		clientJSON, err := os.ReadFile(cfg.OAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		oc, err := OAuthConfig(clientJSON)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(oc.TokenSource(ctx, tok))}, nil
	default:
		return nil, errors.New("missing sheets credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE)")
	}
}

// OAuthConfig parses an OAuth client secret for the spreadsheets scope.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func (c *Client) Kind() core.SourceKind { return core.SourceSheets }

// FetchTransactions reads the transactions tab.
func (c *Client) FetchTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	rows, err := c.values.Get(ctx, c.transactionsSheet+"!A:F")
	if err != nil {
		return nil, c.readError("transactions", err)
	}
	if len(rows) == 0 {
		return nil, core.NewMissingData("transactions", core.SourceSheets, nil)
	}
	raws, err := parseTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.transactionsSheet, err)
	}
	return raws, nil
}

// ReadBudgets reads the budgets tab.
func (c *Client) ReadBudgets(ctx context.Context) (core.BudgetMap, error) {
	rows, err := c.values.Get(ctx, c.budgetsSheet+"!A:B")
	if err != nil {
		return nil, c.readError("budgets", err)
	}
	if len(rows) == 0 {
		return nil, core.NewMissingData("budgets", core.SourceSheets, nil)
	}
	return parseBudgets(rows)
}

// WriteBudgets replaces the budgets tab.
func (c *Client) WriteBudgets(ctx context.Context, budgets core.BudgetMap) error {
	if err := budgets.Validate(); err != nil {
		return err
	}
	return c.replace(ctx, c.budgetsSheet, budgetRows(budgets))
}

// ReplaceTransactions replaces the transactions tab with a snapshot.
func (c *Client) ReplaceTransactions(ctx context.Context, txs []core.Transaction) error {
	if err := c.replace(ctx, c.transactionsSheet, transactionRows(txs)); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Snapshot written", log.FieldTransactionCount, len(txs))
	return nil
}

func (c *Client) replace(ctx context.Context, sheet string, rows [][]any) error {
	if err := c.values.Clear(ctx, sheet+"!A:Z"); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	if err := c.values.Update(ctx, sheet+"!A1", rows); err != nil {
		return fmt.Errorf("update %s: %w", sheet, err)
	}
	return nil
}

// readError maps a missing tab to MissingDataError.
func (c *Client) readError(resource string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound ||
			(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")) {
			return core.NewMissingData(resource, core.SourceSheets, err)
		}
	}
	return fmt.Errorf("read %s: %w", resource, err)
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}
