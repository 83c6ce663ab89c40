// Package plaid is the live transaction source backed by the Plaid API:
// link token creation, public token exchange, transaction fetch and the
// sandbox shortcut used by the CLI.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	plaidapi "github.com/plaid/plaid-go/v29/plaid"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

const (
	DefaultClientName    = "FinQuest"
	DefaultLookbackDays  = 30
	DefaultInstitutionID = "ins_109508"
	defaultPageSize      = 500
)

// Config holds the Plaid credentials and request defaults.
type Config struct {
	ClientID     string
	Secret       string
	Environment  string // sandbox, development or production
	ClientName   string
	ClientUserID string
	LookbackDays int
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.Secret) != ""
}

// LinkToken is what the frontend needs to open Plaid Link.
type LinkToken struct {
	Token      string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
}

type Client struct {
	api    *plaidapi.APIClient
	cfg    Config
	tokens sources.TokenStore
	now    func() time.Time
	logger *log.Logger
}

var _ sources.TransactionSource = (*Client)(nil)

// New builds a client. It returns sources.ErrNotConfigured when the
// credentials are missing so callers can degrade to the local snapshot.
func New(cfg Config, tokens sources.TokenStore, logger *log.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, sources.ErrNotConfigured
	}
	if tokens == nil {
		return nil, errors.New("plaid: token store is required")
	}
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.ClientUserID == "" {
		cfg.ClientUserID = uuid.NewString()
	}
	if logger == nil {
		logger = log.Discard()
	}

	conf := plaidapi.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	conf.UseEnvironment(environment(cfg.Environment))

	return &Client{
		api:    plaidapi.NewAPIClient(conf),
		cfg:    cfg,
		tokens: tokens,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentPlaid),
	}, nil
}

// environment maps PLAID_ENV to a Plaid host. "development" is served by
// the sandbox.
func environment(name string) plaidapi.Environment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "production":
		return plaidapi.Production
	default:
		return plaidapi.Sandbox
	}
}

func (c *Client) Kind() core.SourceKind { return core.SourcePlaid }

// CreateLinkToken asks Plaid for a Link token for the transactions product.
func (c *Client) CreateLinkToken(ctx context.Context) (LinkToken, error) {
	user := plaidapi.LinkTokenCreateRequestUser{ClientUserId: c.cfg.ClientUserID}
	req := plaidapi.NewLinkTokenCreateRequest(
		c.cfg.ClientName,
		"en",
		[]plaidapi.CountryCode{plaidapi.COUNTRYCODE_US},
		user,
	)
	req.SetProducts([]plaidapi.Products{plaidapi.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return LinkToken{}, describeError("create link token", err)
	}
	c.logger.InfoContext(ctx, "Link token created", log.FieldOperation, log.OpLink)
	return LinkToken{Token: resp.GetLinkToken(), Expiration: resp.GetExpiration()}, nil
}

// ExchangePublicToken trades a Link public token for an access token, stores
// it and returns the item id. The access token never leaves this package.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return "", errors.New("public token is required")
	}
	req := plaidapi.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", describeError("exchange public token", err)
	}
	itemID := resp.GetItemId()
	if err := c.tokens.SaveAccessToken(ctx, resp.GetAccessToken(), itemID); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	c.logger.InfoContext(ctx, "Public token exchanged", log.FieldOperation, log.OpExchange, log.FieldItemID, itemID)
	return itemID, nil
}

// CreateSandboxPublicToken creates a public token for a sandbox institution
// without going through Link.
func (c *Client) CreateSandboxPublicToken(ctx context.Context, institutionID string) (string, error) {
	if institutionID == "" {
		institutionID = DefaultInstitutionID
	}
	req := plaidapi.NewSandboxPublicTokenCreateRequest(institutionID, []plaidapi.Products{plaidapi.PRODUCTS_TRANSACTIONS})
	resp, _, err := c.api.PlaidApi.SandboxPublicTokenCreate(ctx).SandboxPublicTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", describeError("create sandbox public token", err)
	}
	return resp.GetPublicToken(), nil
}

// FetchTransactions returns every transaction of the last LookbackDays days
// for the stored access token, following Plaid's offset pagination.
func (c *Client) FetchTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	token, err := c.tokens.LoadAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	start, end := dateWindow(c.now(), c.cfg.LookbackDays)

	var out []core.RawTransaction
	for {
		req := plaidapi.NewTransactionsGetRequest(token, start, end)
		req.SetOptions(plaidapi.TransactionsGetRequestOptions{
			Count:  plaidapi.PtrInt32(defaultPageSize),
			Offset: plaidapi.PtrInt32(int32(len(out))),
		})
		resp, _, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
		if err != nil {
			return nil, describeError("get transactions", err)
		}
		page := resp.GetTransactions()
		for _, t := range page {
			out = append(out, fromPlaid(t).raw())
		}
		if len(page) == 0 || len(out) >= int(resp.GetTotalTransactions()) {
			break
		}
	}

	c.logger.InfoContext(ctx, "Fetched live transactions",
		log.FieldOperation, log.OpFetch,
		log.FieldTransactionCount, len(out),
		"start_date", start, "end_date", end)
	if out == nil {
		out = []core.RawTransaction{}
	}
	return out, nil
}

// describeError surfaces Plaid's error code and message when the API
// returned a structured error.
func describeError(op string, err error) error {
	if perr, convErr := plaidapi.ToPlaidError(err); convErr == nil && perr.GetErrorCode() != "" {
		return fmt.Errorf("plaid %s: %s: %s: %w", op, perr.GetErrorCode(), perr.GetErrorMessage(), err)
	}
	return fmt.Errorf("plaid %s: %w", op, err)
}
