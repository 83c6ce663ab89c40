package services

import (
	"context"
	"fmt"
	"strings"

	"finquest/internal/log"
	"finquest/internal/sources"
	"finquest/internal/sources/plaid"
)

// LinkProvider is the aggregator's account-linking API.
type LinkProvider interface {
	CreateLinkToken(ctx context.Context) (plaid.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	CreateSandboxPublicToken(ctx context.Context, institutionID string) (string, error)
}

// CredentialService links bank accounts and stores the resulting access
// token through the provider.
type CredentialService struct {
	provider LinkProvider
	logger   *log.Logger
}

// NewCredentialService accepts a nil provider; every call then fails with
// sources.ErrNotConfigured.
func NewCredentialService(provider LinkProvider, logger *log.Logger) *CredentialService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CredentialService{
		provider: provider,
		logger:   logger.WithComponent(log.ComponentCredential),
	}
}

func (s *CredentialService) LinkToken(ctx context.Context) (plaid.LinkToken, error) {
	if s.provider == nil {
		return plaid.LinkToken{}, sources.ErrNotConfigured
	}
	return s.provider.CreateLinkToken(ctx)
}

// Exchange stores the access token for publicToken and returns the item id.
func (s *CredentialService) Exchange(ctx context.Context, publicToken string) (string, error) {
	if s.provider == nil {
		return "", sources.ErrNotConfigured
	}
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return "", fmt.Errorf("%w: public_token is required", ErrInvalidInput)
	}
	itemID, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Account linked", log.FieldItemID, itemID)
	return itemID, nil
}

// SandboxLink links a sandbox institution without the Link UI.
func (s *CredentialService) SandboxLink(ctx context.Context, institutionID string) (string, error) {
	if s.provider == nil {
		return "", sources.ErrNotConfigured
	}
	publicToken, err := s.provider.CreateSandboxPublicToken(ctx, institutionID)
	if err != nil {
		return "", err
	}
	return s.Exchange(ctx, publicToken)
}
