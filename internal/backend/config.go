package backend

import (
	"fmt"
	"time"

	"finquest/internal/config"
	"finquest/internal/sources/plaid"
	"finquest/internal/sources/sheets"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// DataDirectory holds the file backend's documents, the access token
	// for backends that do not store it and the transactions cache file.
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	Sheets sheets.Config

	// Live source; left disabled when the credentials are empty.
	Plaid    plaid.Config
	CacheTTL time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		Sheets: sheets.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			BudgetsSheet:       appConfig.GoogleBudgetsSheet,
			TransactionsSheet:  appConfig.GoogleTransactionsSheet,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
			OAuthClientFile:    appConfig.GoogleOAuthClientFile,
			OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		},
		Plaid: plaid.Config{
			ClientID:     appConfig.PlaidClientID,
			Secret:       appConfig.PlaidSecret,
			Environment:  appConfig.PlaidEnv,
			ClientName:   appConfig.PlaidClientName,
			ClientUserID: appConfig.PlaidClientUserID,
			LookbackDays: appConfig.PlaidLookbackDays,
		},
		CacheTTL: appConfig.TransactionsCacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.DataDirectory == "" {
		return fmt.Errorf("data directory is required")
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case FileBackend:
		// Everything lives under DataDirectory.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend, SheetsBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
