package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"finquest/internal/config"
	"finquest/internal/sources/sheets"
)

const authTimeout = 5 * time.Minute

func newSheetsAuthCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access and store the OAuth token",
		Long:  "Runs the OAuth consent flow for GOOGLE_OAUTH_CLIENT_FILE and writes the token to GOOGLE_OAUTH_TOKEN_FILE. Add http://localhost:<port>/callback to the client's redirect URIs first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Not validated: the token file this command creates may be
			// required by the sheets backend settings.
			cfg := config.Load()
			if cfg.GoogleOAuthClientFile == "" {
				return errors.New("set GOOGLE_OAUTH_CLIENT_FILE")
			}
			clientJSON, err := os.ReadFile(cfg.GoogleOAuthClientFile)
			if err != nil {
				return fmt.Errorf("read client file: %w", err)
			}
			oauthCfg, err := sheets.OAuthConfig(clientJSON)
			if err != nil {
				return err
			}
			oauthCfg.RedirectURL = "http://localhost:" + port + "/callback"

			tokenFile := cfg.GoogleOAuthTokenFile
			if tokenFile == "" {
				tokenFile = "token.json"
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()
			tok, err := authorize(ctx, oauthCfg, ":"+port, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := sheets.SaveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved token to %s\n", green("✓"), tokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "Local port for the OAuth redirect")
	return cmd
}

// authorize serves the redirect on addr and exchanges the returned code.
func authorize(ctx context.Context, cfg *oauth2.Config, addr string, show func(url string)) (*oauth2.Token, error) {
	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			select {
			case errs <- fmt.Errorf("authorization denied: %s", q.Get("error")):
			default:
			}
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			select {
			case codes <- q.Get("code"):
			default:
			}
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errs <- err:
			default:
			}
		}
	}()
	defer srv.Close()

	show(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codes:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}
