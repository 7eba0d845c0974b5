// Package authflow implements the client side of the OAuth2
// authorization-code grant against the Tiny ERP identity endpoints.
package authflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/jrsteele09/tiny-orders-web/internal/errors"
)

const (
	// stateLength is the number of random bytes in a state nonce
	stateLength = 16

	// httpTimeout bounds the server-to-server token exchange call
	httpTimeout = 10 * time.Second
)

// Token is the outcome of a successful code exchange. RefreshToken and
// Expiry are decoded when the server sends them but are not persisted
// anywhere; the session keeps only the access token and its type.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
}

// Flow drives the authorization-code grant: it builds the authorization
// redirect URL and exchanges callback codes for tokens.
type Flow struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// New creates a Flow for the given client registration and endpoints.
// AuthStyleInParams sends client_id and client_secret in the POST body,
// which is what the Tiny token endpoint expects.
func New(clientID, clientSecret, redirectURI, authURL, tokenURL string) *Flow {
	return &Flow{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// NewState creates a random base64url state nonce for CSRF protection
func NewState() string {
	b := make([]byte, stateLength)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// AuthCodeURL returns the authorization URL the browser is redirected to:
// AUTHORIZATION_URL?response_type=code&client_id=…&redirect_uri=…&state=…
// with all values percent-encoded.
func (f *Flow) AuthCodeURL(state string) string {
	return f.oauthConfig.AuthCodeURL(state)
}

// Exchange swaps an authorization code for a token via a form-encoded POST
// to the token endpoint (grant_type=authorization_code, code, client_id,
// client_secret, redirect_uri). Transport failures and non-2xx responses
// come back wrapping errors.ErrTokenExchange with the underlying cause,
// including the response body when the server sent one.
func (f *Flow) Exchange(ctx context.Context, code string) (Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	tok, err := f.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return Token{}, errors.Wrapf(errors.ErrTokenExchange, "%s", err.Error())
	}
	if tok.AccessToken == "" {
		return Token{}, errors.ErrEmptyToken
	}

	// Token.Type() defaults to "Bearer" when the server omits token_type
	return Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}
