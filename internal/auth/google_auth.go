package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/justsurfingit/career-atlas/internal/models"
)

// ErrUnauthenticated is returned when a token does not identify a user.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityProvider resolves an access token to the signed-in user.
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (*models.User, error)
}

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// GoogleProvider signs users in with Google. Sign-up is simply the first
// sign-in; there is no separate registration.
type GoogleProvider struct {
	config *oauth2.Config

	// overridable in tests
	endpoint  string
	revokeURL string
	client    *http.Client
}

// NewGoogleProvider reads the OAuth client from credentialsFile (the JSON
// downloaded from the Google console).
func NewGoogleProvider(credentialsFile, redirectURL string) (*GoogleProvider, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b,
		oauthapi.OpenIDScope,
		oauthapi.UserinfoEmailScope,
		oauthapi.UserinfoProfileScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
	return NewGoogleProviderWithConfig(config), nil
}

func NewGoogleProviderWithConfig(config *oauth2.Config) *GoogleProvider {
	return &GoogleProvider{config: config, revokeURL: googleRevokeURL, client: http.DefaultClient}
}

// LoginURL is where the browser is sent to sign in.
func (p *GoogleProvider) LoginURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for a token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}
	return tok, nil
}

// Identify looks the token up with the userinfo endpoint.
func (p *GoogleProvider) Identify(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := oauthapi.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if info.Id == "" {
		return nil, ErrUnauthenticated
	}
	return &models.User{
		UID:         info.Id,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}

// Revoke signs the user out by revoking the token at Google.
func (p *GoogleProvider) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: unexpected status %d", resp.StatusCode)
	}
	return nil
}
