package youtube

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// TokenStore persists the single delegated refresh credential per owner.
// Implementations must make save an atomic upsert and clear an idempotent
// delete.
type TokenStore interface {
	GetRefreshToken(ownerID string) (string, error)
	SaveRefreshToken(ownerID, refreshToken string) error
	ClearRefreshToken(ownerID string) error
}

// Broker turns a stored refresh credential into a live API client for one
// outbound call. Credential resolution is two-tier: the owner's stored
// token first, then the statically configured fallback. With neither
// present the client is unauthenticated and every write call fails
// downstream.
type Broker struct {
	oauth    *oauth2.Config
	fallback string
	store    TokenStore
	opts     []option.ClientOption
}

// NewBroker builds a broker from the OAuth client settings. Extra client
// options are applied to every service it constructs.
func NewBroker(clientID, clientSecret, redirectURI, fallbackRefreshToken string, ts TokenStore, opts ...option.ClientOption) *Broker {
	return &Broker{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				yt.YoutubeUploadScope,
				"profile",
				"email",
			},
		},
		fallback: fallbackRefreshToken,
		store:    ts,
		opts:     opts,
	}
}

// AuthURL returns the delegated-consent URL requesting offline access and
// the upload scope. Construction is deterministic.
func (b *Broker) AuthURL() string {
	return b.oauth.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode performs a one-shot exchange of an authorization code. The
// refresh token is persisted when the grant carries one; persisted reports
// whether it did, so the caller can warn that uploads may fail later.
func (b *Broker) ExchangeCode(ctx context.Context, code, ownerID string) (persisted bool, err error) {
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if tok.RefreshToken == "" {
		return false, nil
	}

	if err := b.store.SaveRefreshToken(ownerID, tok.RefreshToken); err != nil {
		return false, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return true, nil
}

// resolveRefreshToken applies the two-tier resolution order:
// stored -> static fallback -> absent.
func (b *Broker) resolveRefreshToken(ownerID string) (string, error) {
	stored, err := b.store.GetRefreshToken(ownerID)
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}

	return b.fallback, nil
}

// httpClient builds the authenticated HTTP client for ownerID.
func (b *Broker) httpClient(ctx context.Context, ownerID string) (*http.Client, error) {
	refresh, err := b.resolveRefreshToken(ownerID)
	if err != nil {
		return nil, err
	}

	if refresh == "" {
		return b.oauth.Client(ctx, nil), nil
	}

	return b.oauth.Client(ctx, &oauth2.Token{RefreshToken: refresh}), nil
}

// Service builds a YouTube Data API client acting as ownerID.
func (b *Broker) Service(ctx context.Context, ownerID string) (*yt.Service, error) {
	client, err := b.httpClient(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, b.opts...)
	return yt.NewService(ctx, opts...)
}
