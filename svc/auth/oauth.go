package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderAdapter hides the OAuth protocol details behind the two primitives
// the service needs: building the authorization URL and turning a callback
// code into a normalized profile.
type ProviderAdapter interface {
	// AuthURL builds the provider authorization URL for the given state token.
	AuthURL(state string) string

	// ResolveProfile exchanges the authorization code and fetches the user's
	// profile. Returns ErrInvalidCode when the exchange fails and ErrNoEmail
	// when the provider cannot produce an email address.
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

// Profile is the normalized identity a provider returns.
type Profile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// GoogleConfig holds the Google OAuth client settings.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL,required"`
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleAdapter struct {
	cfg *oauth2.Config
}

// NewGoogleAdapter builds the Google OAuth adapter.
func NewGoogleAdapter(cfg GoogleConfig) ProviderAdapter {
	return &googleAdapter{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *googleAdapter) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleAdapter) ResolveProfile(ctx context.Context, code string) (Profile, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, errors.Join(ErrInvalidCode, err)
	}

	resp, err := g.cfg.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return Profile{}, ErrNoEmail
	}

	return Profile{
		ProviderUserID: info.ID,
		Email:          info.Email,
		EmailVerified:  info.VerifiedEmail,
		Name:           info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
