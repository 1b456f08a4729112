package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/aihub-vvit/aihub-server/internal/model"
)

// graphMeURL is the Graph endpoint returning the signed-in user's profile.
const graphMeURL = "https://graph.microsoft.com/v1.0/me"

// MicrosoftProvider authenticates users with Microsoft (Azure AD / personal
// accounts, depending on the tenant).
//
// Microsoft's id_token claims vary by account type, so instead of parsing
// it we call Graph /me with the access token — one authoritative shape for
// both work and personal accounts.
type MicrosoftProvider struct {
	oauthConfig *oauth2.Config

	// meURL is overridable in tests to point at a stub Graph server.
	meURL string
}

// NewMicrosoftProvider builds the provider for the given tenant ("common"
// allows any Microsoft account).
func NewMicrosoftProvider(clientID, clientSecret, tenant, callbackURL string) (*MicrosoftProvider, error) {
	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, errors.New("provider: microsoft oauth config missing required fields")
	}
	if tenant == "" {
		tenant = "common"
	}

	return &MicrosoftProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		meURL: graphMeURL,
	}, nil
}

func (p *MicrosoftProvider) Name() model.Provider {
	return model.ProviderMicrosoft
}

// AuthURL builds the consent URL, forcing the account picker every time.
func (p *MicrosoftProvider) AuthURL(state string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// graphUser is the portion of the Graph /me response we care about.
// Personal accounts often have no "mail" and carry the address in
// userPrincipalName instead.
type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (p *MicrosoftProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("provider: microsoft token exchange: %w", err)
	}

	// oauth2.Config.Client attaches the bearer token to every request.
	client := p.oauthConfig.Client(ctx, token)

	resp, err := client.Get(p.meURL)
	if err != nil {
		return nil, fmt.Errorf("provider: calling graph /me: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider: graph /me returned status %d", resp.StatusCode)
	}

	var me graphUser
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("provider: decoding graph /me response: %w", err)
	}
	if me.ID == "" {
		return nil, errors.New("provider: graph returned an invalid user (empty id)")
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	if email == "" {
		return nil, errors.New("provider: microsoft profile has no email address")
	}

	// Graph exposes the photo as a separate binary endpoint; we leave
	// Picture empty rather than proxying image bytes.
	return &Profile{
		Provider: model.ProviderMicrosoft,
		Subject:  me.ID,
		Email:    email,
		Name:     me.DisplayName,
	}, nil
}
