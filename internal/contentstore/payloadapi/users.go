package payloadapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type listResponse struct {
	TotalDocs int `json:"totalDocs"`
}

// EnsureUser makes sure the bootstrap user exists. With an API key the user
// is looked up and created through the collection endpoint. Without one the
// first-register endpoint is tried and, when users already exist, the
// client logs in instead; the resulting JWT authorizes later requests.
func (c *Client) EnsureUser(ctx context.Context, user contentstore.UserInput) (bool, error) {
	creds := credentials{Email: strings.TrimSpace(user.Email), Password: user.Password}
	if creds.Email == "" || creds.Password == "" {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "email and password are required", nil)
	}
	if c.apiKey != "" {
		return c.ensureWithAPIKey(ctx, creds)
	}

	var registered authResponse
	err := c.postJSON(ctx, c.endpoint(c.userCollection, "first-register"), creds, &registered)
	if err == nil {
		c.setToken(registered.Token)
		return true, nil
	}
	var se *statusError
	if !errors.As(err, &se) {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "first register", err)
	}

	var login authResponse
	if err := c.postJSON(ctx, c.endpoint(c.userCollection, "login"), creds, &login); err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "login "+creds.Email, err)
	}
	c.setToken(login.Token)
	return false, nil
}

func (c *Client) ensureWithAPIKey(ctx context.Context, creds credentials) (bool, error) {
	query := url.Values{}
	query.Set("where[email][equals]", creds.Email)
	query.Set("limit", "1")
	query.Set("depth", "0")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.userCollection)+"?"+query.Encode(), nil)
	if err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "build lookup", err)
	}
	var found listResponse
	if err := c.do(req, &found); err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "lookup "+creds.Email, err)
	}
	if found.TotalDocs > 0 {
		return false, nil
	}
	if err := c.postJSON(ctx, c.endpoint(c.userCollection), creds, nil); err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "create "+creds.Email, err)
	}
	return true, nil
}
