package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
)

// embeddedStatus is the {statusCode, body} envelope some user endpoints
// return inside a 200 response
type embeddedStatus struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// checkEmbedded turns an embedded failure status into an APIError
func checkEmbedded(body []byte, endpoint string) error {
	var env embeddedStatus
	if err := json.Unmarshal(body, &env); err != nil || env.StatusCode < 300 {
		return nil
	}
	msg := errorMessage(env.Body)
	if msg == "" {
		msg = errorMessage(body)
	}
	return &APIError{Status: env.StatusCode, Message: msg, Endpoint: endpoint}
}

// Register creates an account with POST /usuarios/registrar
func (c *Client) Register(ctx context.Context, creds identity.Credentials) error {
	r := request{
		method: http.MethodPost,
		base:   c.cfg.UsersURL,
		path:   "/usuarios/registrar",
		body:   credentialsDTO{UserID: creds.UserID, TenantID: string(creds.TenantID), Password: creds.Password},
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return checkEmbedded(body, r.endpoint())
}

// Login exchanges credentials for a token with POST /usuarios/login.
// The token is returned at the JSON root; a 2xx response without one is a
// rejected login.
func (c *Client) Login(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	r := request{
		method: http.MethodPost,
		base:   c.cfg.UsersURL,
		path:   "/usuarios/login",
		body:   credentialsDTO{UserID: creds.UserID, TenantID: string(creds.TenantID), Password: creds.Password},
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	var resp loginResponseDTO
	if err := json.Unmarshal(body, &resp); err == nil && resp.Token != "" {
		role := resp.Rol
		if role == "" {
			role = resp.Role
		}
		return &identity.AuthResult{Token: resp.Token, Role: role}, nil
	}

	if err := checkEmbedded(body, r.endpoint()); err != nil {
		return nil, err
	}
	msg := errorMessage(body)
	if msg == "" {
		msg = "Login failed"
	}
	return nil, &APIError{Status: http.StatusUnauthorized, Message: msg, Endpoint: r.endpoint()}
}

// Validate asks POST /usuarios/validar whether token is still valid. A
// rejection is reported as (false, reason, nil); err is reserved for
// failures to get an answer.
func (c *Client) Validate(ctx context.Context, token string, tenant catalog.TenantID) (bool, string, error) {
	r := request{
		method: http.MethodPost,
		base:   c.cfg.UsersURL,
		path:   "/usuarios/validar",
		body:   validateDTO{Token: token, TenantID: string(tenant)},
	}
	body, err := c.do(ctx, r)
	if err == nil {
		err = checkEmbedded(body, r.endpoint())
	}
	if err == nil {
		return true, "", nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return false, apiErr.Message, nil
	}
	return false, "", err
}
