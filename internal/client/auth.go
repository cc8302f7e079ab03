package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/lending-backoffice/internal/auth"
)

// Login exchanges credentials for a token and installs it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (auth.LoginResult, error) {
	var out auth.LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		action: ActionLogin,
		body:   auth.LoginRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return auth.LoginResult{}, err
	}
	if err := c.session.SetToken(out.Token); err != nil {
		return auth.LoginResult{}, &APIError{Status: http.StatusOK, Action: ActionLogin, Message: genericMessage, cause: err}
	}
	return out, nil
}

// Me returns the identity the server sees for the current token.
func (c *Client) Me(ctx context.Context) (auth.Identity, error) {
	var out auth.Identity
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", action: ActionMe}, &out)
	return out, err
}

// Logout signs the session out. It never fails; a store error is only logged.
func (c *Client) Logout() {
	c.session.reset()
	if err := c.session.store.Clear(); err != nil {
		c.logger.Warn("clear persisted token", slog.Any("error", err))
	}
}
