package identityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	"github.com/edustack/sessionkit/internal/ports"
)

// userPayload is the backend's user wire shape. Roles and active role may be
// individually absent; reconciliation happens in the domain when the user
// enters the store.
type userPayload struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	ActiveRole string   `json:"active_role"`
}

func (p userPayload) toUser() session.User {
	roles := make([]session.Role, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, session.Role(r))
	}
	return session.User{
		ID:         p.ID,
		Email:      p.Email,
		Roles:      roles,
		ActiveRole: session.Role(p.ActiveRole),
	}
}

// errorPayload is the backend's opaque error shape; only the message is used.
type errorPayload struct {
	Error string `json:"error"`
}

func credentialsFromToken(tok *oauth2.Token) ports.Credentials {
	creds := ports.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if raw, ok := tok.Extra("id_token").(string); ok {
		creds.IDToken = raw
	}
	return creds
}

// mapTokenError translates oauth2 token-endpoint failures into the session
// error taxonomy.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		msg := retrieveErr.ErrorDescription
		if msg == "" {
			msg = "invalid credentials"
		}
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Wrap(err, apperrors.ErrCodeInvalidCredentials, msg)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, msg)
	}
	return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "identity backend unreachable")
}

// do performs one JSON request against the backend. When authed is true the
// stored access token is attached as a bearer credential. Responses outside
// 2xx are mapped into the session error taxonomy with the backend's message.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		stored, err := c.creds.Load(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrNoCredentials) {
				return apperrors.Unauthenticated("not logged in")
			}
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "load credentials")
		}
		req.Header.Set("Authorization", "Bearer "+stored.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "identity backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode response")
		}
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	msg := fmt.Sprintf("identity backend returned %d", resp.StatusCode)
	var payload errorPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.Unauthenticated(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.Validation(msg)
	default:
		return apperrors.Internal(msg)
	}
}
