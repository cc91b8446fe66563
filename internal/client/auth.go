// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/posmap/internal/models"
)

// authBody is the flat body returned by the auth endpoints.
type authBody struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	User    map[string]json.RawMessage `json:"user"`
	Token   string                     `json:"token"`
}

// Login implements session.AuthGateway. A 4xx answer with a readable body is
// a rejection and is returned as a response with Success false; anything
// else unexpected is an error.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	body, err := c.authCall(ctx, "/api/v1/auth/login", req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	resp := &models.LoginResponse{Success: body.Success, Message: body.Message, Token: body.Token}
	if body.Success {
		if body.User == nil {
			return nil, fmt.Errorf("login: success response without user")
		}
		u := normalizeUser(body.User)
		resp.User = &u
		if resp.Token == "" {
			resp.Token = u.Token
		}
	}
	return resp, nil
}

// Register implements session.AuthGateway.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	body, err := c.authCall(ctx, "/api/v1/auth/register", req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &models.AuthResponse{Success: body.Success, Message: body.Message}, nil
}

func (c *Client) authCall(ctx context.Context, path string, payload interface{}) (*authBody, error) {
	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var body authBody
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, resp.apiError()
	}

	switch {
	case resp.status >= 200 && resp.status <= 299 && body.Success:
		return &body, nil
	case !body.Success && body.Message != "":
		return &body, nil
	default:
		return nil, resp.apiError()
	}
}
