// Package client is a small typed client for the inventory API. Every
// authenticated call goes through a session.Guard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"inventory-backend/internal/session"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

type Client struct {
	base  string
	http  *http.Client
	guard *session.Guard
}

func New(baseURL string, guard *session.Guard) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		guard: guard,
	}
}

type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StockResult struct {
	NewQuantity int  `json:"new_quantity"`
	IsLow       bool `json:"is_low"`
	Movement    struct {
		ID        uint   `json:"id"`
		Direction string `json:"direction"`
	} `json:"movement"`
}

type LowStockItem struct {
	Kind      string `json:"kind"`
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"minimum_threshold"`
}

// Login authenticates and hands the token pair to the guard.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
		User    User   `json:"user"`
	}
	err := c.send(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return User{}, err
	}
	if err := c.guard.Login(session.Credential{Access: out.Access, Refresh: out.Refresh}); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// Logout revokes the refresh token server-side and forgets the session.
// The local session is dropped even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	cred, ok := c.guard.Credential()
	var remote error
	if ok && cred.Refresh != "" {
		remote = c.send(ctx, http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh": cred.Refresh}, nil)
	}
	return errors.Join(c.guard.Logout(), remote)
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.guard.Do(ctx, func(ctx context.Context, token string) error {
		return c.send(ctx, http.MethodGet, "/api/auth/me", token, nil, &u)
	})
	return u, err
}

func (c *Client) Take(ctx context.Context, kind string, id uint, qty int, reasonID uint, notes string) (StockResult, error) {
	path, err := stockPath(kind, id, "take")
	if err != nil {
		return StockResult{}, err
	}
	var res StockResult
	err = c.guard.Do(ctx, func(ctx context.Context, token string) error {
		return c.send(ctx, http.MethodPost, path, token, map[string]any{
			"quantity":  qty,
			"reason_id": reasonID,
			"notes":     notes,
		}, &res)
	})
	return res, err
}

func (c *Client) Return(ctx context.Context, kind string, id uint, qty int, notes string) (StockResult, error) {
	path, err := stockPath(kind, id, "return")
	if err != nil {
		return StockResult{}, err
	}
	var res StockResult
	err = c.guard.Do(ctx, func(ctx context.Context, token string) error {
		return c.send(ctx, http.MethodPost, path, token, map[string]any{
			"quantity": qty,
			"notes":    notes,
		}, &res)
	})
	return res, err
}

func (c *Client) LowStock(ctx context.Context, kind string) ([]LowStockItem, error) {
	path := "/api/low-stock"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var items []LowStockItem
	err := c.guard.Do(ctx, func(ctx context.Context, token string) error {
		return c.send(ctx, http.MethodGet, path, token, nil, &items)
	})
	return items, err
}

func stockPath(kind string, id uint, op string) (string, error) {
	switch kind {
	case "gift":
		return fmt.Sprintf("/api/gifts/%d/%s", id, op), nil
	case "variant":
		return fmt.Sprintf("/api/apparel/variants/%d/%s", id, op), nil
	}
	return "", fmt.Errorf("unknown kind %q (want gift or variant)", kind)
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
