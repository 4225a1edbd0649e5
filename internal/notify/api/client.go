// Package api implements the REST client for the Borrowing Hub notification endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"borrowhub-notify/internal/common/auth"
	"borrowhub-notify/internal/common/errors"
	commonhttp "borrowhub-notify/internal/common/http"
	"borrowhub-notify/internal/common/logger"
	"borrowhub-notify/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
	tokens     auth.TokenSource
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenSource, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: commonhttp.NewClient(timeout),
		tokens:     tokens,
		logger:     log.WithFields(map[string]interface{}{"component": "hub-api"}),
	}
}

// List fetches the current notification list and server-computed unread count.
// The envelope is schema-validated before decoding so a malformed backend
// payload never becomes a bad snapshot.
func (c *Client) List(ctx context.Context) (*models.ListResponse, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/notifications", "", nil)
	if err != nil {
		return nil, err
	}

	if err := validateListEnvelope(body); err != nil {
		return nil, err
	}

	var out models.ListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewResponseDecodeError(err)
	}
	return &out, nil
}

// Get fetches a single notification by id.
func (c *Client) Get(ctx context.Context, id string) (*models.ItemResponse, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/notifications/"+id, id, nil)
	if err != nil {
		return nil, err
	}

	var out models.ItemResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewResponseDecodeError(err)
	}
	return &out, nil
}

// Create sends a notification draft; the server assigns id and createdAt.
func (c *Client) Create(ctx context.Context, draft models.NotificationDraft) (*models.ItemResponse, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/notifications", "", draft)
	if err != nil {
		return nil, err
	}

	var out models.ItemResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewResponseDecodeError(err)
	}
	return &out, nil
}

// MarkRead asks the server to mark the notification read and returns the
// updated server copy.
func (c *Client) MarkRead(ctx context.Context, id string) (*models.ItemResponse, error) {
	body, err := c.do(ctx, http.MethodPut, c.baseURL+"/notifications/"+id+"/read", id, nil)
	if err != nil {
		return nil, err
	}

	var out models.ItemResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewResponseDecodeError(err)
	}
	return &out, nil
}

// Delete removes the notification on the server.
func (c *Client) Delete(ctx context.Context, id string) (*models.MessageResponse, error) {
	body, err := c.do(ctx, http.MethodDelete, c.baseURL+"/notifications/"+id, id, nil)
	if err != nil {
		return nil, err
	}

	var out models.MessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewResponseDecodeError(err)
	}
	return &out, nil
}

// do executes one authorized round-trip and maps HTTP status codes onto the
// client error taxonomy. notificationID is only used for not-found details.
func (c *Client) do(ctx context.Context, method, url, notificationID string, payload interface{}) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := commonhttp.NewAuthorizedRequest(ctx, method, url, token, payload)
	if err != nil {
		return nil, errors.NewTransportError(err)
	}

	log := c.logger.WithFields(map[string]interface{}{
		"method":    method,
		"url":       url,
		"requestId": commonhttp.RequestID(req),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewAuthenticationError(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewNotificationNotFoundError(notificationID)
	case resp.StatusCode >= 400:
		log.Warn("server rejected request", map[string]interface{}{"status": resp.StatusCode})
		return nil, errors.NewServerError(resp.StatusCode, string(body))
	}

	return body, nil
}
