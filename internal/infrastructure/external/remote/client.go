package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/pkg/config"
	"github.com/tablevox/agent/pkg/signature"
)

// Client talks to the central record backend. The agent mirrors each
// recording there at upload time so the backend has its own view of
// pending work, and queries it once at startup during recovery.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a remote record backend client.
func NewClient(cfg *config.RemoteConfig, logger *zap.Logger) *Client {
	timeout := 15 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a backend is configured. Callers treat a
// disabled client as "nothing to mirror, nothing to recover".
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// upsertRequest is the payload for PUT /v1/recordings/{id}
type upsertRequest struct {
	RestaurantID string    `json:"restaurant_id"`
	TableID      string    `json:"table_id"`
	Timestamp    time.Time `json:"timestamp"`
	Duration     int       `json:"duration"`
	AudioURL     string    `json:"audio_url"`
	Status       string    `json:"status"`
}

// PendingRecord is one remote-side recording still awaiting analysis.
type PendingRecord struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	TableID      string    `json:"table_id"`
	Timestamp    time.Time `json:"timestamp"`
	AudioURL     string    `json:"audio_url"`
}

// UpsertPending mirrors a freshly uploaded recording to the backend with
// status pending. Keyed by recording id, so re-sends after a retry are
// idempotent on the remote side.
func (c *Client) UpsertPending(ctx context.Context, rec *entities.Recording, audioURL string) error {
	if !c.Enabled() {
		return nil
	}

	payload := upsertRequest{
		RestaurantID: rec.RestaurantID,
		TableID:      rec.TableID,
		Timestamp:    rec.Timestamp,
		Duration:     rec.Duration,
		AudioURL:     audioURL,
		Status:       "pending",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/recordings/%s", c.baseURL, rec.ID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.sign(req, b)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.ErrRemoteBackendFailed("upsert recording", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apperrors.ErrRemoteBackendFailed("upsert recording",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// ListPending fetches remote-side recordings that have sat in pending
// longer than olderThan. The call retries with exponential backoff
// because it runs once per process start; giving up too early would
// leave stuck records invisible until the next restart.
func (c *Client) ListPending(ctx context.Context, restaurantID string, olderThan time.Duration, limit int) ([]PendingRecord, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var records []PendingRecord

	operation := func() error {
		q := url.Values{}
		q.Set("restaurant_id", restaurantID)
		q.Set("status", "pending")
		q.Set("older_than_seconds", strconv.Itoa(int(olderThan.Seconds())))
		q.Set("limit", strconv.Itoa(limit))

		endpoint := fmt.Sprintf("%s/v1/recordings?%s", c.baseURL, q.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.sign(req, nil)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("remote list failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("remote list returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("remote list returned status %d", resp.StatusCode))
		}

		records = records[:0]
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return fmt.Errorf("remote list decode failed: %w", err)
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 1 * time.Second
	expBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, apperrors.ErrRemoteBackendFailed("list pending", err)
	}

	c.logger.Info("fetched remote pending recordings",
		zap.String("restaurant_id", restaurantID),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// sign sets auth headers. The payload signature lets the backend verify
// the body was produced by an agent holding the shared key.
func (c *Client) sign(req *http.Request, body []byte) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if body != nil {
		req.Header.Set("X-Signature", signature.SignHMAC(c.apiKey, body))
	}
}
