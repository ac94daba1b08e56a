package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/domain"
)

const apiPrefix = "/api/v1"

// Client wraps the backend's REST endpoints. It keeps no state between
// calls except the bearer credential.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
}

// New creates a Client. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
		now:     time.Now,
	}
}

// SetCredential installs the bearer token sent on every request.
func (c *Client) SetCredential(cred domain.Credential) {
	c.mu.Lock()
	c.token = cred.AccessToken
	c.mu.Unlock()
}

// ClearCredential stops sending a bearer token.
func (c *Client) ClearCredential() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// response is a decoded backend envelope.
type response struct {
	httpStatus int
	status     int
	message    string
	data       gjson.Result
}

// roundTrip performs one request and decodes the {status, message, data}
// envelope. Transport failures become *NetworkError; everything else is
// returned for the caller to classify.
func (c *Client) roundTrip(ctx context.Context, op, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.logger.Debug("request done",
		zap.String("op", op),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", c.now().Sub(start)),
	)

	r := &response{httpStatus: resp.StatusCode, status: resp.StatusCode}
	if gjson.ValidBytes(raw) {
		env := gjson.ParseBytes(raw)
		if s := env.Get("status"); s.Type == gjson.Number {
			r.status = int(s.Int())
		}
		r.message = env.Get("message").String()
		r.data = env.Get("data")
	}
	return r, nil
}

// call is roundTrip plus the generic failure rules: non-2xx, an envelope
// status of 400 or more, or a missing data member.
func (c *Client) call(ctx context.Context, op, method, path string, body any) (gjson.Result, error) {
	r, err := c.roundTrip(ctx, op, method, path, body)
	if err != nil {
		return gjson.Result{}, err
	}
	if err := r.failure(); err != nil {
		return gjson.Result{}, err
	}
	return r.data, nil
}

func (r *response) failure() *BackendError {
	switch {
	case r.httpStatus < 200 || r.httpStatus > 299:
		return &BackendError{Status: r.httpStatus, Message: r.message}
	case r.status >= 400:
		return &BackendError{Status: r.status, Message: r.message}
	case !r.data.Exists() || r.data.Type == gjson.Null:
		msg := r.message
		if msg == "" {
			msg = "response carried no data"
		}
		return &BackendError{Status: r.httpStatus, Message: msg}
	}
	return nil
}
