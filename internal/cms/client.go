// Package cms provides a client for the headless CMS REST API that stores progress records and course content
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultPageSize    = 100
	defaultFilterBatch = 50 // lesson ids per filtered request
	maxErrorBody       = 1024
)

// StatusError is returned when the CMS answers with a non-2xx status code
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap reports a rejected bearer token as models.ErrUnauthenticated
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return models.ErrUnauthenticated
	}
	return nil
}

type client struct {
	baseURL    string
	httpClient *http.Client
	logger      *zap.Logger
	pageSize    int
	filterBatch int
}

// NewClient creates a CMS client for the API served at "baseURL"
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		pageSize:    defaultPageSize,
		filterBatch: defaultFilterBatch,
	}
}

// envelope is the response shape of the CMS REST API
type envelope[T any] struct {
	Data T `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// dataBody wraps a request payload the way the CMS expects it
type dataBody struct {
	Data any `json:"data"`
}

// do sends a request and decodes the JSON response into "out" when it is not nil
func (c *client) do(ctx context.Context, method, path string, query url.Values, token string, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("CMS request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fetchAll walks every page of a collection endpoint
func fetchAll[T any](ctx context.Context, c *client, path string, query url.Values, token string) ([]T, error) {
	var items []T
	for page := 1; ; page++ {
		pageQuery := url.Values{}
		for k, v := range query {
			pageQuery[k] = v
		}
		pageQuery.Set("pagination[page]", strconv.Itoa(page))
		pageQuery.Set("pagination[pageSize]", strconv.Itoa(c.pageSize))

		var resp envelope[[]T]
		if err := c.do(ctx, http.MethodGet, path, pageQuery, token, nil, &resp); err != nil {
			return nil, err
		}
		items = append(items, resp.Data...)

		if page >= resp.Meta.Pagination.PageCount || len(resp.Data) == 0 {
			break
		}
	}
	return items, nil
}
