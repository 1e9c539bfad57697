// Package api is a typed client for the task and category endpoints.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskboard/internal/session"
)

// AllTasksPageSize is the page size used when walking the full task list.
const AllTasksPageSize = 100

type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger

	mu      sync.RWMutex
	session *session.Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithSession(s *session.Session) Option {
	return func(c *Client) { c.session = s }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession replaces the session used for bearer authentication.
func (c *Client) SetSession(s *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/register", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskPage, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.CategoryID != nil {
		query.Set("category_id", opts.CategoryID.String())
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out TaskPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllTasks walks every page of the caller's tasks.
func (c *Client) AllTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	for page := 1; ; page++ {
		resp, err := c.ListTasks(ctx, ListOptions{Page: page, PerPage: AllTasksPageSize})
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, resp.Data...)
		if resp.CurrentPage >= resp.LastPage || len(resp.Data) == 0 {
			return tasks, nil
		}
	}
}

func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id.String(), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, in TaskInput) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id.String(), in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil, true)
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	var out Category
	if err := c.do(ctx, http.MethodPost, "/categories", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*Category, error) {
	var out Category
	if err := c.do(ctx, http.MethodPut, "/categories/"+id.String(), in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+id.String(), nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var sess *session.Session
	var token string
	if authenticated {
		sess = c.Session()
		var err error
		if token, err = sess.Token(); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, data)
		if sess != nil && IsUnauthorized(apiErr) {
			sess.Invalidate(apiErr)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, data []byte) *Error {
	var payload struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	apiErr := &Error{Status: status}
	if err := sonic.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Error
		apiErr.Fields = payload.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
