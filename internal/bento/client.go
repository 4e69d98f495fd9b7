// Package bento is a client for the Bento email marketing API and the MCP
// wrappers built on it.
package bento

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/olgasafonova/bento-mcp-server/internal/base"
	"github.com/olgasafonova/bento-mcp-server/internal/config"
	apierrors "github.com/olgasafonova/bento-mcp-server/internal/errors"
	"github.com/olgasafonova/bento-mcp-server/internal/infra"
	"github.com/olgasafonova/bento-mcp-server/internal/resolve"
	"github.com/olgasafonova/bento-mcp-server/metrics"
	"github.com/olgasafonova/bento-mcp-server/tracing"
)

// DefaultBaseURL is the Bento API endpoint
const DefaultBaseURL = "https://app.bentonow.com/api/v1"

// Settings identifies the Bento account a Client talks to.
type Settings struct {
	BaseURL        string
	PublishableKey string
	SecretKey      string
	SiteUUID       string
	UserAgent      string
	MaxRetries     int // retries for idempotent requests; 0 disables retrying
}

// Client provides access to the Bento API
type Client struct {
	*base.Client
	baseURL        string
	publishableKey string
	secretKey      string
	siteUUID       string
	userAgent      string
	maxAttempts    int
}

// ClientOption configures the Client (re-export base.ClientOption for compatibility)
type ClientOption = base.ClientOption

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return base.WithHTTPClient(c)
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return base.WithLogger(l)
}

// WithRateLimit sets the outbound request budget
func WithRateLimit(rps float64) ClientOption {
	return base.WithRateLimit(rps)
}

// WithCircuitBreaker sets a custom circuit breaker
func WithCircuitBreaker(cb *infra.CircuitBreaker) ClientOption {
	return base.WithCircuitBreaker(cb)
}

// NewClient creates a new Bento client
func NewClient(s Settings, opts ...ClientOption) *Client {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	return &Client{
		Client:         base.NewClient(opts...),
		baseURL:        s.BaseURL,
		publishableKey: s.PublishableKey,
		secretKey:      s.SecretKey,
		siteUUID:       s.SiteUUID,
		userAgent:      s.UserAgent,
		maxAttempts:    s.MaxRetries + 1,
	}
}

// NewClientFromConfig creates a client from loaded configuration.
// Extra options are applied after the configured ones.
func NewClientFromConfig(cfg *config.Config, opts ...ClientOption) *Client {
	all := []ClientOption{
		base.WithTimeout(cfg.Timeout),
		base.WithRateLimit(cfg.RateLimit),
	}
	all = append(all, opts...)

	return NewClient(Settings{
		BaseURL:        cfg.BaseURL,
		PublishableKey: cfg.PublishableKey,
		SecretKey:      cfg.SecretKey,
		SiteUUID:       cfg.SiteUUID,
		UserAgent:      cfg.UserAgent,
		MaxRetries:     cfg.MaxRetries,
	}, all...)
}

// =============================================================================
// Subscribers
// =============================================================================

// GetSubscriber looks a subscriber up by email or by UUID. Email wins when both are set.
func (c *Client) GetSubscriber(ctx context.Context, email, uuid string) (*Subscriber, error) {
	params := url.Values{}
	identifier := email
	if email != "" {
		params.Set("email", email)
	} else {
		params.Set("uuid", uuid)
		identifier = uuid
	}

	var env itemEnvelope[Subscriber]
	err := c.do(ctx, call{
		resource: "subscribers",
		action:   "get",
		path:     "/fetch/subscribers",
		query:    params,
	}, &env)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, apierrors.NewNotFoundError("subscriber", identifier)
		}
		return nil, err
	}
	if env.Data == nil || env.Data.ID == "" {
		return nil, apierrors.NewNotFoundError("subscriber", identifier)
	}
	return env.Data, nil
}

// CreateSubscriber creates a subscriber, or returns the existing one for that email
func (c *Client) CreateSubscriber(ctx context.Context, email string) (*Subscriber, error) {
	var env itemEnvelope[Subscriber]
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "subscribers",
		action:   "create",
		path:     "/fetch/subscribers",
		body:     map[string]any{"subscriber": map[string]string{"email": email}},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("bento returned no subscriber for %s", email)
	}
	return env.Data, nil
}

// ImportSubscribers upserts subscribers in one batch
func (c *Client) ImportSubscribers(ctx context.Context, subscribers []ImportSubscriber) (*BatchResponse, error) {
	rows := make([]map[string]any, 0, len(subscribers))
	for _, s := range subscribers {
		rows = append(rows, s.payload())
	}

	var result BatchResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "subscribers",
		action:   "import",
		path:     "/batch/subscribers",
		body:     map[string]any{"subscribers": rows},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunCommand executes a single subscriber command (add_tag, remove_tag, subscribe, unsubscribe)
func (c *Client) RunCommand(ctx context.Context, name, email, query string) (*BatchResponse, error) {
	var result BatchResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "commands",
		action:   name,
		path:     "/fetch/commands",
		body:     map[string]any{"command": []command{{Command: name, Email: email, Query: query}}},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackEvents records custom events
func (c *Client) TrackEvents(ctx context.Context, events []Event) (*BatchResponse, error) {
	var result BatchResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "events",
		action:   "track",
		path:     "/batch/events",
		body:     map[string]any{"events": events},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// Tags and fields
// =============================================================================

// ListTags returns every tag on the site
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var env listEnvelope[Tag]
	if err := c.do(ctx, call{resource: "tags", action: "list", path: "/fetch/tags"}, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateTag creates a tag
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	var env itemEnvelope[Tag]
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "tags",
		action:   "create",
		path:     "/fetch/tags",
		body:     map[string]any{"tag": map[string]string{"name": name}},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return &Tag{Attributes: TagAttributes{Name: name}}, nil
	}
	return env.Data, nil
}

// ListFields returns every custom field on the site
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var env listEnvelope[Field]
	if err := c.do(ctx, call{resource: "fields", action: "list", path: "/fetch/fields"}, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateField creates a custom field
func (c *Client) CreateField(ctx context.Context, key string) (*Field, error) {
	var env itemEnvelope[Field]
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "fields",
		action:   "create",
		path:     "/fetch/fields",
		body:     map[string]any{"field": map[string]string{"key": key}},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return &Field{Attributes: FieldAttributes{Key: key}}, nil
	}
	return env.Data, nil
}

// =============================================================================
// Broadcasts and stats
// =============================================================================

// ListBroadcasts returns one page of broadcasts
func (c *Client) ListBroadcasts(ctx context.Context, page int) ([]Broadcast, error) {
	var env listEnvelope[Broadcast]
	err := c.do(ctx, call{
		resource: "broadcasts",
		action:   "list",
		path:     "/fetch/broadcasts",
		query:    pageParams(page),
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateBroadcasts queues broadcasts as drafts
func (c *Client) CreateBroadcasts(ctx context.Context, broadcasts []NewBroadcast) (*BatchResponse, error) {
	var result BatchResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "broadcasts",
		action:   "create",
		path:     "/batch/broadcasts",
		body:     map[string]any{"broadcasts": broadcasts},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SiteStats returns account wide subscriber counts
func (c *Client) SiteStats(ctx context.Context) (*SiteStats, error) {
	var result SiteStats
	if err := c.do(ctx, call{resource: "stats", action: "site", path: "/stats/site"}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// Sequences, workflows and templates
// =============================================================================

// ListSequences returns one page of sequences. An empty slice means the listing is exhausted.
func (c *Client) ListSequences(ctx context.Context, page int) ([]Sequence, error) {
	var env listEnvelope[Sequence]
	err := c.do(ctx, call{
		resource: "sequences",
		action:   "list",
		path:     "/fetch/sequences",
		query:    pageParams(page),
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListWorkflows returns one page of workflows. An empty slice means the listing is exhausted.
func (c *Client) ListWorkflows(ctx context.Context, page int) ([]Workflow, error) {
	var env listEnvelope[Workflow]
	err := c.do(ctx, call{
		resource: "workflows",
		action:   "list",
		path:     "/fetch/workflows",
		query:    pageParams(page),
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ResolveSequenceID returns the id of the sequence with the given id or name
func (c *Client) ResolveSequenceID(ctx context.Context, id, name string) (resolve.Result, error) {
	return resolveID[Sequence](ctx, c, "sequence", id, name, c.ListSequences)
}

// GetSequence finds a sequence by id or by name
func (c *Client) GetSequence(ctx context.Context, id, name string) (*Sequence, resolve.Result, error) {
	return findRecord[Sequence](ctx, c, "sequence", id, name, c.ListSequences)
}

// GetWorkflow finds a workflow by id or by name
func (c *Client) GetWorkflow(ctx context.Context, id, name string) (*Workflow, resolve.Result, error) {
	return findRecord[Workflow](ctx, c, "workflow", id, name, c.ListWorkflows)
}

// CreateSequenceEmail adds an email template to a sequence
func (c *Client) CreateSequenceEmail(ctx context.Context, sequenceID string, email SequenceEmail) (*EmailTemplate, error) {
	var env itemEnvelope[EmailTemplate]
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "sequences",
		action:   "create_email",
		path:     "/fetch/sequences/" + url.PathEscape(sequenceID) + "/emails/templates",
		body:     map[string]any{"email_template": email},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return &EmailTemplate{Attributes: EmailTemplateAttributes{Subject: email.Subject}}, nil
	}
	return env.Data, nil
}

// GetEmailTemplate retrieves an email template by id
func (c *Client) GetEmailTemplate(ctx context.Context, id string) (*EmailTemplate, error) {
	var env itemEnvelope[EmailTemplate]
	err := c.do(ctx, call{
		resource: "email_templates",
		action:   "get",
		path:     "/fetch/emails/templates/" + url.PathEscape(id),
	}, &env)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, apierrors.NewNotFoundError("email template", id)
		}
		return nil, err
	}
	if env.Data == nil {
		return nil, apierrors.NewNotFoundError("email template", id)
	}
	return env.Data, nil
}

// UpdateEmailTemplate changes a template's subject and/or HTML body
func (c *Client) UpdateEmailTemplate(ctx context.Context, id string, update TemplateUpdate) (*EmailTemplate, error) {
	var env itemEnvelope[EmailTemplate]
	err := c.do(ctx, call{
		method:   http.MethodPatch,
		resource: "email_templates",
		action:   "update",
		path:     "/fetch/emails/templates/" + url.PathEscape(id),
		body:     map[string]any{"email_template": update},
	}, &env)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, apierrors.NewNotFoundError("email template", id)
		}
		return nil, err
	}
	if env.Data == nil {
		return nil, apierrors.NewNotFoundError("email template", id)
	}
	return env.Data, nil
}

// ValidateEmail asks Bento whether an address is likely deliverable
func (c *Client) ValidateEmail(ctx context.Context, req ValidationRequest) (bool, error) {
	var result validationResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		resource: "validation",
		action:   "email",
		path:     "/experimental/validation",
		body:     req,
	}, &result)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

// =============================================================================
// Resolution
// =============================================================================

// resolveID runs name resolution over a listing and records the outcome
func resolveID[T resolve.Named](ctx context.Context, c *Client, resource, id, name string, list resolve.PageFetcher[T]) (resolve.Result, error) {
	res, err := resolve.Resolve[T](ctx, id, name, list)
	c.recordResolution(resource, res, err)
	return res, err
}

// findRecord resolves id or name over a listing and returns the matching record.
// When only an id is given the listing is scanned for it, bounded like a name search.
func findRecord[T resolve.Named](ctx context.Context, c *Client, resource, id, name string, list resolve.PageFetcher[T]) (*T, resolve.Result, error) {
	var lastPage []T
	fetch := func(ctx context.Context, page int) ([]T, error) {
		items, err := list(ctx, page)
		lastPage = items
		return items, err
	}

	res, err := resolveID[T](ctx, c, resource, id, name, fetch)
	if err != nil {
		return nil, res, err
	}
	if !res.Found {
		return nil, res, nil
	}

	if res.Source == resolve.SourceName {
		return pick(lastPage, res.ID), res, nil
	}

	// The id is trusted; the listing is read only to fetch the record, and
	// those pages count toward PagesFetched.
	for page := 1; page <= resolve.MaxPages; page++ {
		items, err := list(ctx, page)
		res.PagesFetched = page
		if err != nil {
			return nil, res, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		if rec := pick(items, res.ID); rec != nil {
			return rec, res, nil
		}
	}
	res.Found = false
	return nil, res, nil
}

func pick[T resolve.Named](items []T, id string) *T {
	for i := range items {
		if items[i].EntityID() == id {
			return &items[i]
		}
	}
	return nil
}

func (c *Client) recordResolution(resource string, res resolve.Result, err error) {
	outcome := string(res.Source)
	switch {
	case err != nil:
		outcome = "error"
	case !res.Found:
		outcome = "not_found"
	}
	metrics.RecordResolution(resource, outcome, res.PagesFetched)
	c.Logger.Debug("Resolved Bento identifier",
		"resource", resource,
		"outcome", outcome,
		"pages", res.PagesFetched)
}

// =============================================================================
// Transport
// =============================================================================

// call describes one Bento API request
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	resource string // metrics and span label
	action   string // metrics and span label
}

// do performs a request inside a span and records API metrics
func (c *Client) do(ctx context.Context, rc call, result any) error {
	ctx, span := tracing.StartSpan(ctx, "bento.api."+rc.resource+"."+rc.action)
	defer span.End()
	tracing.AddAPIAttributes(span, rc.resource, rc.action)

	start := time.Now()
	err := c.doRequest(ctx, rc, result)
	metrics.RecordAPICall(rc.resource, rc.action, time.Since(start).Seconds(), err == nil, errorCode(err))
	tracing.RecordError(span, err)
	return err
}

// doRequest performs an HTTP request using the base client infrastructure
func (c *Client) doRequest(ctx context.Context, rc call, result any) error {
	params := url.Values{}
	for k, v := range rc.query {
		params[k] = v
	}
	params.Set("site_uuid", c.siteUUID)
	reqURL := c.baseURL + rc.path + "?" + params.Encode()

	var payload []byte
	if rc.body != nil {
		var err error
		if payload, err = json.Marshal(rc.body); err != nil {
			return fmt.Errorf("failed to encode %s request: %w", rc.resource, err)
		}
	}

	body, statusCode, err := c.Client.DoRequest(ctx, base.RequestConfig{
		Method:    rc.method,
		URL:       reqURL,
		Body:      payload,
		UserAgent: c.userAgent,
		Username:  c.publishableKey,
		Password:  c.secretKey,
		MaxRetry:  c.maxAttempts,
	})
	if err != nil {
		return err
	}

	// Client errors don't indicate service issues
	c.RecordSuccess()

	if statusCode == http.StatusNotFound {
		return apierrors.NewNotFoundError(rc.resource, rc.path)
	}
	if statusCode >= 400 {
		apiErr := &apierrors.APIError{StatusCode: statusCode, Message: apiMessage(body)}
		if apiErr.Unauthorized() {
			c.Logger.Warn("Bento rejected credentials", "status", statusCode, "resource", rc.resource)
		}
		return apiErr
	}

	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", rc.resource, err)
	}
	return nil
}

// apiMessage extracts a human readable message from an error body
func apiMessage(body []byte) string {
	var parsed struct {
		Error   string   `json:"error"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != "":
			return parsed.Error
		case parsed.Message != "":
			return parsed.Message
		case len(parsed.Errors) > 0:
			return parsed.Errors[0]
		}
	}
	return base.Truncate(string(bytes.TrimSpace(body)), 200)
}

// errorCode labels an error for the api_errors_total metric
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apierrors.APIError
	var openErr *infra.ErrCircuitOpen
	switch {
	case errors.As(err, &apiErr):
		return strconv.Itoa(apiErr.StatusCode)
	case apierrors.IsNotFound(err):
		return "404"
	case errors.As(err, &openErr):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return params
}
