package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinicflow/scheduler/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client is a thin REST client for the Calendly v2 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Calendly client. baseURL is overridable for tests; pass
// "" for the production endpoint.
func NewClient(apiKey, baseURL string, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// CurrentUser resolves the authenticated user, including the URI used to
// scope event-type listings and the organization used for webhooks.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Resource, nil
}

// ListEventTypes returns the event-type templates belonging to the user.
func (c *Client) ListEventTypes(ctx context.Context, userURI string) ([]EventType, error) {
	if strings.TrimSpace(userURI) == "" {
		user, err := c.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		userURI = user.URI
	}
	var out eventTypesResponse
	query := url.Values{"user": []string{userURI}}
	if err := c.do(ctx, http.MethodGet, "/event_types", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

// CreateSchedulingLink issues a single-use booking link for an event type.
func (c *Client) CreateSchedulingLink(ctx context.Context, eventTypeURI string) (string, error) {
	var out schedulingLinkResponse
	body := schedulingLinkRequest{
		MaxEventCount: 1,
		Owner:         eventTypeURI,
		OwnerType:     "EventType",
	}
	if err := c.do(ctx, http.MethodPost, "/scheduling_links", nil, body, &out); err != nil {
		return "", err
	}
	if out.Resource.BookingURL == "" {
		return "", fmt.Errorf("calendly: scheduling link response missing booking_url")
	}
	return out.Resource.BookingURL, nil
}

// RegisterWebhook subscribes callbackURL to invitee created/canceled events
// for the organization.
func (c *Client) RegisterWebhook(ctx context.Context, organizationURI, callbackURL string) (*WebhookSubscription, error) {
	var out webhookSubscriptionResponse
	body := webhookSubscriptionRequest{
		URL:          callbackURL,
		Events:       []string{"invitee.created", "invitee.canceled"},
		Organization: organizationURI,
		Scope:        "organization",
	}
	if err := c.do(ctx, http.MethodPost, "/webhook_subscriptions", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Resource, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return fmt.Errorf("calendly: missing api key")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("calendly: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("calendly: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendly: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("calendly: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("calendly: %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("calendly: unmarshal response: %w", err)
		}
	}
	return nil
}
