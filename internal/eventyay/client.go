package eventyay

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
	"time"
)

// ErrBadgePending is returned by FetchBadge while the server is still
// rendering the badge (HTTP 409).
var ErrBadgePending = errors.New("eventyay: badge still generating")

// StatusError reports an unexpected HTTP status from the API.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eventyay %s: status %d", e.Op, e.Code)
}

// ListID is a check-in list identifier. The API sends numbers; string ids
// are accepted as well and kept verbatim.
type ListID string

func (id *ListID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ListID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("list id: %w", err)
		}
		*id = ListID(n)
	}
	return nil
}

func (id ListID) String() string { return string(id) }

// CheckinList is one entry of the event's check-in list collection.
type CheckinList struct {
	ID   ListID `json:"id"`
	Name string `json:"name"`
}

// RedeemRequest is the body of POST checkinrpc/redeem/.
type RedeemRequest struct {
	Secret             string     `json:"secret"`
	SourceType         string     `json:"source_type"`
	Lists              []string   `json:"lists"`
	Force              bool       `json:"force"`
	IgnoreUnpaid       bool       `json:"ignore_unpaid"`
	Nonce              string     `json:"nonce"`
	Datetime           *time.Time `json:"datetime"`
	QuestionsSupported bool       `json:"questions_supported"`
}

// RawResponse is an HTTP answer the caller classifies itself.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Client is an authenticated eventyay REST client scoped to one event.
type Client struct {
	baseURL     string
	deviceToken string
	organizer   string
	eventSlug   string
	http        *http.Client
}

func NewClient(baseURL, deviceToken, organizer, eventSlug string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		deviceToken: deviceToken,
		organizer:   organizer,
		eventSlug:   eventSlug,
		http:        &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Device "+c.deviceToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// CheckinLists fetches the check-in lists of the configured event in
// server order.
func (c *Client) CheckinLists(ctx context.Context) ([]CheckinList, error) {
	path := fmt.Sprintf("/api/v1/organizers/%s/events/%s/checkinlists/",
		url.PathEscape(c.organizer), url.PathEscape(c.eventSlug))
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "CheckinLists", Code: resp.StatusCode}
	}
	var page struct {
		Results []CheckinList `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("eventyay CheckinLists: decode: %w", err)
	}
	return page.Results, nil
}

// Redeem submits a redemption. Any HTTP answer is returned as-is; err is
// non-nil only when no answer was received.
func (c *Client) Redeem(ctx context.Context, r RedeemRequest) (*RawResponse, error) {
	path := fmt.Sprintf("/api/v1/organizers/%s/checkinrpc/redeem/", url.PathEscape(c.organizer))
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eventyay Redeem: read body: %w", err)
	}
	return &RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// FetchBadge downloads the badge document at badgeURL, which is either
// absolute or relative to the base URL.
func (c *Client) FetchBadge(ctx context.Context, badgeURL string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.resolve(badgeURL), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrBadgePending
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Op: "FetchBadge", Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) resolve(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }
