// Package platform is a thin client for the social platform's REST API,
// authenticated with OAuth1 request signing.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/dstanwick/perch/internal/perr"
)

const defaultBaseURL = "https://api.twitter.com/1.1"

// Client calls the platform REST API. All failures are classified as
// KindPlatformAPI; the loop treats them as transient.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New builds a client from both credential pairs. Empty credentials are an
// initialization error, not a retryable one.
func New(consumerKey, consumerSecret, accessToken, accessSecret string) (*Client, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, perr.Errorf(perr.KindInitialization, "platform.new", "consumer credentials are empty")
	}
	if accessToken == "" || accessSecret == "" {
		return nil, perr.Errorf(perr.KindInitialization, "platform.new", "access credentials are empty")
	}

	config := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Client{httpClient: httpClient, baseURL: defaultBaseURL}, nil
}

// newWithClient is used by tests to point the client at a fake server.
func newWithClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// VerifyCredentials resolves the authenticated account's identity.
func (c *Client) VerifyCredentials(ctx context.Context) (Identity, error) {
	var body struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	}
	if err := c.get(ctx, "platform.verify_credentials", "/account/verify_credentials.json", nil, &body); err != nil {
		return Identity{}, err
	}
	return Identity{ID: body.IDStr, Handle: body.ScreenName}, nil
}

// ListMembers returns the handles of the members of a curated list.
func (c *Client) ListMembers(ctx context.Context, owner, slug string) ([]string, error) {
	query := url.Values{
		"owner_screen_name": {owner},
		"slug":              {slug},
		"count":             {"100"},
	}
	var body struct {
		Users []struct {
			ScreenName string `json:"screen_name"`
		} `json:"users"`
	}
	if err := c.get(ctx, "platform.list_members", "/lists/members.json", query, &body); err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(body.Users))
	for _, u := range body.Users {
		handles = append(handles, u.ScreenName)
	}
	return handles, nil
}

// Mentions fetches mentions strictly newer than sinceID, in ascending id
// order. An empty sinceID omits the lower bound and returns everything
// currently visible.
func (c *Client) Mentions(ctx context.Context, sinceID string) ([]Mention, error) {
	query := url.Values{"count": {"200"}}
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}
	var body []struct {
		IDStr     string `json:"id_str"`
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
		User      struct {
			ScreenName string `json:"screen_name"`
		} `json:"user"`
	}
	if err := c.get(ctx, "platform.mentions", "/statuses/mentions_timeline.json", query, &body); err != nil {
		return nil, err
	}

	mentions := make([]Mention, 0, len(body))
	for _, m := range body {
		mentions = append(mentions, Mention{
			ID:        m.IDStr,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			User:      m.User.ScreenName,
		})
	}
	// The API returns newest first.
	sort.Slice(mentions, func(i, j int) bool { return IDLess(mentions[i].ID, mentions[j].ID) })
	return mentions, nil
}

// PostReply posts text as a reply threaded to the given status id.
func (c *Client) PostReply(ctx context.Context, text, inReplyTo string) error {
	form := url.Values{
		"status":                       {text},
		"in_reply_to_status_id":        {inReplyTo},
		"auto_populate_reply_metadata": {"true"},
	}
	return c.postForm(ctx, "platform.post_reply", "/statuses/update.json", form)
}

// PostStatus posts a standalone status.
func (c *Client) PostStatus(ctx context.Context, text string) error {
	form := url.Values{"status": {text}}
	return c.postForm(ctx, "platform.post_status", "/statuses/update.json", form)
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, v any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return perr.E(perr.KindPlatformAPI, op, err)
	}
	return c.do(op, req, v)
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return perr.E(perr.KindPlatformAPI, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(op, req, nil)
}

func (c *Client) do(op string, req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return perr.E(perr.KindPlatformAPI, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return perr.E(perr.KindPlatformAPI, op,
			fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return perr.E(perr.KindPlatformAPI, op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
