/*
Package zaptec is a minimal client for the Zaptec cloud API. It covers the 3 calls the service
needs: password grant authentication, installation listing and charge history retrieval.

The API wraps list responses in a paging envelope:

	{
		"Pages": 2,
		"Data": [ ... ]
	}

The client follows Pages and returns the aggregated Data.
*/
package zaptec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// DefaultAPIURL is the production Zaptec cloud endpoint.
const DefaultAPIURL = "https://api.zaptec.com"

// pageSize matches the maximum page size accepted by the Zaptec list endpoints.
const pageSize = 100

// ErrInvalidCredentials indicates the Zaptec cloud rejected a username/password combination.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnauthorized indicates an access token was rejected. The token is most likely expired and
// the user needs to authenticate again.
var ErrUnauthorized = errors.New("unauthorized")

// Installation is a charging installation owned by the authenticated user.
type Installation struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// ChargeSession is a single charging session within an installation.
type ChargeSession struct {
	ID            string  `json:"Id"`
	DeviceName    string  `json:"DeviceName"`
	StartDateTime string  `json:"StartDateTime"`
	EndDateTime   string  `json:"EndDateTime"`
	Energy        float64 `json:"Energy"`
}

// Client is a Zaptec cloud API client. The zero value is not usable; construct instances with
// New.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the http.Client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// New creates a Client targeting the API at baseURL. If baseURL is empty DefaultAPIURL is used.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	if client.baseURL == "" {
		client.baseURL = DefaultAPIURL
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Authenticate performs an OAuth2 password grant against /oauth/token and returns the access
// token. Rejected credentials return ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/oauth/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidCredentials
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", errors.Wrap(err, "decode token response")
	}

	if token.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}

	return token.AccessToken, nil
}

// Installations retrieves all installations visible to token.
func (c *Client) Installations(ctx context.Context, token string) ([]Installation, error) {
	var installations []Installation

	err := c.paged(ctx, token, "/api/installation", url.Values{}, func(data json.RawMessage) error {
		var page []Installation
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		installations = append(installations, page...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch installations")
	}

	return installations, nil
}

// ChargeHistory retrieves the charge sessions for installationID within the half-open interval
// [from, to).
func (c *Client) ChargeHistory(ctx context.Context, token, installationID string, from, to time.Time) ([]ChargeSession, error) {
	params := url.Values{}
	params.Set("InstallationId", installationID)
	params.Set("From", from.UTC().Format(time.RFC3339))
	params.Set("To", to.UTC().Format(time.RFC3339))
	params.Set("DetailLevel", "1")

	var sessions []ChargeSession

	err := c.paged(ctx, token, "/api/chargehistory", params, func(data json.RawMessage) error {
		var page []ChargeSession
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		sessions = append(sessions, page...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch charge history")
	}

	return sessions, nil
}

// IsHealthy reports whether the Zaptec cloud is reachable. Any HTTP response counts as
// reachable; only transport failures do not.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return true
}

// envelope is the paging wrapper used by the Zaptec list endpoints.
type envelope struct {
	Pages int             `json:"Pages"`
	Data  json.RawMessage `json:"Data"`
}

// paged GETs path once per page, invoking collect with the raw Data of every page.
func (c *Client) paged(ctx context.Context, token, path string, params url.Values, collect func(json.RawMessage) error) error {
	params.Set("PageSize", strconv.Itoa(pageSize))

	for page := 0; ; page++ {
		params.Set("PageIndex", strconv.Itoa(page))

		env, err := c.get(ctx, token, path, params)
		if err != nil {
			return err
		}

		if len(env.Data) > 0 {
			if err := collect(env.Data); err != nil {
				return err
			}
		}

		if page+1 >= env.Pages {
			return nil
		}
	}
}

// get performs a single authenticated GET, retrying transport errors and 5xx responses with
// exponential backoff bounded by ctx.
func (c *Client) get(ctx context.Context, token, path string, params url.Values) (envelope, error) {
	var env envelope

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			env = envelope{}
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				return backoff.Permanent(errors.Wrap(err, "decode response"))
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			return backoff.Permanent(ErrUnauthorized)

		case resp.StatusCode >= 500:
			return fmt.Errorf("GET %v: unexpected status %v", path, resp.StatusCode)

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(
				fmt.Errorf("GET %v: unexpected status %v: %s", path, resp.StatusCode, body),
			)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return envelope{}, err
	}

	return env, nil
}
