// Package account provides the HTTP client for the Dyson cloud account
// API: authentication and the device manifest.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.cp.dyson.com"

// Credentials identifies a Dyson account. Country is the two-letter
// code the account was registered under (e.g. "GB", "US").
type Credentials struct {
	Username string
	Password string
	Country  string
}

// Device is one entry of the account's device manifest, with the local
// MQTT credential already decrypted.
type Device struct {
	Name        string
	Serial      string
	ProductType string
	Active      bool
	// MQTTPassword is the decrypted per-device credential used to
	// authenticate against the device's MQTT listener.
	MQTTPassword string
}

// Client talks to the Dyson cloud account API. Login must succeed before
// Devices is usable.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
}

// NewClient creates an account API client for the given credentials.
func NewClient(creds Credentials) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		baseURL: defaultBaseURL,
		creds:   creds,
	}
}

type authResponse struct {
	Account  string `json:"Account"`
	Password string `json:"Password"`
}

// Login authenticates against the account service. On success the
// returned session material is installed as basic auth for all later
// calls. A rejection returns ErrAuthRejected; it is never retried here.
func (c *Client) Login(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1/userregistration/authenticate?country=%s",
		c.baseURL, url.QueryEscape(c.creds.Country))

	body, err := json.Marshal(map[string]string{
		"Email":    c.creds.Username,
		"Password": c.creds.Password,
	})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w (username %s)", ErrAuthRejected, c.creds.Username)
	}
	if resp.StatusCode != http.StatusOK {
		return c.apiError("authenticate", resp)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if auth.Account == "" || auth.Password == "" {
		return fmt.Errorf("%w: empty session material", ErrAuthRejected)
	}

	c.httpClient.Transport = &basicAuthTransport{
		username:  auth.Account,
		password:  auth.Password,
		transport: c.httpClient.Transport,
	}
	slog.Debug("account session established", "account", auth.Account)
	return nil
}

// basicAuthTransport adds the session basic-auth header to requests.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.transport.RoundTrip(req)
}

type manifestDevice struct {
	Name             string `json:"Name"`
	Serial           string `json:"Serial"`
	ProductType      string `json:"ProductType"`
	Active           bool   `json:"Active"`
	LocalCredentials string `json:"LocalCredentials"`
}

// Devices fetches the account's device manifest and decrypts each
// device's local MQTT credential. Devices whose credential blob cannot
// be decrypted are skipped with a warning.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	endpoint := fmt.Sprintf("%s/v1/provisioningservice/manifest", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating manifest request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("manifest", resp)
	}

	var manifest []manifestDevice
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	devices := make([]Device, 0, len(manifest))
	for _, d := range manifest {
		if d.Serial == "" {
			slog.Warn("skipping manifest entry with missing serial", "name", d.Name)
			continue
		}
		password, err := decryptLocalCredentials(d.LocalCredentials)
		if err != nil {
			slog.Warn("skipping device with undecryptable credentials",
				"name", d.Name, "serial", d.Serial, "error", err)
			continue
		}
		devices = append(devices, Device{
			Name:         d.Name,
			Serial:       d.Serial,
			ProductType:  d.ProductType,
			Active:       d.Active,
			MQTTPassword: password,
		})
	}
	return devices, nil
}

func (c *Client) apiError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Underlying: fmt.Errorf("%s", bytes.TrimSpace(body)),
	}
}
