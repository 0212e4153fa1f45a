package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Credentials{Username: "user@example.com", Password: "hunter2", Country: "GB"})
	c.baseURL = srv.URL
	return c
}

func TestLogin(t *testing.T) {
	var gotCountry string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/userregistration/authenticate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotCountry = r.URL.Query().Get("country")

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body["Email"] != "user@example.com" || body["Password"] != "hunter2" {
			t.Errorf("credentials = %v", body)
		}

		json.NewEncoder(w).Encode(authResponse{Account: "account-id", Password: "session-secret"})
	}))

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotCountry != "GB" {
		t.Errorf("country = %q, want GB", gotCountry)
	}

	bat, ok := c.httpClient.Transport.(*basicAuthTransport)
	if !ok {
		t.Fatalf("transport = %T, want *basicAuthTransport", c.httpClient.Transport)
	}
	if bat.username != "account-id" || bat.password != "session-secret" {
		t.Errorf("session = %q/%q", bat.username, bat.password)
	}
}

func TestLoginRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := c.Login(context.Background())
		if !errors.Is(err, ErrAuthRejected) {
			t.Errorf("Login() with status %d: error = %v, want ErrAuthRejected", status, err)
		}
	}
}

func TestLoginServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))

	err := c.Login(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "authenticate" {
		t.Errorf("Endpoint = %q, want authenticate", apiErr.Endpoint)
	}
}

func TestLoginEmptySession(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(authResponse{})
	}))

	if err := c.Login(context.Background()); !errors.Is(err, ErrAuthRejected) {
		t.Errorf("Login() error = %v, want ErrAuthRejected", err)
	}
}

func TestDevices(t *testing.T) {
	goodBlob := encryptLocalCredentials(t,
		`{"serial":"NN2-EU-KKA0717A","apPasswordHash":"hash-one"}`)

	var gotUser, gotPass string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/userregistration/authenticate" {
			json.NewEncoder(w).Encode(authResponse{Account: "account-id", Password: "session-secret"})
			return
		}
		if r.URL.Path != "/v1/provisioningservice/manifest" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotUser, gotPass, _ = r.BasicAuth()

		json.NewEncoder(w).Encode([]manifestDevice{
			{
				Name:             "Living room",
				Serial:           "NN2-EU-KKA0717A",
				ProductType:      "455",
				Active:           true,
				LocalCredentials: goodBlob,
			},
			{
				Name:             "Broken",
				Serial:           "XX1-EU-XXX0000X",
				ProductType:      "438",
				Active:           true,
				LocalCredentials: "not a real blob",
			},
			{
				Name:   "No serial",
				Serial: "",
			},
		})
	}))

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	devices, err := c.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}

	if gotUser != "account-id" || gotPass != "session-secret" {
		t.Errorf("basic auth = %q/%q, want session material", gotUser, gotPass)
	}

	if len(devices) != 1 {
		t.Fatalf("Devices() returned %d devices, want 1 (undecryptable entries skipped)", len(devices))
	}
	d := devices[0]
	if d.Name != "Living room" || d.Serial != "NN2-EU-KKA0717A" || d.ProductType != "455" {
		t.Errorf("device = %+v", d)
	}
	if !d.Active {
		t.Error("Active = false, want true")
	}
	if d.MQTTPassword != "hash-one" {
		t.Errorf("MQTTPassword = %q, want hash-one", d.MQTTPassword)
	}
}

func TestDevicesServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	_, err := c.Devices(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Devices() error = %v, want *APIError", err)
	}
	if apiErr.Endpoint != "manifest" {
		t.Errorf("Endpoint = %q, want manifest", apiErr.Endpoint)
	}
}
