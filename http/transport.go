package http

import (
	"errors"
	"net/http"
)

// AuthTransport is a RoundTripper that authenticates requests to the Fetcch
// request API. It wraps an existing http.RoundTripper and sets the
// secret-key and JSON content-type headers on a clone of every request.
type AuthTransport struct {
	// Base is the underlying RoundTripper (http.DefaultTransport when nil).
	Base http.RoundTripper

	// SecretKey is the pre-shared API credential.
	SecretKey string
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.SecretKey == "" {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, errors.New("fetcch: auth transport has no secret key")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not modify the caller's request.
	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(SecretKeyHeader, t.SecretKey)
	reqCopy.Header.Set("Content-Type", "application/json")

	return base.RoundTrip(reqCopy)
}

// NewAuthClient returns a copy of base whose transport authenticates with
// secretKey. A nil base behaves like http.DefaultClient.
func NewAuthClient(base *http.Client, secretKey string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	client := *base
	client.Transport = &AuthTransport{Base: base.Transport, SecretKey: secretKey}
	return &client
}
