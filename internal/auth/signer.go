// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth signs outbound requests to the billboard API with a
// per-device HMAC, so the server can authenticate which device is polling
// without a shared bearer token.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrAuth classifies fatal startup auth configuration errors (an empty
// device secret is a ConfigError per spec.md §7).
var ErrAuth = errors.New("auth error")

const (
	headerDeviceID = "x-device-id"
	headerTimestamp = "x-timestamp"
	headerSignature = "x-signature"
)

// Signer computes the per-request headers that authenticate this device to
// the billboard API. It is safe for concurrent use.
type Signer struct {
	deviceID string
	secret   []byte
	now      func() time.Time
}

// NewSigner builds a Signer for deviceID keyed by secret. An empty secret is
// rejected: the device cannot authenticate without one.
func NewSigner(deviceID string, secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: device secret is empty", ErrAuth)
	}
	return &Signer{deviceID: deviceID, secret: secret, now: time.Now}, nil
}

// Headers computes the x-device-id, x-timestamp and x-signature header
// values for the given request body. Clock skew between this device and the
// server is the server's problem to tolerate, not this signer's.
func (s *Signer) Headers(body []byte) http.Header {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	bodyDigest := sha256.Sum256(body)
	signed := timestamp + "." + hex.EncodeToString(bodyDigest[:])

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signed))
	signature := hex.EncodeToString(mac.Sum(nil))

	h := make(http.Header, 3)
	h.Set(headerDeviceID, s.deviceID)
	h.Set(headerTimestamp, timestamp)
	h.Set(headerSignature, signature)
	return h
}

// Apply signs body and sets the resulting headers on req.
func (s *Signer) Apply(req *http.Request, body []byte) {
	for k, v := range s.Headers(body) {
		req.Header[k] = v
	}
}
