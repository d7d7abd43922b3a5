// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package identity resolves the device identity used to sign outbound
// billboard API requests: a device ID (the host's name) and a device secret
// (the contents of /etc/machine-id).
package identity

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmao124/vobox-pi-player/internal/auth"
)

// machineIDPath is the conventional location of the host's stable machine
// identifier on Linux. Overridable in tests.
var machineIDPath = "/etc/machine-id"

// DeviceID returns the host identity used as the x-device-id header value.
func DeviceID() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("%w: resolve hostname: %v", auth.ErrAuth, err)
	}
	return host, nil
}

// DeviceSecret reads the device secret from /etc/machine-id. An empty or
// missing secret is a fatal startup error: the device cannot authenticate.
func DeviceSecret() ([]byte, error) {
	data, err := os.ReadFile(machineIDPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read device secret from %s: %v", auth.ErrAuth, machineIDPath, err)
	}

	secret := strings.TrimRight(string(data), "\n")
	if secret == "" {
		return nil, fmt.Errorf("%w: device secret at %s is empty", auth.ErrAuth, machineIDPath)
	}
	return []byte(secret), nil
}

// NewSigner resolves the device ID and secret and builds an auth.Signer.
func NewSigner() (*auth.Signer, error) {
	id, err := DeviceID()
	if err != nil {
		return nil, err
	}
	secret, err := DeviceSecret()
	if err != nil {
		return nil, err
	}
	return auth.NewSigner(id, secret)
}
