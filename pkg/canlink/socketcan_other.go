// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package canlink

import (
	"context"
	"errors"
)

// ErrSocketCANUnsupported is returned by DialSocketCAN outside Linux
var ErrSocketCANUnsupported = errors.New("canlink: SocketCAN requires linux")

// DialSocketCAN is only available on Linux
func DialSocketCAN(ctx context.Context, iface string, opts ...Option) (Link, error) {
	return nil, ErrSocketCANUnsupported
}
