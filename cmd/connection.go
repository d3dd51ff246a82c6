// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// passwordEnv holds the WebSocket password
const passwordEnv = envPrefix + "PASSWORD"

// openSerialPort opens the serial device behind an SLCAN adapter
func openSerialPort(portName string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// dialWebSocket opens a WebSocket connection with HTTP Basic auth
func dialWebSocket(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (*websocket.Conn, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return conn, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenLink opens the bus selected by the configuration. onError, if set,
// sees every frame the link could not decode. Frames are logged at trace level.
func OpenLink(ctx context.Context, onError func(error)) (canlink.Link, string, error) {
	opts := []canlink.Option{
		canlink.WithErrorHandler(func(err error) {
			logger.Debug().Err(err).Msg("frame skipped")
			if onError != nil {
				onError(err)
			}
		}),
	}

	link, info, err := openRawLink(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	logger.Info().Str("connection", info).Msg("link open")
	return canlink.NewLoggedLink(link, logger, zerolog.TraceLevel, canlink.LogAll, nil), info, nil
}

func openRawLink(ctx context.Context, opts []canlink.Option) (canlink.Link, string, error) {
	if cfg.Simulate {
		return openSimulation(ctx), "Simulated engine on loopback", nil
	}

	if cfg.CANInterface != "" {
		link, err := canlink.DialSocketCAN(ctx, cfg.CANInterface, opts...)
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("SocketCAN: %s", cfg.CANInterface), nil
	}

	if cfg.URL != "" {
		password := ""
		if cfg.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := dialWebSocket(ctx, cfg.URL, cfg.Username, password, cfg.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return canlink.NewWebSocketLink(conn, opts...), fmt.Sprintf("WebSocket: %s", cfg.URL), nil
	}

	if cfg.Port != "" {
		port, err := openSerialPort(cfg.Port, cfg.Baud)
		if err != nil {
			return nil, "", err
		}
		if cfg.Bitrate > 0 {
			opts = append(opts, canlink.WithBitrate(cfg.Bitrate))
		}
		if cfg.ListenOnly {
			opts = append(opts, canlink.WithListenOnly())
		}
		link, err := canlink.NewSLCANLink(port, opts...)
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("SLCAN: %s @ %d baud, bus %d bit/s", cfg.Port, cfg.Baud, cfg.Bitrate), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url, --can or --simulate must be specified")
}
