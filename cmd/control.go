// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// TSC1 override control modes (SPN 695) and priority (SPN 897)
const (
	tsc1OverrideDisabled = 0
	tsc1SpeedControl     = 1
	tsc1PriorityLow      = 3

	// Engines drop an override that is not refreshed
	tsc1Interval = 10 * time.Millisecond
	sendTimeout  = 100 * time.Millisecond
)

var errConnectionLost = errors.New("connection lost")

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for engine speed control",
	Long: `Monitor ECUs and command engine speed via an interactive terminal UI.

This command provides a TUI for watching a J1939 bus and sending Torque/Speed
Control 1 (TSC1) overrides to an engine controller. It works over an SLCAN
adapter, a WebSocket bridge or a SocketCAN interface.

Features:
  - ECU discovery (Request for Address Claimed)
  - Per-ECU telemetry (engine speed, coolant, battery, DM1)
  - Speed override, refreshed every 10 ms while active
  - Statistics tracking
  - Event logging
  - Automatic reconnection on connection loss

The TUI discovers ECUs first before enabling control. Tab switches between
ECU list and control panel. Arrow keys navigate the ECU list.

An active override is released when the connection drops or the TUI exits.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// speedOverride is the TSC1 request currently being refreshed
type speedOverride struct {
	target uint8
	rpm    float32
}

func (o speedOverride) frame(sa uint8) j1939.Frame {
	rpm := o.rpm
	return spn.TSC1{
		OverrideControlMode: tsc1SpeedControl,
		OverridePriority:    tsc1PriorityLow,
		RequestedSpeed:      &rpm,
	}.Frame(o.target, sa)
}

func releaseFrame(target, sa uint8) j1939.Frame {
	return spn.TSC1{
		OverrideControlMode: tsc1OverrideDisabled,
		OverridePriority:    tsc1PriorityLow,
	}.Frame(target, sa)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	ctx      context.Context
	cancel   context.CancelFunc
	link     canlink.Link
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program

	overrideMu sync.Mutex
	override   *speedOverride
}

func (cm *connectionManager) getLink() canlink.Link {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.link
}

func (cm *connectionManager) setLink(link canlink.Link, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.link = link
	cm.connInfo = connInfo
}

// send transmits one frame on the current link
func (cm *connectionManager) send(frame j1939.Frame) error {
	link := cm.getLink()
	if link == nil {
		return errConnectionLost
	}
	ctx, cancel := context.WithTimeout(cm.ctx, sendTimeout)
	defer cancel()
	return link.Send(ctx, frame)
}

func (cm *connectionManager) setOverride(o *speedOverride) {
	cm.overrideMu.Lock()
	defer cm.overrideMu.Unlock()
	cm.override = o
}

func (cm *connectionManager) currentOverride() (speedOverride, bool) {
	cm.overrideMu.Lock()
	defer cm.overrideMu.Unlock()
	if cm.override == nil {
		return speedOverride{}, false
	}
	return *cm.override, true
}

func runControl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	link, events, connInfo, err := openWatchedLink(ctx)
	if err != nil {
		return err
	}

	cm := &connectionManager{
		ctx:      ctx,
		cancel:   cancel,
		link:     link,
		connInfo: connInfo,
	}

	m := initialControlModel(cm, connInfo)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p

	go cm.readerLoop(events)
	go cm.overrideLoop()

	sendClaimRequest(cm)

	_, runErr := p.Run()

	cm.releaseOverride()
	cancel()
	if link := cm.getLink(); link != nil {
		link.Close()
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return nil
}

// releaseOverride stops refreshing and tells the engine to let go
func (cm *connectionManager) releaseOverride() {
	o, ok := cm.currentOverride()
	if !ok {
		return
	}
	cm.setOverride(nil)
	if err := cm.send(releaseFrame(o.target, cfg.SourceAddress)); err != nil {
		logger.Warn().Err(err).Uint8("da", o.target).Msg("override release failed")
	}
}

// readerLoop forwards events to the TUI with automatic reconnection
func (cm *connectionManager) readerLoop(events <-chan frameEvent) {
	for {
		if !cm.forward(events) {
			return
		}

		cm.p.Send(connectionLostMsg{})

		var ok bool
		events, ok = cm.reconnect()
		if !ok {
			return
		}
	}
}

// forward batches events to the TUI until the link fails.
// Returns true if the connection was lost, false if shutdown was requested.
func (cm *connectionManager) forward(events <-chan frameEvent) bool {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch controlBatchMsg
	flush := func() {
		if len(batch.events) > 0 {
			cm.p.Send(batch)
			batch = controlBatchMsg{}
		}
	}

	for {
		select {
		case <-cm.ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				flush()
				return cm.ctx.Err() == nil
			}
			batch.events = append(batch.events, ev)
		case <-ticker.C:
			flush()
		}
	}
}

// reconnect attempts to reconnect with exponential backoff.
// Returns false if shutdown was requested during reconnection.
func (cm *connectionManager) reconnect() (<-chan frameEvent, bool) {
	cm.setOverride(nil)
	if link := cm.getLink(); link != nil {
		link.Close()
	}
	cm.setLink(nil, "")

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.ctx.Done():
			return nil, false
		case <-time.After(backoff):
		}

		link, events, connInfo, err := openWatchedLink(cm.ctx)
		if err == nil {
			cm.setLink(link, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			sendClaimRequest(cm)
			return events, true
		}
		logger.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// overrideLoop refreshes the active speed override
func (cm *connectionManager) overrideLoop() {
	ticker := time.NewTicker(tsc1Interval)
	defer ticker.Stop()

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
		}

		o, ok := cm.currentOverride()
		if !ok {
			continue
		}
		if err := cm.send(o.frame(cfg.SourceAddress)); err != nil {
			logger.Debug().Err(err).Msg("TSC1 refresh failed")
		}
	}
}

// sendClaimRequest asks every ECU to announce its address
func sendClaimRequest(cm *connectionManager) {
	frame := j1939.Request(j1939.AddressGlobal, cfg.SourceAddress, j1939.PGNAddressClaimed)
	if err := cm.send(frame); err != nil {
		logger.Debug().Err(err).Msg("address claim request failed")
	}
}
