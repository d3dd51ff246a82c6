// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
)

const (
	simAddress         = 0x00
	simIdleSpeed       = 700
	simSpeedStep       = 150 // rpm per EEC1 period
	simEEC1Interval    = 100 * time.Millisecond
	simSlowInterval    = time.Second
	simOverrideTimeout = 100 * time.Millisecond
	simSendTimeout     = 100 * time.Millisecond
	simBAMGap          = 50 * time.Millisecond
)

// simulatedEngine is a virtual engine controller on a loopback bus. It
// claims address 0x00, broadcasts EEC1, ET1, VEP1 and DM1, answers
// requests and follows TSC1 speed overrides.
type simulatedEngine struct {
	link canlink.Link
	name j1939.Name

	mu           sync.Mutex
	speed        float32
	target       *float32
	overrideSeen time.Time
	dtcs         []spn.DTC

	// Serializes BAM transfers so TP.DT sequences never interleave
	bamMu sync.Mutex
}

func newSimulatedEngine(link canlink.Link) *simulatedEngine {
	return &simulatedEngine{
		link: link,
		name: j1939.Name{
			IdentityNumber:   0x1939,
			ManufacturerCode: 0x7FF,
			Function:         0, // Engine
			IndustryGroup:    1, // On-highway
		},
		speed: simIdleSpeed,
		dtcs: []spn.DTC{
			{SPN: 110, FMI: 16, OccurrenceCount: 1},
			{SPN: 100, FMI: 1, OccurrenceCount: 3},
		},
	}
}

// openSimulation returns the client side of a loopback bus with a running
// engine. Closing the link stops the engine.
func openSimulation(ctx context.Context) canlink.Link {
	bus := canlink.NewLoopback()
	client := bus.Open()
	engine := newSimulatedEngine(bus.Open())

	ctx, cancel := context.WithCancel(ctx)
	go engine.run(ctx)

	return &simulatedLink{Link: client, stop: func() {
		cancel()
		bus.Close()
	}}
}

type simulatedLink struct {
	canlink.Link
	once sync.Once
	stop func()
}

func (l *simulatedLink) Close() error {
	l.once.Do(l.stop)
	return nil
}

func (e *simulatedEngine) run(ctx context.Context) {
	e.send(ctx, j1939.AddressClaimed(simAddress, e.name))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.broadcastLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.receiveLoop(ctx)
	}()
	wg.Wait()
}

// send transmits one frame, dropping it if the bus stays full
func (e *simulatedEngine) send(ctx context.Context, f j1939.Frame) {
	ctx, cancel := context.WithTimeout(ctx, simSendTimeout)
	defer cancel()
	if err := e.link.Send(ctx, f); err != nil && ctx.Err() == nil {
		logger.Debug().Err(err).Msg("simulator send failed")
	}
}

func (e *simulatedEngine) broadcastLoop(ctx context.Context) {
	fast := time.NewTicker(simEEC1Interval)
	defer fast.Stop()
	slow := time.NewTicker(simSlowInterval)
	defer slow.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-fast.C:
			e.step(now)
			e.send(ctx, e.eec1())
		case <-slow.C:
			e.send(ctx, e.et1())
			e.send(ctx, e.vep1())
			go e.sendDM1(ctx)
		}
	}
}

// step moves the engine speed toward the override target or idle
func (e *simulatedEngine) step(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target != nil && now.Sub(e.overrideSeen) > simOverrideTimeout {
		e.target = nil
	}
	goal := float32(simIdleSpeed)
	if e.target != nil {
		goal = *e.target
	}

	switch {
	case e.speed < goal-simSpeedStep:
		e.speed += simSpeedStep
	case e.speed > goal+simSpeedStep:
		e.speed -= simSpeedStep
	default:
		e.speed = goal
	}
}

func (e *simulatedEngine) currentSpeed() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *simulatedEngine) eec1() j1939.Frame {
	speed := e.currentSpeed()
	return spn.EEC1{
		TorqueMode:  spn.TorqueModeNoRequest,
		EngineSpeed: &speed,
	}.Frame(simAddress)
}

func (e *simulatedEngine) et1() j1939.Frame {
	coolant := float32(85)
	fuel := float32(40)
	id := j1939.NewIDBuilder(j1939.PGNEngineTemperature1).SourceAddress(simAddress).Build()
	return j1939.NewFrame(id, spn.ET1{CoolantTemperature: &coolant, FuelTemperature: &fuel}.Bytes())
}

func (e *simulatedEngine) vep1() j1939.Frame {
	battery := float32(27.6)
	return spn.VEP1{BatteryPotential: &battery}.Frame(simAddress)
}

func (e *simulatedEngine) sendDM1(ctx context.Context) {
	e.mu.Lock()
	msg := spn.DM1{AmberWarningLamp: spn.LampOn, DTCs: append([]spn.DTC(nil), e.dtcs...)}
	e.mu.Unlock()

	frames, err := msg.Frames(simAddress)
	if err != nil {
		logger.Debug().Err(err).Msg("simulator DM1 failed")
		return
	}

	e.bamMu.Lock()
	defer e.bamMu.Unlock()
	for i, f := range frames {
		if i > 0 {
			select {
			case <-time.After(simBAMGap):
			case <-ctx.Done():
				return
			}
		}
		e.send(ctx, f)
	}
}

func (e *simulatedEngine) receiveLoop(ctx context.Context) {
	for {
		f, err := e.link.Receive(ctx)
		if err != nil {
			return
		}
		e.handle(ctx, f, time.Now())
	}
}

func (e *simulatedEngine) handle(ctx context.Context, f j1939.Frame, now time.Time) {
	id := f.ID()
	da, addressed := id.DestinationAddress()
	if addressed && da != simAddress && da != j1939.AddressGlobal {
		return
	}

	switch id.PGN() {
	case j1939.PGNRequest:
		pgn, err := j1939.RequestFromPDU(f.PDU())
		if err != nil {
			return
		}
		e.answer(ctx, pgn, da == j1939.AddressGlobal)

	case j1939.PGNTorqueSpeedControl1:
		if da != simAddress {
			return
		}
		msg, err := spn.ParseTSC1(f.PDU())
		if err != nil {
			return
		}
		e.mu.Lock()
		if msg.OverrideControlMode == tsc1SpeedControl && msg.RequestedSpeed != nil {
			target := *msg.RequestedSpeed
			e.target = &target
			e.overrideSeen = now
		} else {
			e.target = nil
		}
		e.mu.Unlock()
	}
}

// answer responds to a request. Unsupported PGNs are refused with a NACK
// unless the request was global.
func (e *simulatedEngine) answer(ctx context.Context, pgn j1939.PGN, global bool) {
	switch pgn {
	case j1939.PGNAddressClaimed:
		e.send(ctx, j1939.AddressClaimed(simAddress, e.name))
	case j1939.PGNElectronicEngineController1:
		e.send(ctx, e.eec1())
	case j1939.PGNEngineTemperature1:
		e.send(ctx, e.et1())
	case j1939.PGNVehicleElectricalPower1:
		e.send(ctx, e.vep1())
	case j1939.PGNDiagnosticMessage1:
		go e.sendDM1(ctx)
	default:
		if !global {
			e.send(ctx, j1939.AcknowledgementWithControl(simAddress, pgn, j1939.AckNegative))
		}
	}
}
