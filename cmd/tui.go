// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// Latest engine parameters seen on the bus
type telemetryData struct {
	timestamp   time.Time
	engineSA    uint8
	engineSpeed *float32
	coolant     *float32
	battery     *float32
	dtcSource   uint8
	dtcs        []spn.DTC
	hasDM1      bool
}

// TUI model
type model struct {
	connInfo      string
	statsInterval time.Duration
	showAll       bool
	stats         *j1939.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	skipped       int
	linkClosed    bool
	width         int
	height        int
	quitting      bool
	lastTelemetry *telemetryData
}

// Messages
type tickMsg time.Time
type frameEventMsg frameEvent
type syncMsg struct {
	skipped int
}
type linkClosedMsg struct{}

func initialModel(connInfo string, statsInterval time.Duration, showAll bool) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         j1939.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.skipped = msg.skipped
		if msg.skipped > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d bad lines", msg.skipped), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case linkClosedMsg:
		m.linkClosed = true
		m.addLogEntry("Link closed", true)

	case frameEventMsg:
		m.applyEvent(frameEvent(msg))
	}

	return m, nil
}

func (m *model) applyEvent(ev frameEvent) {
	for _, sa := range ev.expired {
		m.stats.Update(nil, &j1939.ProtocolError{
			PGN:    j1939.PGNTransportProtocolConnectionManagement,
			Reason: "session timed out",
		}, nil)
		m.addLogEntry(fmt.Sprintf("BAM session from 0x%02X timed out", sa), true)
	}

	if ev.decodeErr != nil {
		if m.synchronized {
			m.stats.Update(nil, ev.decodeErr, nil)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", ev.decodeErr), true)
		}
		return
	}
	if ev.frame == nil {
		return
	}

	m.stats.Update(ev.frame, nil, ev.validationErrors)
	m.parseTelemetry(ev.frame.ID().SourceAddress(), ev.frame.ID().PGN(), ev.frame.PDU())

	name := j1939.FormatPGN(ev.frame.ID().PGN())
	if len(ev.validationErrors) > 0 {
		for _, err := range ev.validationErrors {
			m.addLogEntry(fmt.Sprintf("%s from %02X: %s", name, ev.frame.ID().SourceAddress(), err.Message), true)
		}
	} else if m.showAll {
		m.addLogEntry(fmt.Sprintf("%s from %02X (valid)", name, ev.frame.ID().SourceAddress()), false)
	}

	if ev.message != nil {
		m.stats.RecordMessage()
		m.parseTelemetry(ev.message.Source, ev.message.PGN, ev.message.Data)
		if m.showAll {
			m.addLogEntry(fmt.Sprintf("BAM %s from %02X (%d bytes)",
				j1939.FormatPGN(ev.message.PGN), ev.message.Source, len(ev.message.Data)), false)
		}
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// parseTelemetry keeps the latest engine parameters and active DTCs
func (m *model) parseTelemetry(sa uint8, pgn j1939.PGN, data []byte) {
	t := m.lastTelemetry
	if t == nil {
		t = &telemetryData{}
	}
	if t.update(sa, pgn, data) {
		m.lastTelemetry = t
	}
}

// update applies one engine message and reports whether it was recognised
func (t *telemetryData) update(sa uint8, pgn j1939.PGN, data []byte) bool {
	switch pgn {
	case j1939.PGNElectronicEngineController1:
		msg, err := spn.ParseEEC1(data)
		if err != nil {
			return false
		}
		t.engineSA = sa
		t.engineSpeed = msg.EngineSpeed

	case j1939.PGNEngineTemperature1:
		msg, err := spn.ParseET1(data)
		if err != nil {
			return false
		}
		t.coolant = msg.CoolantTemperature

	case j1939.PGNVehicleElectricalPower1:
		msg, err := spn.ParseVEP1(data)
		if err != nil {
			return false
		}
		t.battery = msg.BatteryPotential

	case j1939.PGNDiagnosticMessage1:
		msg, err := spn.ParseDM1(data)
		if err != nil {
			return false
		}
		t.dtcSource = sa
		t.dtcs = msg.DTCs
		t.hasDM1 = true

	default:
		return false
	}

	t.timestamp = time.Now()
	return true
}

func optional(v *float32, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("J1939STAT - ERROR DETECTION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset, 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	switch {
	case m.linkClosed:
		s.WriteString(errorStyle.Render("✗ Link closed"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for first frame..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Receiving"))
		if m.skipped > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d bad lines)", m.skipped)))
		}
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.TotalErrors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.TotalErrors(), errorPercent)),
	))

	if m.stats.DecodeErrors > 0 || m.stats.TransportErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
			statsLabelStyle.Render("Transport Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.TransportErrors)),
		))
	}

	if m.stats.MalformedFrames > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.MalformedFrames)),
			headerStyle.Render("length"), m.stats.LengthMismatches,
			headerStyle.Render("counts"), m.stats.InvalidCounts,
			headerStyle.Render("addresses"), m.stats.InvalidAddresses,
			headerStyle.Render("reserved"), m.stats.ReservedBits,
		))
	}

	if m.stats.AnomalousValues > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d)\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
			headerStyle.Render("error indicators"), m.stats.ErrorIndicators,
		))
	}

	errorRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), errorRate,
		statsLabelStyle.Render("BAM:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TransportMessages)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	if t := m.lastTelemetry; t != nil {
		s.WriteString(statsLabelStyle.Render("Latest Telemetry:"))
		s.WriteString("\n")

		telemetryContent := strings.Builder{}
		telemetryContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Engine Speed:"), statsValueStyle.Render(optional(t.engineSpeed, "%.0f rpm")),
			statsLabelStyle.Render("Coolant:"), statsValueStyle.Render(optional(t.coolant, "%.0f°C")),
			statsLabelStyle.Render("Battery:"), statsValueStyle.Render(optional(t.battery, "%.2f V")),
		))
		if t.engineSpeed != nil {
			telemetryContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Engine:"), headerStyle.Render(fmt.Sprintf("0x%02X %s", t.engineSA, spn.SourceAddressName(t.engineSA))),
			))
		}
		if t.hasDM1 {
			if len(t.dtcs) == 0 {
				telemetryContent.WriteString(fmt.Sprintf("%s %s\n",
					statsLabelStyle.Render("DTCs:"), statsValueStyle.Render("none active")))
			}
			for _, dtc := range t.dtcs {
				telemetryContent.WriteString(fmt.Sprintf("%s %s\n",
					statsLabelStyle.Render(fmt.Sprintf("DTC (0x%02X):", t.dtcSource)), warningStyle.Render(dtc.String())))
			}
		}

		s.WriteString(boxStyle.Render(strings.TrimSuffix(telemetryContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Reserve space for header and stats
	logHeight := m.height - 15
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
