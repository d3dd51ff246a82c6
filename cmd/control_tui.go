// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	discoveryTimeoutSeconds = 3 // Discovery ends N seconds after last claim seen
	claimIntervalSeconds    = 5 // Repeat the claim request every N seconds
)

// Focus states
const (
	focusECUList = iota
	focusRPMInput
	focusButton
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// ecu is a node that answered with Address Claimed
type ecu struct {
	address  uint8
	name     j1939.Name
	lastSeen time.Time
}

// Implement list.Item interface
func (e ecu) Title() string {
	return fmt.Sprintf("0x%02X %s", e.address, spn.SourceAddressName(e.address))
}
func (e ecu) Description() string { return fmt.Sprintf("NAME %016X", e.name.Uint64()) }
func (e ecu) FilterValue() string { return fmt.Sprintf("%02X", e.address) }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for sending commands and reconnection)
	connMgr  *connectionManager
	connInfo string

	// ECU tracking
	ecus    []ecu
	ecuList list.Model

	// Discovery state
	discoveryDone bool
	lastECUSeen   time.Time
	discovered    map[uint8]*ecu
	lastRequest   time.Time

	// Monitoring
	stats         *j1939.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	telemetry     map[uint8]*telemetryData

	// Control
	rpmInput       textinput.Model
	focusedField   int
	overrideActive bool
	overrideTarget uint8
	overrideRPM    float32

	// UI state
	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlBatchMsg struct {
	events []frameEvent
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(connMgr *connectionManager, connInfo string) controlModel {
	ti := textinput.New()
	ti.Placeholder = "1200"
	ti.CharLimit = 6
	ti.Width = 10

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	ecuList := list.New([]list.Item{}, delegate, 30, 10)
	ecuList.Title = "ECUs"
	ecuList.SetShowStatusBar(false)
	ecuList.SetShowHelp(false)
	ecuList.SetFilteringEnabled(false)

	return controlModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		ecus:          make([]ecu, 0),
		ecuList:       ecuList,
		discovered:    make(map[uint8]*ecu),
		lastRequest:   time.Now(),
		stats:         j1939.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		telemetry:     make(map[uint8]*telemetryData),
		rpmInput:      ti,
		focusedField:  focusECUList,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats.CalculateRates()
		if !m.discoveryDone && !m.lastECUSeen.IsZero() &&
			time.Since(m.lastECUSeen) > discoveryTimeoutSeconds*time.Second {
			m.finishDiscovery()
		}
		// Late joiners and address changes show up on the next request
		if !m.connectionLost && time.Since(m.lastRequest) >= claimIntervalSeconds*time.Second {
			m.lastRequest = time.Now()
			sendClaimRequest(m.connMgr)
		}
		return m, controlTickCmd()

	case controlBatchMsg:
		for _, ev := range msg.events {
			m.processEvent(ev)
		}

	case connectionLostMsg:
		m.connectionLost = true
		if m.overrideActive {
			m.overrideActive = false
			m.addLogEntry("Override dropped with connection", true)
		}
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.resetDiscovery()
		m.addLogEntry("Reconnected - starting discovery", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusRPMInput {
		m.rpmInput, cmd = m.rpmInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusECUList {
		m.ecuList, cmd = m.ecuList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		if m.discoveryDone {
			return m.handleEnter()
		}

	case "up", "k", "down", "j":
		if m.focusedField == focusECUList {
			m.ecuList, _ = m.ecuList.Update(msg)
			return m, nil
		}
	}

	if m.focusedField == focusRPMInput {
		var cmd tea.Cmd
		m.rpmInput, cmd = m.rpmInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	m.ecuList, _ = m.ecuList.Update(msg)
	return m, nil
}

func (m *controlModel) cycleFocus(delta int) *controlModel {
	if !m.discoveryDone || m.getSelectedECU() == nil {
		m.focusedField = focusECUList
		return m
	}

	maxFocus := focusButton
	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	// The speed is fixed while the override runs
	if m.focusedField == focusRPMInput && m.overrideActive {
		m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)
	}

	if m.focusedField == focusRPMInput {
		m.rpmInput.Focus()
	} else {
		m.rpmInput.Blur()
	}

	return m
}

func (m *controlModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}

	if m.focusedField != focusButton && m.focusedField != focusRPMInput {
		return m, nil
	}

	if m.overrideActive {
		return m.releaseOverride()
	}
	return m.startOverride()
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)

	focusedButtonStyle := buttonStyle.
		Background(lipgloss.Color("10"))

	helpText := "q=quit"
	if m.discoveryDone {
		helpText = "q=quit Tab=switch"
	}
	s.WriteString(titleStyle.Render("J1939STAT CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | SA 0x%02X | %s", connStatus, cfg.SourceAddress, helpText)))
	s.WriteString("\n\n")

	if !m.discoveryDone {
		s.WriteString(m.renderDiscoveryView(statsLabelStyle, warningStyle, boxStyle))
	} else {
		s.WriteString(m.renderControlView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle, buttonStyle, focusedButtonStyle))
	}

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderDiscoveryView(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(warningStyle.Render("Discovering ECUs..."))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Found: %d ECU(s)\n\n", len(m.discovered)))

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderControlView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle, buttonStyle, focusedButtonStyle lipgloss.Style) string {
	var s strings.Builder

	// Layout: left panel (ECUs) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusECUList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	ecuPanel := listStyle.Render(m.ecuList.View())

	controlContent := m.renderControlPanel(statsLabelStyle, statsValueStyle, warningStyle, headerStyle, buttonStyle, focusedButtonStyle)
	controlPanel := boxStyle.Width(rightWidth).Render(controlContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, ecuPanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	if selected := m.getSelectedECU(); selected != nil {
		s.WriteString(m.renderTelemetry(selected.address, statsLabelStyle, statsValueStyle, warningStyle, boxStyle))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderControlPanel(statsLabelStyle, statsValueStyle, warningStyle, headerStyle, buttonStyle, focusedButtonStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.getSelectedECU()
	if selected == nil {
		s.WriteString(headerStyle.Render("No ECU selected"))
		return s.String()
	}

	n := selected.name
	s.WriteString(fmt.Sprintf("%s 0x%02X %s\n", statsLabelStyle.Render("Selected:"), selected.address, spn.SourceAddressName(selected.address)))
	s.WriteString(fmt.Sprintf("%s function %d, manufacturer %d, identity %d\n\n",
		statsLabelStyle.Render("NAME:"), n.Function, n.ManufacturerCode, n.IdentityNumber))

	if m.overrideActive {
		s.WriteString(warningStyle.Render(fmt.Sprintf("TSC1 override to 0x%02X: %.0f rpm", m.overrideTarget, m.overrideRPM)))
		if t := m.telemetry[m.overrideTarget]; t != nil && t.engineSpeed != nil {
			s.WriteString(fmt.Sprintf("  (actual %s)", statsValueStyle.Render(fmt.Sprintf("%.0f rpm", *t.engineSpeed))))
		}
		s.WriteString("\n\n")

		btnText := "[ Release Override ]"
		if m.focusedField == focusButton {
			s.WriteString(focusedButtonStyle.Render(btnText))
		} else {
			s.WriteString(buttonStyle.Render(btnText))
		}
		return s.String()
	}

	s.WriteString(statsLabelStyle.Render("Engine speed: "))
	if m.focusedField == focusRPMInput {
		s.WriteString(m.rpmInput.View())
	} else {
		val := m.rpmInput.Value()
		if val == "" {
			val = m.rpmInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString(" rpm\n\n")

	btnText := "[ Start Override ]"
	if m.focusedField == focusButton {
		s.WriteString(focusedButtonStyle.Render(btnText))
	} else {
		s.WriteString(buttonStyle.Render(btnText))
	}

	return s.String()
}

func (m controlModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.TotalErrors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	errText := statsValueStyle.Render("0.0%")
	if errorPercent > 0 {
		errText = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}
	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		statsLabelStyle.Render("Errors:"), errText,
		statsLabelStyle.Render("BAM:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TransportMessages)),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderTelemetry(address uint8, statsLabelStyle, statsValueStyle, warningStyle, boxStyle lipgloss.Style) string {
	t := m.telemetry[address]

	var content strings.Builder
	content.WriteString(statsLabelStyle.Render("TELEMETRY"))
	content.WriteString(" | ")

	if t == nil {
		content.WriteString("No telemetry data")
		return boxStyle.Width(m.width - 4).Render(content.String())
	}

	content.WriteString(fmt.Sprintf("%s %s  ", statsLabelStyle.Render("Speed:"), statsValueStyle.Render(optional(t.engineSpeed, "%.0f rpm"))))
	content.WriteString(fmt.Sprintf("%s %s  ", statsLabelStyle.Render("Coolant:"), statsValueStyle.Render(optional(t.coolant, "%.0fC"))))
	content.WriteString(fmt.Sprintf("%s %s  ", statsLabelStyle.Render("Battery:"), statsValueStyle.Render(optional(t.battery, "%.1f V"))))

	if t.hasDM1 {
		dtcs := statsValueStyle.Render("none")
		if len(t.dtcs) > 0 {
			names := make([]string, len(t.dtcs))
			for i, d := range t.dtcs {
				names[i] = fmt.Sprintf("%d/%d", d.SPN, d.FMI)
			}
			dtcs = warningStyle.Render(strings.Join(names, " "))
		}
		content.WriteString(fmt.Sprintf("%s %s", statsLabelStyle.Render("DTC:"), dtcs))
	}

	return boxStyle.Width(m.width - 4).Render(content.String())
}

func (m controlModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}
	startIdx := len(m.errorLog) - logHeight

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processEvent(ev frameEvent) {
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

	if !m.synchronized {
		m.synchronized = true
		m.addLogEntry("Receiving frames", false)
	}

	m.stats.Update(ev.frame, nil, ev.validationErrors)

	id := ev.frame.ID()
	sa := id.SourceAddress()
	switch id.PGN() {
	case j1939.PGNAddressClaimed:
		m.handleAddressClaim(sa, ev.frame.PDU())
	default:
		m.updateTelemetry(sa, id.PGN(), ev.frame.PDU())
	}

	for _, err := range ev.validationErrors {
		m.addLogEntry(fmt.Sprintf("%s from 0x%02X: %s", j1939.FormatPGN(id.PGN()), sa, err.Message), true)
	}

	if ev.message != nil {
		m.stats.RecordMessage()
		m.updateTelemetry(ev.message.Source, ev.message.PGN, ev.message.Data)
	}
}

func (m *controlModel) handleAddressClaim(sa uint8, pdu []byte) {
	name, err := j1939.ParseName(pdu)
	if err != nil {
		return
	}

	if sa == j1939.AddressNull {
		m.addLogEntry(fmt.Sprintf("Cannot claim address: NAME %016X", name.Uint64()), true)
		return
	}

	if m.discoveryDone {
		for i := range m.ecus {
			if m.ecus[i].address == sa {
				if m.ecus[i].name != name {
					m.addLogEntry(fmt.Sprintf("0x%02X claimed by new NAME %016X", sa, name.Uint64()), false)
					m.ecus[i].name = name
					m.updateECUList()
				}
				m.ecus[i].lastSeen = time.Now()
				return
			}
		}
		m.ecus = append(m.ecus, ecu{address: sa, name: name, lastSeen: time.Now()})
		m.updateECUList()
		m.addLogEntry(fmt.Sprintf("ECU joined: 0x%02X", sa), false)
		return
	}

	if _, exists := m.discovered[sa]; !exists {
		m.discovered[sa] = &ecu{address: sa, name: name, lastSeen: time.Now()}
		m.addLogEntry(fmt.Sprintf("ECU discovered: 0x%02X %s", sa, spn.SourceAddressName(sa)), false)
	}
	m.lastECUSeen = time.Now()
}

func (m *controlModel) updateTelemetry(sa uint8, pgn j1939.PGN, data []byte) {
	t := m.telemetry[sa]
	if t == nil {
		t = &telemetryData{}
	}
	if t.update(sa, pgn, data) {
		m.telemetry[sa] = t
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *controlModel) startOverride() (tea.Model, tea.Cmd) {
	selected := m.getSelectedECU()
	if selected == nil {
		return m, nil
	}

	rpmStr := m.rpmInput.Value()
	if rpmStr == "" {
		rpmStr = m.rpmInput.Placeholder
	}

	rpm, err := strconv.ParseFloat(rpmStr, 32)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid speed value: %s", rpmStr), true)
		return m, nil
	}

	slot := j1939.SlotRotationalVelocity
	if float32(rpm) < slot.Lower || float32(rpm) > slot.Upper {
		m.addLogEntry(fmt.Sprintf("Speed must be between %.0f and %.0f rpm", slot.Lower, slot.Upper), true)
		return m, nil
	}

	o := speedOverride{target: selected.address, rpm: float32(rpm)}
	if err := m.connMgr.send(o.frame(cfg.SourceAddress)); err != nil {
		m.addLogEntry(fmt.Sprintf("Failed to send TSC1: %v", err), true)
		return m, nil
	}
	m.connMgr.setOverride(&o)

	m.overrideActive = true
	m.overrideTarget = o.target
	m.overrideRPM = o.rpm
	m.focusedField = focusButton
	m.rpmInput.Blur()
	m.addLogEntry(fmt.Sprintf("TSC1 speed override %.0f rpm to 0x%02X", rpm, o.target), false)
	return m, nil
}

func (m *controlModel) releaseOverride() (tea.Model, tea.Cmd) {
	m.connMgr.releaseOverride()
	m.overrideActive = false
	m.addLogEntry(fmt.Sprintf("TSC1 override released on 0x%02X", m.overrideTarget), false)
	return m, nil
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) getSelectedECU() *ecu {
	if len(m.ecus) == 0 {
		return nil
	}

	idx := m.ecuList.Index()
	if idx < 0 || idx >= len(m.ecus) {
		return nil
	}

	return &m.ecus[idx]
}

func (m *controlModel) finishDiscovery() {
	if m.discoveryDone {
		return
	}

	m.discoveryDone = true

	m.ecus = make([]ecu, 0, len(m.discovered))
	for _, e := range m.discovered {
		m.ecus = append(m.ecus, *e)
	}
	m.updateECUList()

	m.addLogEntry(fmt.Sprintf("Discovery complete: %d ECU(s)", len(m.ecus)), false)

	if len(m.ecus) > 0 {
		m.focusedField = focusECUList
	}
}

func (m *controlModel) resetDiscovery() {
	m.discoveryDone = false
	m.discovered = make(map[uint8]*ecu)
	m.ecus = make([]ecu, 0)
	m.lastECUSeen = time.Time{}
	m.lastRequest = time.Now()
	m.telemetry = make(map[uint8]*telemetryData)
	m.synchronized = false
	m.updateECUList()
}

func (m *controlModel) updateECUList() {
	sort.Slice(m.ecus, func(i, j int) bool { return m.ecus[i].address < m.ecus[j].address })
	items := make([]list.Item, len(m.ecus))
	for i, e := range m.ecus {
		items[i] = e
	}
	m.ecuList.SetItems(items)
}

func (m *controlModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.ecuList.SetSize(28, listHeight)
}
