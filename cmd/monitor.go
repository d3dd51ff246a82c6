// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	monitorPGNs    []string
	monitorSources []string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live table of parameter groups on the bus",
	Long: `Show one row per PGN and source address with message count, rate,
age and the latest payload. BAM transfers appear once reassembled.

Keys: up/down select, enter toggles decoding of the selected row,
c clears the table, q quits.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringSliceVar(&monitorPGNs, "pgn", nil, "Only show these PGNs")
	monitorCmd.Flags().StringSliceVar(&monitorSources, "sa", nil, "Only show these source addresses")
}

var isTransport = j1939.TransportOnly()

// pgnKey identifies one table row
type pgnKey struct {
	pgn    j1939.PGN
	source uint8
}

// pgnStats is the traffic seen for one PGN from one source
type pgnStats struct {
	key       pgnKey
	count     uint64
	first     time.Time
	last      time.Time
	data      []byte
	transport bool
}

// rate returns the average message rate in Hz
func (s *pgnStats) rate() float64 {
	span := s.last.Sub(s.first).Seconds()
	if s.count < 2 || span <= 0 {
		return 0
	}
	return float64(s.count-1) / span
}

// pgnTracker aggregates traffic per PGN and source
type pgnTracker struct {
	entries map[pgnKey]*pgnStats
}

func newPGNTracker() *pgnTracker {
	return &pgnTracker{entries: make(map[pgnKey]*pgnStats)}
}

func (t *pgnTracker) observe(pgn j1939.PGN, source uint8, data []byte, at time.Time, transport bool) {
	key := pgnKey{pgn: pgn, source: source}
	s, ok := t.entries[key]
	if !ok {
		s = &pgnStats{key: key, first: at}
		t.entries[key] = s
	}
	s.count++
	s.last = at
	s.data = append(s.data[:0], data...)
	s.transport = transport
}

// sorted returns the entries ordered by PGN then source
func (t *pgnTracker) sorted() []*pgnStats {
	out := make([]*pgnStats, 0, len(t.entries))
	for _, s := range t.entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.pgn != out[j].key.pgn {
			return out[i].key.pgn < out[j].key.pgn
		}
		return out[i].key.source < out[j].key.source
	})
	return out
}

func (t *pgnTracker) rows(now time.Time) []table.Row {
	entries := t.sorted()
	rows := make([]table.Row, len(entries))
	for i, s := range entries {
		data := fmt.Sprintf("% X", s.data)
		if s.transport {
			data = fmt.Sprintf("[%d bytes] % X", len(s.data), s.data[:min(len(s.data), 8)])
		}
		rows[i] = table.Row{
			fmt.Sprintf("%05X", uint32(s.key.pgn)),
			j1939.FormatPGN(s.key.pgn),
			fmt.Sprintf("%02X", s.key.source),
			fmt.Sprintf("%d", s.count),
			fmt.Sprintf("%.1f", s.rate()),
			now.Sub(s.last).Round(100 * time.Millisecond).String(),
			data,
		}
	}
	return rows
}

// monitorModel is the Bubble Tea model for the monitor command
type monitorModel struct {
	connInfo   string
	filter     j1939.FrameFilter
	tracker    *pgnTracker
	table      table.Model
	decoded    bool
	linkClosed bool
	quitting   bool
	width      int
	height     int
}

type monitorTickMsg time.Time
type monitorBatchMsg []frameEvent

func monitorTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func newMonitorModel(connInfo string, filter j1939.FrameFilter) monitorModel {
	columns := []table.Column{
		{Title: "PGN", Width: 6},
		{Title: "Name", Width: 8},
		{Title: "SA", Width: 3},
		{Title: "Count", Width: 8},
		{Title: "Hz", Width: 6},
		{Title: "Age", Width: 8},
		{Title: "Data", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12"))
	t.SetStyles(styles)

	return monitorModel{
		connInfo: connInfo,
		filter:   filter,
		tracker:  newPGNTracker(),
		table:    t,
		width:    80,
		height:   24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.tracker = newPGNTracker()
			m.table.SetRows(nil)
			return m, nil
		case "enter":
			m.decoded = !m.decoded
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, msg.Height-12))

	case monitorTickMsg:
		m.table.SetRows(m.tracker.rows(time.Time(msg)))
		return m, monitorTickCmd()

	case monitorBatchMsg:
		for _, ev := range msg {
			m.apply(ev)
		}
		return m, nil

	case linkClosedMsg:
		m.linkClosed = true
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *monitorModel) apply(ev frameEvent) {
	if ev.frame != nil && m.filter(*ev.frame) {
		id := ev.frame.ID()
		// TP.CM and TP.DT are shown through the reassembled message
		if !isTransport(*ev.frame) {
			m.tracker.observe(id.PGN(), id.SourceAddress(), ev.frame.PDU(), ev.frame.Timestamp(), false)
		}
	}
	if msg := ev.message; msg != nil && messageFilter(m.filter, msg) {
		m.tracker.observe(msg.PGN, msg.Source, msg.Data, msg.Timestamp, true)
	}
}

func (m monitorModel) selected() *pgnStats {
	entries := m.tracker.sorted()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(entries) {
		return nil
	}
	return entries[idx]
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("J1939STAT MONITOR"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %d rows | enter=decode c=clear q=quit", m.connInfo, len(m.tracker.entries))))
	if m.linkClosed {
		s.WriteString(" ")
		s.WriteString(errorStyle.Render("LINK CLOSED"))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.table.View()))
	s.WriteString("\n")

	if sel := m.selected(); sel != nil && m.decoded {
		decoded := spn.FormatPayload(sel.key.pgn, sel.data)
		if decoded == "" {
			decoded = headerStyle.Render("no decoder for this PGN")
		}
		s.WriteString(fmt.Sprintf("%s %s from 0x%02X (%s)\n  %s\n",
			labelStyle.Render("Decoded:"), j1939.FormatPGN(sel.key.pgn), sel.key.source,
			spn.SourceAddressName(sel.key.source), decoded))
	}

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter(monitorPGNs, monitorSources)
	if err != nil {
		return err
	}

	link, events, connInfo, err := openWatchedLink(cmd.Context())
	if err != nil {
		return err
	}
	defer link.Close()

	p := tea.NewProgram(newMonitorModel(connInfo, filter), tea.WithAltScreen())

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		var batch monitorBatchMsg
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					if len(batch) > 0 {
						p.Send(batch)
					}
					p.Send(linkClosedMsg{})
					return
				}
				batch = append(batch, ev)
			case <-ticker.C:
				if len(batch) > 0 {
					p.Send(batch)
					batch = nil
				}
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
