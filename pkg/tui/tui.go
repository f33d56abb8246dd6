// Package tui provides a terminal user interface for musx2mxl
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/musx2mxl/pkg/converter"
	"github.com/james-see/musx2mxl/pkg/converter/score"
)

// Engraving-inspired color scheme: ink on manuscript paper
var (
	inkBlue   = lipgloss.Color("#2B4C7E")
	paperTone = lipgloss.Color("#F5EBD7")
	quillGold = lipgloss.Color("#C9A227")
	staffGray = lipgloss.Color("#8A8A8A")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(paperTone).
			Background(inkBlue).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(staffGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(quillGold).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(quillGold).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B22222")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(quillGold).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(staffGray).
			PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(inkBlue).
			Padding(1, 2)
)

// maxShownWarnings bounds the warnings listed on the result screen
const maxShownWarnings = 5

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	FromFormat  converter.Format
	ToFormat    converter.Format
}

var menuItems = []MenuItem{
	{Title: "MUSX → MXL", Description: "Convert a Finale score to compressed MusicXML", FromFormat: converter.FormatMusx, ToFormat: converter.FormatMXL},
	{Title: "MUSX → MusicXML", Description: "Convert a Finale score to uncompressed MusicXML", FromFormat: converter.FormatMusx, ToFormat: converter.FormatMusicXML},
	{Title: "MUSX → MIDI", Description: "Render a Finale score as a MIDI file", FromFormat: converter.FormatMusx, ToFormat: converter.FormatMIDI},
	{Title: "EnigmaXML → MXL", Description: "Convert an extracted EnigmaXML score to compressed MusicXML", FromFormat: converter.FormatEnigma, ToFormat: converter.FormatMXL},
	{Title: "MXL → MIDI", Description: "Render compressed MusicXML as a MIDI file", FromFormat: converter.FormatMXL, ToFormat: converter.FormatMIDI},
	{Title: "Exit", Description: "Exit the application"},
}

// allowedTypes lists the file picker extensions of an input format
func allowedTypes(f converter.Format) []string {
	switch f {
	case converter.FormatMusicXML:
		return []string{".musicxml", ".xml"}
	default:
		return []string{f.Extension()}
	}
}

// Model represents the TUI model
type Model struct {
	conv         *converter.Converter
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	warnings     []score.Warning
	conversion   MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	warnings   []score.Warning
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model converting with conv
func New(conv *converter.Converter) Model {
	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = []string{".musx", ".enigmaxml", ".mxl"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(quillGold)

	return Model{
		conv:       conv,
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.warnings = msg.warnings
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = allowedTypes(m.conversion.FromFormat)
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.warnings = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// outputPath places the output next to the input
func outputPath(input string, to converter.Format) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + to.Extension()
}

func (m Model) performConversion() tea.Cmd {
	conv, input, to := m.conv, m.selectedFile, m.conversion.ToFormat
	return func() tea.Msg {
		outputFile := outputPath(input, to)
		res, err := conv.ConvertFile(input, outputFile)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{outputFile: outputFile, warnings: res.Warnings}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT CONVERSION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(quillGold).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(string(m.conversion.FromFormat)))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.FromFormat, m.conversion.ToFormat)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
		if len(m.warnings) > 0 {
			s.WriteString(statusStyle.Render(fmt.Sprintf("%d warning(s):", len(m.warnings))))
			for i, w := range m.warnings {
				if i == maxShownWarnings {
					s.WriteString("\n" + warningStyle.Render(fmt.Sprintf("… and %d more", len(m.warnings)-i)))
					break
				}
				s.WriteString("\n" + warningStyle.Render(w.String()))
			}
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
                          ___                 _
   _ __ ___  _   _ _____ |__ \ _ __ ___ __  _| |
  | '_ ` + "`" + ` _ \| | | / __\ \/ // /| '_ ` + "`" + ` _ \\ \/ / |
  | | | | | | |_| \__ \>  </ /_| | | | | |>  <| |
  |_| |_| |_|\__,_|___/_/\_\____|_| |_| |_/_/\_\_|
`
	return lipgloss.NewStyle().Foreground(inkBlue).Render(logo)
}

// Run starts the TUI application
func Run(conv *converter.Converter) error {
	p := tea.NewProgram(New(conv), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
