package output

import "github.com/charmbracelet/lipgloss"

// Color palette, 256-color codes.
const (
	colorCyan     = "81"  // paths and headers
	colorGray     = "245" // timestamps, secondary text
	colorDarkGray = "238" // separators, tag-only rank
	colorGreen    = "114" // success, matched terms
	colorYellow   = "220" // warnings
	colorRed      = "196" // errors
)

// Styles holds the render styles for CLI output.
type Styles struct {
	Header  lipgloss.Style
	Path    lipgloss.Style
	Rank    lipgloss.Style
	Meta    lipgloss.Style
	Match   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns the colored styles for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyan)),
		Rank:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Match:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorGreen)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain or piped output.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Path:    lipgloss.NewStyle(),
		Rank:    lipgloss.NewStyle(),
		Meta:    lipgloss.NewStyle(),
		Match:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}
}
