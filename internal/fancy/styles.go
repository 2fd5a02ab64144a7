package fancy

import "github.com/charmbracelet/lipgloss"

var (
	RootStyle    = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	HeaderStyle  = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	BranchStyle  = lipgloss.NewStyle().Foreground(ColorDarkGray)
	ServerStyle  = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	CommandStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	URLStyle     = lipgloss.NewStyle().Foreground(ColorOrange)
	KeyStyle     = lipgloss.NewStyle().Foreground(ColorMagenta)
	ValidStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
)

// ServerText styles an MCP server name.
func ServerText(text string) string { return ServerStyle.Render(text) }

// CommandText styles a stdio command line.
func CommandText(text string) string { return CommandStyle.Render(text) }

// URLText styles a remote server URL.
func URLText(text string) string { return URLStyle.Render(text) }

// KeyText styles an env or header key.
func KeyText(text string) string { return KeyStyle.Render(text) }

func ValidText(text string) string { return ValidStyle.Render(text) }

func ErrorText(text string) string { return ErrorStyle.Render(text) }

func PathText(text string) string { return InfoStyle.Render(text) }
