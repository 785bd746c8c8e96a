package output

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used in text mode.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Table     lipgloss.Style
	CTE       lipgloss.Style
	Result    lipgloss.Style
	Column    lipgloss.Style
	Edge      lipgloss.Style
	Condition lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles builds styles for re. Without a terminal every style renders
// plain text.
func NewStyles(re *lipgloss.Renderer, isTTY bool) *Styles {
	s := func() lipgloss.Style { return re.NewStyle() }
	if !isTTY {
		return &Styles{
			Header1: s(), Header2: s(), Table: s(), CTE: s(), Result: s(), Column: s(),
			Edge: s(), Condition: s(), Success: s(), Warning: s(), Error: s(), Muted: s(),
		}
	}
	return &Styles{
		Header1:   s().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		Header2:   s().Bold(true).Foreground(lipgloss.Color("75")),
		Table:     s().Bold(true).Foreground(lipgloss.Color("33")),
		CTE:       s().Bold(true).Foreground(lipgloss.Color("35")),
		Result:    s().Bold(true).Foreground(lipgloss.Color("214")),
		Column:    s().Foreground(lipgloss.Color("252")),
		Edge:      s().Foreground(lipgloss.Color("245")),
		Condition: s().Italic(true).Foreground(lipgloss.Color("141")),
		Success:   s().Foreground(lipgloss.Color("42")),
		Warning:   s().Foreground(lipgloss.Color("214")),
		Error:     s().Bold(true).Foreground(lipgloss.Color("196")),
		Muted:     s().Foreground(lipgloss.Color("241")),
	}
}
