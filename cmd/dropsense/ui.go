package main

import (
	"dropsense/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B5ECD"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	fileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	dirStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	appStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// renderResult formats one classification for a terminal
func renderResult(r types.ClassificationResult) string {
	desc := r.Description
	switch r.Kind {
	case types.KindFile:
		desc = fileStyle.Render(desc)
	case types.KindFolder:
		desc = dirStyle.Render(desc)
	case types.KindApplication:
		desc = appStyle.Render(desc)
	default:
		desc = errStyle.Render(desc)
	}

	name := r.FileName
	if name == "" {
		name = r.FilePath
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		nameStyle.Render(name)+"  "+desc,
		pathStyle.Render("  "+r.FilePath),
	)
}
