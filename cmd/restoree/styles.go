package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

var (
	styleError   = color.New(color.FgRed).SprintFunc()
	styleSuccess = color.New(color.FgGreen).SprintFunc()
	styleMuted   = color.New(color.FgHiBlack).SprintFunc()

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleImprove = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleRegress = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleBase    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
