// Package main implements the relay-dash interactive dashboard.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	src, err := newDataSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	p := tea.NewProgram(newModel(src), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
