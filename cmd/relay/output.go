package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"relay/pkg/session"
)

// Output formats understood by -o.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// addOutputFlag registers the shared -o/--output flag.
func addOutputFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", formatTable, "output format: table, json, or yaml")
}

// styled applies s to text only when w is a terminal.
func styled(w io.Writer, s lipgloss.Style, text string) string {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return s.Render(text)
	}
	return text
}

// renderSessions writes the session list in the requested format.
func renderSessions(w io.Writer, format string, sessions []session.Session) error {
	switch format {
	case formatJSON:
		return renderJSON(w, sessions)
	case formatYAML:
		return renderYAML(w, sessions)
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, styled(w, headerStyle, "NAME\tSTATUS\tCREATED"))
		for _, s := range sessions {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Status, s.CreatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderSession writes one session's details in the requested format.
func renderSession(w io.Writer, format string, s session.Session) error {
	switch format {
	case formatJSON:
		return renderJSON(w, s)
	case formatYAML:
		return renderYAML(w, s)
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\n", styled(w, headerStyle, "Name:"), s.Name)
		fmt.Fprintf(tw, "%s\t%s\n", styled(w, headerStyle, "Status:"), s.Status)
		fmt.Fprintf(tw, "%s\t%s\n", styled(w, headerStyle, "Created:"), s.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(tw, "%s\t%s\n", styled(w, headerStyle, "Log:"), s.LogPath)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
