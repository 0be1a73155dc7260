package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

// Renderer writes logbook entries to an output stream.
type Renderer interface {
	Render(entry model.Entry) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleNavigation  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	styleEngine      = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // orange
	styleRadio       = lipgloss.NewStyle().Foreground(lipgloss.Color("141")) // purple
	styleMaintenance = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleTime        = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleAuthor      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleEnd         = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// TextRenderer prints entries to the terminal with category-based colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

func (r *TextRenderer) Render(entry model.Entry) error {
	ts := styleTime.Render(entry.Datetime.UTC().Format("15:04"))
	tag := styleCategoryTag(entry.Category)

	text := entry.Text
	if entry.End {
		text = text + " " + styleEnd.Render("■")
	}

	line := fmt.Sprintf("%s %s %s", ts, tag, text)
	if details := entryDetails(entry); details != "" {
		line = line + "  " + styleAuthor.Render(details)
	}
	if entry.Author != "" {
		line = line + " " + styleAuthor.Render("— "+entry.Author)
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleCategoryTag(category string) string {
	padded := fmt.Sprintf("%-11s", category)
	switch category {
	case model.CategoryEngine:
		return styleEngine.Render(padded)
	case model.CategoryRadio:
		return styleRadio.Render(padded)
	case model.CategoryMaintenance:
		return styleMaintenance.Render(padded)
	default:
		return styleNavigation.Render(padded)
	}
}

// entryDetails summarizes the structured fields worth a glance on one
// line: position, speed, course, distance run.
func entryDetails(entry model.Entry) string {
	parts := []string{}
	if entry.Position != nil {
		parts = append(parts, fmt.Sprintf("%.4f,%.4f", entry.Position.Latitude, entry.Position.Longitude))
	}
	if entry.Speed != nil && entry.Speed.SOG != nil {
		parts = append(parts, fmt.Sprintf("%.1fkt", *entry.Speed.SOG))
	}
	if entry.Course != nil {
		parts = append(parts, fmt.Sprintf("%03d°", *entry.Course))
	} else if entry.Heading != nil {
		parts = append(parts, fmt.Sprintf("%03d°", *entry.Heading))
	}
	if entry.Log != nil {
		parts = append(parts, fmt.Sprintf("%.1fNM", *entry.Log))
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each entry as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to stdout.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(os.Stdout)}
}

func (r *JSONRenderer) Render(entry model.Entry) error {
	return r.enc.Encode(entry)
}
