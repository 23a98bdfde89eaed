// Package ui renders search results into a fixed textual report.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/diogo/pplx-search-go/pkg/models"
)

// snippetMaxRunes bounds how much of a source snippet the report shows.
const snippetMaxRunes = 160

// Renderer handles terminal output formatting.
type Renderer struct {
	out       io.Writer
	mdRender  *glamour.TermRenderer
	width     int
	useColors bool
	now       func() time.Time
}

// Styles for different output elements.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	CitationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// NewRenderer creates a new output renderer writing to stdout.
func NewRenderer() (*Renderer, error) {
	return NewRendererWithOptions(os.Stdout, 80, true)
}

// NewRendererWithOptions creates a renderer with custom options.
func NewRendererWithOptions(out io.Writer, width int, useColors bool) (*Renderer, error) {
	style := "dark"
	if !useColors {
		style = "notty"
	}

	mdRender, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithStylePath(style),
	)
	if err != nil {
		mdRender, _ = glamour.NewTermRenderer(
			glamour.WithWordWrap(width),
		)
	}

	return &Renderer{
		out:       out,
		mdRender:  mdRender,
		width:     width,
		useColors: useColors,
		now:       time.Now,
	}, nil
}

// RenderReport renders the fixed Answer / Sources / Meta report for one
// search result.
func (r *Renderer) RenderReport(res *models.SearchResult) error {
	r.RenderTitle("Answer")
	if err := r.RenderMarkdown(res.Answer); err != nil {
		return err
	}

	if len(res.Sources) > 0 {
		fmt.Fprintln(r.out)
		r.RenderTitle("Sources")
		r.RenderSources(res.Sources)
	}

	meta := r.metaLines(res)
	if len(meta) > 0 {
		fmt.Fprintln(r.out)
		r.RenderTitle("Meta")
		for _, line := range meta {
			fmt.Fprintln(r.out, DimStyle.Render(line))
		}
	}
	return nil
}

// RenderSources renders the numbered source list with humanized ages and
// truncated snippets.
func (r *Renderer) RenderSources(sources []models.Source) {
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}

		num := fmt.Sprintf("[%d]", i+1)
		fmt.Fprintf(r.out, "%s %s\n", DimStyle.Render(num), CitationStyle.Render(title))
		if src.URL != "" && src.URL != title {
			fmt.Fprintf(r.out, "    %s\n", DimStyle.Render(src.URL))
		}

		detail := humanizeAge(src.PublishedAt, r.now())
		if snippet := truncateSnippet(src.Snippet, snippetMaxRunes); snippet != "" {
			if detail != "" {
				detail += " · " + snippet
			} else {
				detail = snippet
			}
		}
		if detail != "" {
			fmt.Fprintf(r.out, "    %s\n", DimStyle.Render(detail))
		}
	}
}

func (r *Renderer) metaLines(res *models.SearchResult) []string {
	var lines []string
	if res.DisplayModel != "" {
		lines = append(lines, "Model: "+res.DisplayModel)
	}
	if res.BackendUUID != "" {
		lines = append(lines, "Request: "+res.BackendUUID)
	}
	return lines
}

// RenderMarkdown renders markdown content, falling back to raw text when
// the terminal renderer cannot handle it.
func (r *Renderer) RenderMarkdown(content string) error {
	if r.mdRender == nil {
		fmt.Fprintln(r.out, content)
		return nil
	}

	rendered, err := r.mdRender.Render(content)
	if err != nil {
		fmt.Fprintln(r.out, content)
		return nil
	}

	fmt.Fprint(r.out, rendered)
	return nil
}

// RenderError renders an error message.
func (r *Renderer) RenderError(err error) {
	if r.useColors {
		fmt.Fprintln(r.out, ErrorStyle.Render("Error: "+err.Error()))
	} else {
		fmt.Fprintln(r.out, "Error: "+err.Error())
	}
}

// RenderSuccess renders a success message.
func (r *Renderer) RenderSuccess(msg string) {
	if r.useColors {
		fmt.Fprintln(r.out, SuccessStyle.Render(msg))
	} else {
		fmt.Fprintln(r.out, msg)
	}
}

// RenderWarning renders a warning message.
func (r *Renderer) RenderWarning(msg string) {
	if r.useColors {
		fmt.Fprintln(r.out, WarningStyle.Render("Warning: "+msg))
	} else {
		fmt.Fprintln(r.out, "Warning: "+msg)
	}
}

// RenderInfo renders an info message.
func (r *Renderer) RenderInfo(msg string) {
	if r.useColors {
		fmt.Fprintln(r.out, InfoStyle.Render(msg))
	} else {
		fmt.Fprintln(r.out, msg)
	}
}

// RenderTitle renders a section title.
func (r *Renderer) RenderTitle(title string) {
	if r.useColors {
		fmt.Fprintln(r.out, TitleStyle.Render(title))
	} else {
		fmt.Fprintln(r.out, strings.ToUpper(title))
		fmt.Fprintln(r.out, strings.Repeat("=", len(title)))
	}
}

// NewLine prints a newline.
func (r *Renderer) NewLine() {
	fmt.Fprintln(r.out)
}

// truncateSnippet trims a snippet to at most max runes, appending an
// ellipsis when cut.
func truncateSnippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), " ") + "…"
}

// humanizeAge renders a publication timestamp as a rough age ("3 days
// ago"). Unparseable timestamps yield the empty string; the upstream emits
// several formats and sometimes none at all.
func humanizeAge(raw string, now time.Time) string {
	t, ok := parseTimestamp(raw)
	if !ok {
		return ""
	}

	age := now.Sub(t)
	switch {
	case age < 0:
		return ""
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute") + " ago"
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour") + " ago"
	case age < 30*24*time.Hour:
		return plural(int(age.Hours()/24), "day") + " ago"
	case age < 365*24*time.Hour:
		return plural(int(age.Hours()/(24*30)), "month") + " ago"
	default:
		return plural(int(age.Hours()/(24*365)), "year") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// parseTimestamp tries the timestamp formats observed in the feed: RFC3339,
// date-only, datetime, and unix seconds.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}
