// package formatter renders track lists as JSON, CSV, Markdown, plain text or a terminal table
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

// Format names an output format accepted by [Export].
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatTable    Format = "table"
)

// Formats lists the accepted formats for flag help.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat validates a format flag value. "md" and "text" are accepted as aliases.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, v)
	}
}

// Export renders tracks in format f. The title heads the Markdown and text outputs.
func Export(f Format, title string, tracks []models.Track) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(tracks)
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatMarkdown:
		return ExportToMarkdown(title, tracks)
	case FormatText:
		return ExportToText(title, tracks)
	case FormatTable:
		return []byte(ExportToTable(tracks) + "\n"), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToJSON renders tracks as an indented JSON array
func ExportToJSON(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders tracks with columns: ID, Source, Title, Artist, Genre, Preview, Link
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Source", "Title", "Artist", "Genre", "Preview", "Link"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			string(track.Source),
			track.Title,
			track.Artist,
			track.Genre,
			track.PreviewURL,
			track.ExternalLink,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders tracks as a numbered Markdown list with preview and page links
func ExportToMarkdown(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, displayArtist(track), track.Title)
		if track.Genre != "" {
			line += fmt.Sprintf(" (%s)", track.Genre)
		}
		line += fmt.Sprintf(" _%s_", track.Source.Label())
		if track.PreviewURL != "" {
			line += fmt.Sprintf(" [preview](%s)", track.PreviewURL)
		}
		if track.ExternalLink != "" {
			line += fmt.Sprintf(" [open](%s)", track.ExternalLink)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders tracks as plain numbered lines
func ExportToText(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("%s\n", title))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		marker := " "
		if !track.Playable() {
			marker = "↗"
		}
		buf.WriteString(fmt.Sprintf("%d.%s %s - %s [%s]\n", i+1, marker, displayArtist(track), track.Title, track.Source))
	}

	return buf.Bytes(), nil
}

// ExportToTable renders tracks as a bordered terminal table
func ExportToTable(tracks []models.Track) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "TITLE", "ARTIST", "SOURCE", "PLAYABLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for i, track := range tracks {
		playable := "yes"
		if !track.Playable() {
			playable = "link"
		}
		t.Row(fmt.Sprintf("%d", i+1), truncate(track.Title, 40), truncate(displayArtist(track), 30), track.Source.Label(), playable)
	}
	return t.String()
}

// WriteExport renders tracks and writes them to path.
func WriteExport(path string, f Format, title string, tracks []models.Track) error {
	if path == "" {
		return fmt.Errorf("%w: empty export path", shared.ErrMissingArgument)
	}

	data, err := Export(f, title, tracks)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func displayArtist(t models.Track) string {
	if t.Artist == "" {
		return "Unknown artist"
	}
	return t.Artist
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
