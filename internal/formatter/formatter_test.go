package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{
			ID:           "itunes::1",
			Title:        "Song One",
			Artist:       "Artist One",
			Genre:        "Pop",
			PreviewURL:   "https://audio.example/1.m4a",
			ExternalLink: "https://music.example/1",
			Source:       models.SourceITunes,
		},
		{
			ID:           "jiosaavn::2",
			Title:        "Song, Two",
			ExternalLink: "https://saavn.example/2",
			Source:       models.SourceJioSaavn,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{"txt", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleTracks())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(decoded))
		}
		if decoded[0]["source"] != "itunes" {
			t.Errorf("expected source itunes, got %v", decoded[0]["source"])
		}
		if _, ok := decoded[1]["preview_url"]; ok {
			t.Error("expected empty preview to be omitted")
		}
	})

	t.Run("ExportToJSON Empty", func(t *testing.T) {
		data, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Source,Title,Artist,Genre,Preview,Link" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[2][2] != "Song, Two" {
			t.Errorf("expected quoted title to survive, got %q", records[2][2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Vibe: song", sampleTracks())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Vibe: song",
			"**Tracks**: 2",
			"1. Artist One - Song One (Pop) _iTunes_ [preview](https://audio.example/1.m4a) [open](https://music.example/1)",
			"2. Unknown artist - Song, Two _JioSaavn_ [open](https://saavn.example/2)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("Vibe: song", sampleTracks())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("text missing track count")
		}
		if !strings.Contains(output, "1.  Artist One - Song One [itunes]") {
			t.Errorf("text missing first track, got:\n%s", output)
		}
		if !strings.Contains(output, "2.↗ Unknown artist - Song, Two [jiosaavn]") {
			t.Errorf("text missing link marker, got:\n%s", output)
		}
	})

	t.Run("ExportToTable", func(t *testing.T) {
		output := ExportToTable(sampleTracks())

		for _, want := range []string{"TITLE", "Song One", "iTunes", "link"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Export Dispatch", func(t *testing.T) {
		for _, f := range Formats {
			data, err := Export(f, "title", sampleTracks())
			if err != nil {
				t.Errorf("%s: unexpected error %v", f, err)
			}
			if len(data) == 0 {
				t.Errorf("%s: expected output", f)
			}
		}

		if _, err := Export(Format("xml"), "", nil); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.csv")

		if err := WriteExport(path, FormatCSV, "", sampleTracks()); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.HasPrefix(string(data), "ID,Source") {
			t.Errorf("unexpected file contents %s", data)
		}
	})

	t.Run("Empty Path", func(t *testing.T) {
		if err := WriteExport("", FormatCSV, "", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "tracks.csv")
		if err := WriteExport(path, FormatCSV, "", nil); err == nil {
			t.Error("expected write error")
		}
	})
}
