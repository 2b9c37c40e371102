// Package cli provides CLI output utilities for bunrui.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// OutputFormat is the format for score output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one "label<TAB>score" line per label, highest first.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, compact, json)", s)
	}
}

// WriteScores writes the scores of text to w in the given format, highest score first.
// top limits the number of labels; zero writes all.
func WriteScores(w io.Writer, text string, scores map[string]float64, top int, format OutputFormat) error {
	ranked := classifier.SortScores(scores)
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	switch format {
	case OutputJSON:
		out := struct {
			Text   string              `json:"text"`
			Scores []models.LabelScore `json:"scores"`
		}{Text: text, Scores: make([]models.LabelScore, len(ranked))}
		for i, ls := range ranked {
			out.Scores[i] = models.LabelScore{Label: ls.Label, Score: ls.Score}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case OutputCompact:
		for _, ls := range ranked {
			if _, err := fmt.Fprintf(w, "%s\t%.6f\n", ls.Label, ls.Score); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeScoresText(w, text, ranked)
	}
}

func writeScoresText(w io.Writer, text string, ranked []classifier.LabelScore) error {
	width := 0
	for _, ls := range ranked {
		if n := len([]rune(ls.Label)); n > width {
			width = n
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(text, 200)); err != nil {
		return err
	}
	for i, ls := range ranked {
		if _, err := fmt.Fprintf(w, "%2d. %-*s %.4f\n", i+1, width, ls.Label, ls.Score); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteModels writes registry records to w.
func WriteModels(w io.Writer, recs []*models.ModelRecord, format OutputFormat) error {
	if format == OutputJSON {
		if recs == nil {
			recs = []*models.ModelRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No models registered.")
		return err
	}
	for _, r := range recs {
		mode := "vectors"
		if r.AlternateIngestion {
			mode = "sequences"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d labels\t%s\t%s\n",
			r.Name, r.Kind, mode, len(r.Labels), r.CreatedAt.Format("2006-01-02 15:04"), r.Prefix); err != nil {
			return err
		}
	}
	return nil
}
