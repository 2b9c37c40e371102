package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/bunrui/internal/models"
)

var sampleScores = map[string]float64{"mathematics": 0.1, "physics": 0.7, "theology": 0.2}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteScores_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScores(&buf, "quarks", sampleScores, 2, OutputJSON); err != nil {
		t.Fatalf("WriteScores(json): %v", err)
	}
	var decoded struct {
		Text   string              `json:"text"`
		Scores []models.LabelScore `json:"scores"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Text != "quarks" || len(decoded.Scores) != 2 {
		t.Fatalf("decoded: %+v", decoded)
	}
	if decoded.Scores[0].Label != "physics" || decoded.Scores[1].Label != "theology" {
		t.Errorf("order: %+v", decoded.Scores)
	}
}

func TestWriteScores_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScores(&buf, "quarks", sampleScores, 0, OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"physics\t0.700000", "theology\t0.200000", "mathematics\t0.100000"}
	if len(lines) != len(want) {
		t.Fatalf("lines: %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteScores_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScores(&buf, "quarks", sampleScores, 0, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "quarks") {
		t.Errorf("text output should contain the input text: %s", out)
	}
	if strings.Index(out, "physics") > strings.Index(out, "mathematics") {
		t.Errorf("physics should be listed before mathematics:\n%s", out)
	}
	if !strings.Contains(out, " 1. physics") {
		t.Errorf("expected ranked first line, got:\n%s", out)
	}
}

func TestWriteModels(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModels(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No models") {
		t.Errorf("empty list: %q", buf.String())
	}

	recs := []*models.ModelRecord{{
		Name: "subjects", Kind: "dense", Prefix: "/m/subjects", Labels: []string{"a", "b"},
		AlternateIngestion: true, CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}}
	buf.Reset()
	if err := WriteModels(&buf, recs, OutputText); err != nil {
		t.Fatal(err)
	}
	want := "subjects\tdense\tsequences\t2 labels\t2026-01-02 03:04\t/m/subjects\n"
	if buf.String() != want {
		t.Errorf("text = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteModels(&buf, recs, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []models.ModelRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 1 {
		t.Errorf("json: %v %s", err, buf.String())
	}
}
