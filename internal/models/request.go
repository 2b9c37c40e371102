package models

import (
	"fmt"
	"strings"
)

// MaxTextLength bounds the text accepted by the scoring API.
const MaxTextLength = 10000

// ScoreRequest is the body of score and classify requests.
type ScoreRequest struct {
	Text string `json:"text"`
	// Top limits the number of scores returned, highest first. Zero returns all labels.
	Top int `json:"top,omitempty"`
}

// Validate trims the text and rejects empty or oversized requests.
func (r *ScoreRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if len(r.Text) > MaxTextLength {
		return fmt.Errorf("text exceeds %d bytes", MaxTextLength)
	}
	if r.Top < 0 {
		r.Top = 0
	}
	return nil
}

// ScoreResponse maps every label to its score.
type ScoreResponse struct {
	Scores map[string]float64 `json:"scores"`
	// Ranked lists the same scores highest first, truncated to the requested top.
	Ranked      []LabelScore `json:"ranked"`
	QueryTimeMs int64        `json:"query_time_ms"`
}

// LabelScore is one ranked score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifyResponse is the best label for a text.
type ClassifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LabelsResponse lists the labels of the loaded model in index order.
type LabelsResponse struct {
	Labels []string `json:"labels"`
	Model  string   `json:"model,omitempty"`
}
