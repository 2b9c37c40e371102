package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/encoder"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/storage"
)

// fixedModel predicts the same row for every input.
type fixedModel struct {
	row []float32
	err error
}

func (m *fixedModel) Kind() string { return "fixed" }
func (m *fixedModel) Fit(context.Context, *tensor.Dense, *tensor.Dense, int) error {
	return nil
}
func (m *fixedModel) Predict(context.Context, *tensor.Dense) (*tensor.Dense, error) {
	if m.err != nil {
		return nil, m.err
	}
	return tensor.New(tensor.WithShape(1, len(m.row)), tensor.WithBacking(append([]float32(nil), m.row...))), nil
}
func (m *fixedModel) Save(string) error { return nil }

func trainedModel(t *testing.T, labels []string, row []float32, predictErr error) *classifier.TrainedModel {
	t.Helper()
	emb, err := embedding.NewMemoryEmbedding(2)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := encoder.New(encoder.Config{VectorSize: 2, MaxLength: 3}, emb)
	if err != nil {
		t.Fatal(err)
	}
	tm, err := classifier.Restore(labels, &fixedModel{row: row, err: predictErr}, enc, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return NewServer(&config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop(), opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleScore(t *testing.T) {
	tm := trainedModel(t, []string{"mathematics", "physics", "theology"}, []float32{0.2, 0.7, 0.1}, nil)
	srv := newTestServer(t, WithModel("subjects", tm))
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/api/v1/score", `{"text": "quantum field", "top": 2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out models.ScoreResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Scores) != 3 {
		t.Errorf("scores: got %v", out.Scores)
	}
	if len(out.Ranked) != 2 || out.Ranked[0].Label != "physics" || out.Ranked[1].Label != "mathematics" {
		t.Errorf("ranked: got %+v", out.Ranked)
	}
}

func TestHandleClassify(t *testing.T) {
	tm := trainedModel(t, []string{"mathematics", "physics"}, []float32{0.9, 0.1}, nil)
	h := newTestServer(t, WithModel("subjects", tm)).Handler()
	w := do(t, h, http.MethodPost, "/api/v1/classify", `{"text": "linear algebra"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.ClassifyResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Label != "mathematics" {
		t.Errorf("label: got %q", out.Label)
	}
}

func TestHandleScore_errors(t *testing.T) {
	tests := []struct {
		name       string
		srv        *Server
		path       string
		body       string
		wantStatus int
	}{
		{"no model score", newTestServer(t), "/api/v1/score", `{"text":"x"}`, http.StatusServiceUnavailable},
		{"no model classify", newTestServer(t), "/api/v1/classify", `{"text":"x"}`, http.StatusServiceUnavailable},
		{"invalid body", newTestServer(t, WithModel("m", trainedModel(t, []string{"a"}, []float32{1}, nil))),
			"/api/v1/score", `{`, http.StatusBadRequest},
		{"empty text", newTestServer(t, WithModel("m", trainedModel(t, []string{"a"}, []float32{1}, nil))),
			"/api/v1/score", `{"text":"  "}`, http.StatusBadRequest},
		{"model failure", newTestServer(t, WithModel("m", trainedModel(t, []string{"a"}, nil, errors.New("boom")))),
			"/api/v1/classify", `{"text":"x"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, tt.srv.Handler(), http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleLabels(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	if w := do(t, h, http.MethodGet, "/api/v1/labels", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("without model: got %d", w.Code)
	}
	srv.SetModel("subjects", trainedModel(t, []string{"b", "a"}, []float32{0.5, 0.5}, nil))
	w := do(t, h, http.MethodGet, "/api/v1/labels", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.LabelsResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Labels) != 2 || out.Labels[0] != "b" || out.Model != "subjects" {
		t.Errorf("labels: got %+v", out)
	}
}

func TestReload(t *testing.T) {
	calls := 0
	next := trainedModel(t, []string{"new"}, []float32{1}, nil)
	srv := newTestServer(t,
		WithModel("m", trainedModel(t, []string{"old"}, []float32{1}, nil)),
		WithLoader(func(prefix string) (*classifier.TrainedModel, error) {
			calls++
			if prefix == "broken" {
				return nil, errors.New("half written")
			}
			return next, nil
		}))

	srv.Reload("broken")
	if got := srv.model.Labels(); got[0] != "old" {
		t.Errorf("failed reload should keep the old model, got %v", got)
	}
	srv.Reload("good")
	if got := srv.model.Labels(); got[0] != "new" {
		t.Errorf("reload should swap the model, got %v", got)
	}
	if calls != 2 {
		t.Errorf("loader calls: got %d", calls)
	}
}

func TestHandleModels(t *testing.T) {
	if w := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/v1/models", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("without registry: got %d", w.Code)
	}

	reg, err := storage.NewSQLiteRegistry(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	if _, err := reg.Register(context.Background(), &models.ModelInput{
		Name: "subjects", Prefix: "/m/subjects", Kind: "dense", Labels: []string{"a"}, MaxLength: 15,
	}); err != nil {
		t.Fatal(err)
	}
	w := do(t, newTestServer(t, WithRegistry(reg)).Handler(), http.MethodGet, "/api/v1/models?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Models []models.ModelRecord `json:"models"`
		Total  int64                `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || len(out.Models) != 1 || out.Models[0].Name != "subjects" {
		t.Errorf("models: got %+v", out)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, WithModel("m", trainedModel(t, []string{"a", "b"}, []float32{0.4, 0.6}, nil)))
	h := srv.Handler()
	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"model_loaded":true`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
	do(t, h, http.MethodPost, "/api/v1/classify", `{"text":"x"}`)

	w = do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`bunrui_predictions_total{label="b"} 1`,
		`bunrui_model_labels 2`,
		`bunrui_http_requests_total{method="POST",path="/api/v1/classify",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
