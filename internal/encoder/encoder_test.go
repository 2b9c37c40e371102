package encoder

import (
	"errors"
	"reflect"
	"testing"

	"gorgonia.org/tensor"

	"github.com/hyperjump/bunrui/internal/corpus"
	"github.com/hyperjump/bunrui/internal/embedding"
	"github.com/hyperjump/bunrui/internal/tokenize"
)

func algebraEmbedding(t *testing.T) *embedding.MemoryEmbedding {
	t.Helper()
	m, err := embedding.NewMemoryEmbedding(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Set("algebra", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	return m
}

func data(t *testing.T, d *tensor.Dense) []float32 {
	t.Helper()
	v, ok := d.Data().([]float32)
	if !ok {
		t.Fatalf("tensor data is %T, want []float32", d.Data())
	}
	return v
}

func mathBioCorpus() *corpus.Corpus {
	c := corpus.New()
	c.Add("math", "algebra help")
	c.Add("bio", "cell wall")
	return c
}

func TestNew_validation(t *testing.T) {
	emb := algebraEmbedding(t)
	tests := []struct {
		name string
		cfg  Config
		emb  embedding.WordEmbedding
	}{
		{"zero max length", Config{VectorSize: 2, MaxLength: 0}, emb},
		{"zero vector size", Config{VectorSize: 0, MaxLength: 3}, emb},
		{"nil embedding", Config{VectorSize: 2, MaxLength: 3}, nil},
		{"dimension mismatch", Config{VectorSize: 3, MaxLength: 3}, emb},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.emb); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
	if _, err := New(Config{MaxLength: 3, AlternateIngestion: true}, nil); err != nil {
		t.Errorf("alternate mode without embedding: %v", err)
	}
}

func TestBuildTrainingTensors_example(t *testing.T) {
	enc, err := New(Config{VectorSize: 2, MaxLength: 3}, algebraEmbedding(t))
	if err != nil {
		t.Fatal(err)
	}
	ts, err := enc.BuildTrainingTensors(mathBioCorpus())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ts.Labels, []string{"math", "bio"}) {
		t.Errorf("Labels = %v", ts.Labels)
	}
	if !ts.Inputs.Shape().Eq(tensor.Shape{2, 3, 2}) {
		t.Errorf("input shape = %v", ts.Inputs.Shape())
	}
	in := data(t, ts.Inputs)
	want0 := []float32{1, 0, 0, 0, 0, 0}
	if !reflect.DeepEqual(in[:6], want0) {
		t.Errorf("example 0 matrix = %v, want %v", in[:6], want0)
	}
	for _, v := range in[6:] {
		if v != 0 {
			t.Fatalf("example 1 has no known tokens and should be all zero: %v", in[6:])
		}
	}
	if !ts.Targets.Shape().Eq(tensor.Shape{2, 2}) {
		t.Errorf("target shape = %v", ts.Targets.Shape())
	}
	if got := data(t, ts.Targets); !reflect.DeepEqual(got, []float32{1, 0, 0, 1}) {
		t.Errorf("targets = %v, want [1 0 0 1]", got)
	}
	if ts.Vocabulary != nil {
		t.Error("default mode should not fit a vocabulary")
	}
}

func TestBuildTrainingTensors_oneHotRows(t *testing.T) {
	c := corpus.SubjectKeywords()
	enc, err := New(Config{VectorSize: 4, MaxLength: 5}, embedding.NewHashEmbedding(4))
	if err != nil {
		t.Fatal(err)
	}
	ts, err := enc.BuildTrainingTensors(c)
	if err != nil {
		t.Fatal(err)
	}
	n, k := c.NumExamples(), c.Len()
	targets := data(t, ts.Targets)
	row := 0
	for labelIdx, label := range c.Labels() {
		for range c.Entries(label) {
			ones := 0
			for j := 0; j < k; j++ {
				switch targets[row*k+j] {
				case 1:
					ones++
					if j != labelIdx {
						t.Errorf("row %d: 1 at column %d, want %d", row, j, labelIdx)
					}
				case 0:
				default:
					t.Errorf("row %d: unexpected value %v", row, targets[row*k+j])
				}
			}
			if ones != 1 {
				t.Errorf("row %d has %d ones", row, ones)
			}
			row++
		}
	}
	if row != n {
		t.Errorf("visited %d rows, want %d", row, n)
	}
}

func TestEncodeText_paddingAndTruncation(t *testing.T) {
	m, _ := embedding.NewMemoryEmbedding(2)
	_ = m.Set("a", []float32{1, 1})
	_ = m.Set("b", []float32{2, 2})
	_ = m.Set("c", []float32{3, 3})
	enc, err := New(Config{VectorSize: 2, MaxLength: 2}, m, WithTokenizer(tokenize.WhitespaceTokenizer{}))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		text string
		want []float32
	}{
		{"empty", "", []float32{0, 0, 0, 0}},
		{"shorter than max", "a", []float32{1, 1, 0, 0}},
		{"miss is zero row", "zzz b", []float32{0, 0, 2, 2}},
		{"longer truncated", "a b c", []float32{1, 1, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enc.EncodeText(tt.text)
			if !got.Shape().Eq(tensor.Shape{2, 2}) {
				t.Fatalf("shape = %v", got.Shape())
			}
			if d := data(t, got); !reflect.DeepEqual(d, tt.want) {
				t.Errorf("EncodeText(%q) = %v, want %v", tt.text, d, tt.want)
			}
		})
	}
	batch := enc.EncodeBatch("a b")
	if !batch.Shape().Eq(tensor.Shape{1, 2, 2}) {
		t.Errorf("batch shape = %v", batch.Shape())
	}
}

func TestEncodeText_deterministic(t *testing.T) {
	enc, _ := New(Config{VectorSize: 8, MaxLength: 4}, embedding.NewHashEmbedding(8))
	a := data(t, enc.EncodeText("quantum mechanics"))
	b := data(t, enc.EncodeText("quantum mechanics"))
	if !reflect.DeepEqual(a, b) {
		t.Error("EncodeText should be deterministic")
	}
}

func TestBuildTrainingTensors_malformedEntries(t *testing.T) {
	c := corpus.New()
	c.Add("math", "algebra", 42)
	c.Add("bio", nil)

	lenient, _ := New(Config{VectorSize: 2, MaxLength: 2}, algebraEmbedding(t))
	ts, err := lenient.BuildTrainingTensors(c)
	if err != nil {
		t.Fatalf("lenient mode should not fail: %v", err)
	}
	in := data(t, ts.Inputs)
	if !reflect.DeepEqual(in, []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("inputs = %v", in)
	}

	strict, _ := New(Config{VectorSize: 2, MaxLength: 2, Strict: true}, algebraEmbedding(t))
	if _, err := strict.BuildTrainingTensors(c); !errors.Is(err, ErrMalformedText) {
		t.Errorf("strict mode error = %v, want ErrMalformedText", err)
	}
}

func TestBuildTrainingTensors_empty(t *testing.T) {
	enc, _ := New(Config{VectorSize: 2, MaxLength: 2}, algebraEmbedding(t))
	if _, err := enc.BuildTrainingTensors(corpus.New()); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("no labels: err = %v", err)
	}
	c := corpus.New()
	c.Add("math")
	if _, err := enc.BuildTrainingTensors(c); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("no examples: err = %v", err)
	}
	if _, err := enc.BuildTrainingTensors(nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("nil corpus: err = %v", err)
	}
}

func TestBuildTrainingTensors_alternateIngestion(t *testing.T) {
	c := corpus.New()
	c.Add("math", "algebra algebra help")
	c.Add("bio", "cell wall")
	enc, err := New(Config{MaxLength: 3, AlternateIngestion: true}, nil,
		WithTokenizer(tokenize.WhitespaceTokenizer{}))
	if err != nil {
		t.Fatal(err)
	}
	ts, err := enc.BuildTrainingTensors(c)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Vocabulary == nil {
		t.Fatal("alternate mode should fit a vocabulary")
	}
	if !ts.Inputs.Shape().Eq(tensor.Shape{2, 3}) {
		t.Fatalf("input shape = %v", ts.Inputs.Shape())
	}
	// algebra:1 help:2 cell:3 wall:4
	want := []float32{1, 1, 2, 0, 3, 4}
	if got := data(t, ts.Inputs); !reflect.DeepEqual(got, want) {
		t.Errorf("inputs = %v, want %v", got, want)
	}
	seq := enc.EncodeSequence(ts.Vocabulary, "wall unknown algebra")
	if got := data(t, seq); !reflect.DeepEqual(got, []float32{0, 4, 1}) {
		t.Errorf("EncodeSequence = %v, want [0 4 1]", got)
	}
}
