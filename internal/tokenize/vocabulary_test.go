package tokenize

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestFitVocabulary_frequencyOrder(t *testing.T) {
	v := FitVocabulary([]string{"b a", "a c a", "c"}, WhitespaceTokenizer{})
	// a:3, b:1, c:2 -> a, c, b
	if got := v.Words(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Fatalf("Words() = %v", got)
	}
	if i, ok := v.Index("a"); !ok || i != 1 {
		t.Errorf("Index(a) = %d, %v; want 1, true", i, ok)
	}
	if _, ok := v.Index("zzz"); ok {
		t.Error("unknown word should not be found")
	}
	if v.Size() != 4 {
		t.Errorf("Size() = %d, want 4 (3 words + padding)", v.Size())
	}
}

func TestFitVocabulary_tiesKeepFirstSeen(t *testing.T) {
	v := FitVocabulary([]string{"x y z"}, WhitespaceTokenizer{})
	if got := v.Words(); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("Words() = %v", got)
	}
}

func TestTextsToSequences_dropsUnknown(t *testing.T) {
	v := FitVocabulary([]string{"a b"}, WhitespaceTokenizer{})
	got := v.TextsToSequences([]string{"a q b", ""}, WhitespaceTokenizer{})
	want := [][]int{{1, 2}, nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TextsToSequences = %v, want %v", got, want)
	}
}

func TestPadSequences(t *testing.T) {
	got := PadSequences([][]int{{1, 2}, {1, 2, 3, 4, 5}, nil}, 3)
	want := [][]int{{0, 1, 2}, {3, 4, 5}, {0, 0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PadSequences = %v, want %v", got, want)
	}
}

func TestVocabulary_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	v := FitVocabulary([]string{"a a b"}, WhitespaceTokenizer{})
	if err := v.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadVocabulary(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Words(), v.Words()) {
		t.Errorf("loaded words %v, want %v", loaded.Words(), v.Words())
	}
	if i, _ := loaded.Index("b"); i != 2 {
		t.Errorf("loaded Index(b) = %d, want 2", i)
	}
}
