package tokenize

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Vocabulary maps words to 1-based indices ordered by descending corpus frequency.
// Index 0 is reserved for padding. Words with equal counts keep first-seen order.
type Vocabulary struct {
	words []string
	index map[string]int
}

type vocabularyFile struct {
	Words []string `json:"words"`
}

// FitVocabulary counts the tokens of texts and builds a Vocabulary.
func FitVocabulary(texts []string, tok Tokenizer) *Vocabulary {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, w := range tok.Tokenize(text) {
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return newVocabulary(order)
}

func newVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{words: words, index: make(map[string]int, len(words))}
	for i, w := range words {
		v.index[w] = i + 1
	}
	return v
}

// Size returns the number of indices including the padding index 0.
func (v *Vocabulary) Size() int {
	return len(v.words) + 1
}

// Index returns the index of word and whether it is known.
func (v *Vocabulary) Index(word string) (int, bool) {
	i, ok := v.index[word]
	return i, ok
}

// Words returns the vocabulary in index order (index 1 first).
func (v *Vocabulary) Words() []string {
	return append([]string(nil), v.words...)
}

// TextsToSequences converts each text to the indices of its known tokens. Unknown tokens are dropped.
func (v *Vocabulary) TextsToSequences(texts []string, tok Tokenizer) [][]int {
	seqs := make([][]int, len(texts))
	for i, text := range texts {
		var seq []int
		for _, w := range tok.Tokenize(text) {
			if idx, ok := v.index[w]; ok {
				seq = append(seq, idx)
			}
		}
		seqs[i] = seq
	}
	return seqs
}

// Save writes the vocabulary as JSON to path.
func (v *Vocabulary) Save(path string) error {
	data, err := json.Marshal(vocabularyFile{Words: v.words})
	if err != nil {
		return fmt.Errorf("marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write vocabulary: %w", err)
	}
	return nil
}

// LoadVocabulary reads a vocabulary written by Save.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var f vocabularyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	return newVocabulary(f.Words), nil
}

// PadSequences returns a maxLen-wide copy of seqs. Short sequences are padded with 0 at the
// front; long ones keep their last maxLen entries.
func PadSequences(seqs [][]int, maxLen int) [][]int {
	out := make([][]int, len(seqs))
	for i, seq := range seqs {
		row := make([]int, maxLen)
		if len(seq) > maxLen {
			seq = seq[len(seq)-maxLen:]
		}
		copy(row[maxLen-len(seq):], seq)
		out[i] = row
	}
	return out
}
