// Package corpus holds labeled short-text training data and loads it from files.
package corpus

// Corpus maps class labels to their example texts, remembering label order.
// Entries are kept as loaded (any) so malformed values reach the encoder untouched;
// use Text to normalize one.
type Corpus struct {
	labels []string
	texts  map[string][]any
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{texts: make(map[string][]any)}
}

// FromPairs builds a corpus from label/texts pairs, preserving their order.
func FromPairs(pairs ...LabelTexts) *Corpus {
	c := New()
	for _, p := range pairs {
		for _, t := range p.Texts {
			c.Add(p.Label, t)
		}
		if len(p.Texts) == 0 {
			c.Add(p.Label)
		}
	}
	return c
}

// LabelTexts is one label with its texts.
type LabelTexts struct {
	Label string
	Texts []string
}

// Add appends entries under label. A new label is placed after all existing ones.
func (c *Corpus) Add(label string, entries ...any) {
	if _, ok := c.texts[label]; !ok {
		c.labels = append(c.labels, label)
		c.texts[label] = nil
	}
	c.texts[label] = append(c.texts[label], entries...)
}

// Labels returns the labels in order.
func (c *Corpus) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Entries returns the raw entries of label.
func (c *Corpus) Entries(label string) []any {
	return c.texts[label]
}

// Len returns the number of labels.
func (c *Corpus) Len() int {
	return len(c.labels)
}

// NumExamples returns the total number of entries across labels.
func (c *Corpus) NumExamples() int {
	n := 0
	for _, l := range c.labels {
		n += len(c.texts[l])
	}
	return n
}

// Text returns entry as a string. ok is false when entry is not a string.
func Text(entry any) (text string, ok bool) {
	switch v := entry.(type) {
	case string:
		return v, true
	default:
		return "", false
	}
}
