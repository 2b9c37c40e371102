package embedding

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LoadWord2Vec reads a word2vec model from path. binary selects the GoogleNews binary layout;
// otherwise the text layout ("word v1 v2 ...", with an optional "count dim" header line) is
// expected. Files ending in .gz are decompressed on the fly.
func LoadWord2Vec(path string, binary bool) (*MemoryEmbedding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word2vec model: %w", err)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	if binary {
		return ReadWord2VecBinary(r)
	}
	return ReadWord2VecText(r)
}

// ReadWord2VecText parses the text layout.
func ReadWord2VecText(r io.Reader) (*MemoryEmbedding, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var m *MemoryEmbedding
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 {
			if dim, err := strconv.Atoi(fields[1]); err == nil {
				if m, err = NewMemoryEmbedding(dim); err != nil {
					return nil, fmt.Errorf("line 1: %w", err)
				}
				continue
			}
		}
		if m == nil {
			var err error
			if m, err = NewMemoryEmbedding(len(fields) - 1); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if len(fields)-1 != m.dimensions {
			return nil, fmt.Errorf("line %d: got %d values, expected %d", line, len(fields)-1, m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		m.vectors[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word2vec text: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("read word2vec text: empty model")
	}
	return m, nil
}

// ReadWord2VecBinary parses the binary layout: a "count dim\n" header followed by count
// records of "word " and dim little-endian float32 values.
func ReadWord2VecBinary(r io.Reader) (*MemoryEmbedding, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var count, dim int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "%d %d", &count, &dim); err != nil {
		return nil, fmt.Errorf("parse header %q: %w", strings.TrimSpace(header), err)
	}
	m, err := NewMemoryEmbedding(dim)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, dim*4)
	for i := 0; i < count; i++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("read word %d: %w", i, err)
		}
		word = strings.TrimLeft(strings.TrimSuffix(word, " "), "\n")
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		m.vectors[word] = vec
	}
	return m, nil
}
