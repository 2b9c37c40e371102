package dense

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/hyperjump/bunrui/internal/nn"
)

// WeightsPath returns the weights file of the network saved under prefix.
func WeightsPath(prefix string) string {
	return prefix + ".weights"
}

// blocks lists the parameter slices in file order.
func (n *Network) blocks() [][]float32 {
	var out [][]float32
	if n.embed != nil {
		out = append(out, n.embed)
	}
	for _, l := range n.layers {
		out = append(out, l.w, l.b)
	}
	return out
}

// Save writes the architecture header and the weights. Weights format: block count (4),
// then per block: length (4) and length little-endian float32 values.
func (n *Network) Save(prefix string) error {
	if err := os.MkdirAll(filepath.Dir(prefix), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := nn.WriteHeader(prefix, n.arch); err != nil {
		return err
	}
	f, err := os.Create(WeightsPath(prefix))
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	blocks := n.blocks()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(blocks))); err != nil {
		return fmt.Errorf("write block count: %w", err)
	}
	for _, b := range blocks {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
			return fmt.Errorf("write block length: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(b)); err != nil {
			return fmt.Errorf("write weights: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush weights: %w", err)
	}
	return f.Close()
}

// Load rebuilds a network from its header content and the weights file under prefix.
func Load(prefix string, header []byte) (*Network, error) {
	var arch Architecture
	if err := json.Unmarshal(header, &arch); err != nil {
		return nil, fmt.Errorf("parse dense header: %w", err)
	}
	if arch.Kind != Kind {
		return nil, fmt.Errorf("%w: %q is not a dense network", nn.ErrUnknownKind, arch.Kind)
	}
	if err := arch.validate(); err != nil {
		return nil, fmt.Errorf("dense header: %w", err)
	}
	n, err := build(arch, nil)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(WeightsPath(prefix))
	if err != nil {
		return nil, fmt.Errorf("open weights file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	blocks := n.blocks()
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read block count: %w", err)
	}
	if int(count) != len(blocks) {
		return nil, fmt.Errorf("weights file has %d blocks, architecture needs %d", count, len(blocks))
	}
	for i, b := range blocks {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("read block length: %w", err)
		}
		if int(size) != len(b) {
			return nil, fmt.Errorf("weights block %d has %d values, architecture needs %d", i, size, len(b))
		}
		buf := make([]byte, len(b)*4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read weights: %w", err)
		}
		copy(b, bytesToFloat32Slice(buf))
	}
	return n, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
