package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// Entries keep insertion order, so persisting the same input always yields the same bytes.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	mu         sync.RWMutex
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		vectors:    make([][]float32, 0),
	}, nil
}

// Add appends vectors with the given IDs.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New("ids and vectors length mismatch")
	}
	for i := range vectors {
		if len(vectors[i]) != m.dimensions {
			return errors.Newf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the top-k vectors by inner product. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != m.dimensions {
		return nil, errors.Newf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	scores := make([]*Result, len(m.ids))
	for i, vec := range m.vectors {
		scores[i] = &Result{ID: m.ids[i], Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// WriteTo serializes the index. Format: dimension (4), n (4), then per vector:
// idLen (4), id bytes, vector (dimension*4 bytes), all little endian.
func (m *MemoryIndex) WriteTo(w io.Writer) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cw := &countingWriter{w: w}
	if err := binary.Write(cw, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return cw.n, errors.Wrap(err, "write dimensions")
	}
	if err := binary.Write(cw, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return cw.n, errors.Wrap(err, "write count")
	}
	for i, id := range m.ids {
		if err := binary.Write(cw, binary.LittleEndian, uint32(len(id))); err != nil {
			return cw.n, errors.Wrap(err, "write id len")
		}
		if _, err := io.WriteString(cw, id); err != nil {
			return cw.n, errors.Wrap(err, "write id")
		}
		if _, err := cw.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return cw.n, errors.Wrap(err, "write vector")
		}
	}
	return cw.n, nil
}

// Save writes the index to path.
func (m *MemoryIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create index file")
	}
	bw := bufio.NewWriter(f)
	if _, err := m.WriteTo(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "flush index file")
	}
	return f.Close()
}

// ReadMemoryIndex reads an index written by WriteTo.
func ReadMemoryIndex(r io.Reader) (*MemoryIndex, error) {
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, errors.Wrap(err, "read dimensions")
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, "read count")
	}
	m, err := NewMemoryIndex(int(dim))
	if err != nil {
		return nil, err
	}
	m.ids = make([]string, 0, n)
	m.vectors = make([][]float32, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, errors.Wrap(err, "read id len")
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, errors.Wrap(err, "read id")
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "read vector")
		}
		m.ids = append(m.ids, string(idBytes))
		m.vectors = append(m.vectors, bytesToFloat32Slice(buf))
	}
	return m, nil
}

// LoadMemoryIndex reads the index file at path.
func LoadMemoryIndex(path string) (*MemoryIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open index file")
	}
	defer f.Close()
	return ReadMemoryIndex(bufio.NewReader(f))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
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

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int { return m.dimensions }
