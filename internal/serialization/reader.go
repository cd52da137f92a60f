package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/momo/internal/tree"
)

// ReadFile reads trees from a SafeTensors file at path.
//
// Each entry of like is a template: the tree read for that key has the same
// structure, and every leaf must be present with a matching shape.
// Returns the trees and the file metadata.
func ReadFile(path string, like map[string]*tree.Tree) (map[string]*tree.Tree, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoints
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Decode(file, like)
}

// Decode reads SafeTensors data from r. See ReadFile.
func Decode(r io.Reader, like map[string]*tree.Tree) (map[string]*tree.Tree, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	entries, metadata, err := parseHeader(headerJSON)
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if want, ok := metadata[metadataChecksumKey]; ok && want != computeChecksum(data) {
		return nil, nil, ErrChecksumMismatch
	}

	out := make(map[string]*tree.Tree, len(like))
	for key, template := range like {
		t, err := tree.Rebuild(template, func(path string, shape tree.Shape) ([]float64, error) {
			return readTensor(tensorName(key, path), shape, entries, data)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = t
	}
	return out, metadata, nil
}

func parseHeader(headerJSON []byte) (map[string]TensorHeader, map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	metadata := make(map[string]string)
	entries := make(map[string]TensorHeader, len(raw))
	for name, msg := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &metadata); err != nil {
				return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		var h TensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, fmt.Errorf("failed to parse tensor %q: %w", name, err)
		}
		entries[name] = h
	}
	return entries, metadata, nil
}

func readTensor(name string, shape tree.Shape, entries map[string]TensorHeader, data []byte) ([]float64, error) {
	h, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingTensor, name)
	}
	if h.DType != dtypeFloat64 {
		return nil, fmt.Errorf("%w: tensor %q has dtype %s, want %s", ErrUnsupportedDType, name, h.DType, dtypeFloat64)
	}
	if !shapeEqual(h.Shape, shape) {
		return nil, fmt.Errorf("%w: tensor %q has shape %v, want %v", ErrShapeMismatch, name, h.Shape, shape)
	}

	start, end := h.DataOffsets[0], h.DataOffsets[1]
	if start < 0 || end < start || end > int64(len(data)) {
		return nil, fmt.Errorf("%w: tensor %q offsets [%d, %d), data size %d", ErrOutOfBounds, name, start, end, len(data))
	}
	if end-start != int64(shape.NumElements())*8 {
		return nil, fmt.Errorf("%w: tensor %q has %d bytes for shape %v", ErrShapeMismatch, name, end-start, shape)
	}

	buf := data[start:end]
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values, nil
}

func shapeEqual(stored []int64, shape tree.Shape) bool {
	if len(stored) != len(shape) {
		return false
	}
	for i := range stored {
		if stored[i] != int64(shape[i]) {
			return false
		}
	}
	return true
}
