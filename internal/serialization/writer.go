package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/momo/internal/tree"
)

// Format constants.
const (
	dtypeFloat64  = "F64"
	metadataKey   = "__metadata__"
	maxHeaderSize = 100 * 1024 * 1024
)

// TensorHeader describes one tensor in the SafeTensors header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteFile writes trees to a SafeTensors file at path.
func WriteFile(path string, trees map[string]*tree.Tree, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoints
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := Encode(bw, trees, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return file.Close()
}

// Encode writes trees to w in SafeTensors format.
//
// Tensors are written in alphabetical order by name (SafeTensors requirement).
func Encode(w io.Writer, trees map[string]*tree.Tree, metadata map[string]string) error {
	flat, err := flatten(trees)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	// Lay out the data section and the header entries together.
	header := make(map[string]any, len(names)+1)
	var data []byte
	for _, name := range names {
		leaf := flat[name]
		start := int64(len(data))
		for _, v := range leaf.Data() {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}

		shape := leaf.Shape()
		shapeInt64 := make([]int64, len(shape))
		for i, dim := range shape {
			shapeInt64[i] = int64(dim)
		}
		header[name] = TensorHeader{
			DType:       dtypeFloat64,
			Shape:       shapeInt64,
			DataOffsets: [2]int64{start, int64(len(data))},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[metadataChecksumKey] = computeChecksum(data)
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// flatten maps every leaf of every tree to its tensor name.
func flatten(trees map[string]*tree.Tree) (map[string]*tree.Tree, error) {
	flat := make(map[string]*tree.Tree)
	for key, t := range trees {
		if key == "" || key == metadataKey {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTensorName, key)
		}
		if t == nil {
			return nil, fmt.Errorf("%w: %q", tree.ErrNilTree, key)
		}

		var dup string
		t.Walk(func(path string, leaf *tree.Tree) {
			name := tensorName(key, path)
			if _, exists := flat[name]; exists {
				dup = name
			}
			flat[name] = leaf
		})
		if dup != "" {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidTensorName, dup)
		}
	}
	return flat, nil
}

func tensorName(key, path string) string {
	if path == "" {
		return key
	}
	return key + "." + path
}
