package vectorstore

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Binary vector file layout: magic, version, dimension, count, then
// count*dimension little-endian float32 values in record order.
var vectorsMagic = [4]byte{'S', 'R', 'V', '1'}

const vectorsVersion uint32 = 1

func writeVectors(path string, vectors [][]float32, dim int) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	w := bufio.NewWriter(f)
	if _, err := w.Write(vectorsMagic[:]); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, v := range []uint32{vectorsVersion, uint32(dim), uint32(len(vectors))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("writing header: %w", err)
		}
	}

	buf := make([]byte, 4)
	for i, vec := range vectors {
		if len(vec) != dim {
			f.Close()
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(vec), dim)
		}
		for _, x := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			if _, err := w.Write(buf); err != nil {
				f.Close()
				return fmt.Errorf("writing vector %d: %w", i, err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func readVectors(path string, dim int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	if magic != vectorsMagic {
		return nil, fmt.Errorf("%s is not a vector file (bad magic)", path)
	}

	var version, fileDim, count uint32
	for _, p := range []*uint32{&version, &fileDim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("reading %s header: %w", path, err)
		}
	}
	if version != vectorsVersion {
		return nil, fmt.Errorf("%s: unsupported vector file version %d", path, version)
	}
	if int(fileDim) != dim {
		return nil, fmt.Errorf("%s holds %d-dimension vectors, store requires %d", path, fileDim, dim)
	}

	vectors := make([][]float32, 0, count)
	buf := make([]byte, 4)
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("%s truncated at vector %d: %w", path, i, err)
			}
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		vectors = append(vectors, vec)
	}

	// Trailing bytes mean the header lied about the count.
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%s has trailing data after %d vectors", path, count)
	}

	return vectors, nil
}

func writeMetadata(path string, metadata []Metadata) error {
	// Encode an empty array, not null, so load round-trips.
	if metadata == nil {
		metadata = []Metadata{}
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func readMetadata(path string) ([]Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	var metadata []Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return metadata, nil
}
