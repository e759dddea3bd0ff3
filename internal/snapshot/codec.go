// internal/snapshot/codec.go
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CompressedSuffix marks snapshot files stored brotli-compressed.
const CompressedSuffix = ".br"

var brotliReaderPool = sync.Pool{
	New: func() interface{} {
		return brotli.NewReader(nil)
	},
}

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap *schemas.PageSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Decode reads one JSON snapshot from r.
func Decode(r io.Reader) (*schemas.PageSnapshot, error) {
	var snap schemas.PageSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// WriteFile stores snap at path, brotli-compressed when path ends in ".br".
func WriteFile(path string, snap *schemas.PageSnapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close snapshot file: %w", cerr)
		}
	}()

	if !strings.HasSuffix(path, CompressedSuffix) {
		bw := bufio.NewWriter(f)
		if err := Encode(bw, snap); err != nil {
			return err
		}
		return bw.Flush()
	}

	zw := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	if err := Encode(zw, snap); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush compressed snapshot: %w", err)
	}
	return nil
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*schemas.PageSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Decode(bufio.NewReader(f))
	}

	br := brotliReaderPool.Get().(*brotli.Reader)
	defer func() {
		_ = br.Reset(strings.NewReader(""))
		brotliReaderPool.Put(br)
	}()
	if err := br.Reset(f); err != nil {
		return nil, fmt.Errorf("failed to initialize brotli reader: %w", err)
	}
	return Decode(br)
}

// Load reads a snapshot file and builds its Page.
func Load(path string) (*Page, error) {
	snap, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to build page from %s: %w", path, err)
	}
	return page, nil
}
