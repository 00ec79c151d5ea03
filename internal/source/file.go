package source

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// File is an input handed to the engine by its host.
type File interface {
	Name() string
	MIMEType() string
	Size() int64
	ReadAll() ([]byte, error)
}

// Open returns a File backed by a path on disk. The MIME type is derived from the
// extension.
func Open(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &localFile{path: path, size: info.Size()}, nil
}

type localFile struct {
	path string
	size int64
}

func (f *localFile) Name() string { return filepath.Base(f.path) }
func (f *localFile) Size() int64  { return f.size }

func (f *localFile) MIMEType() string {
	return mimeFromName(f.path)
}

func (f *localFile) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return data, nil
}

// FromBytes wraps in-memory content, such as an HTTP upload. An empty mimeType is
// derived from the name.
func FromBytes(name, mimeType string, data []byte) File {
	if mimeType == "" {
		mimeType = mimeFromName(name)
	}
	return &memFile{name: name, mimeType: mimeType, data: data}
}

type memFile struct {
	name     string
	mimeType string
	data     []byte
}

func (f *memFile) Name() string     { return f.name }
func (f *memFile) MIMEType() string { return f.mimeType }
func (f *memFile) Size() int64      { return int64(len(f.data)) }

func (f *memFile) ReadAll() ([]byte, error) {
	return bytes.Clone(f.data), nil
}

// FromReader buffers r into a File.
func FromReader(name, mimeType string, r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return FromBytes(name, mimeType, data), nil
}

func mimeFromName(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".txt":
		return "text/plain"
	case ".xlsx":
		return mimeXLSX
	case "":
		return ""
	default:
		return mime.TypeByExtension(ext)
	}
}
