// Package corpus reads training corpora into memory.
//
// Plain text files are memory mapped and copied into a string. Parquet files (as used by most dataset
// hubs, e.g. TinyStories) are read one column at a time, and the rows of the text column are joined with
// a separator.
package corpus

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DefaultColumn is the parquet column read unless WithColumn is used.
	DefaultColumn = "text"

	// DefaultSeparator joins the rows of a parquet column.
	DefaultSeparator = "\n"
)

type options struct {
	column    string
	separator string
	parquet   *bool
}

// Option configures Read.
type Option func(*options)

// WithColumn selects the parquet column holding the text. Ignored for text files.
func WithColumn(name string) Option {
	return func(o *options) { o.column = name }
}

// WithSeparator sets the string placed between parquet rows.
func WithSeparator(sep string) Option {
	return func(o *options) { o.separator = sep }
}

// WithParquet forces (or disables) reading the file as parquet, regardless of its extension.
func WithParquet(isParquet bool) Option {
	return func(o *options) { o.parquet = &isParquet }
}

// Read returns the whole content of the corpus at path.
//
// Files ending in ".parquet" are read as parquet, everything else as text.
func Read(path string, opts ...Option) (string, error) {
	o := options{column: DefaultColumn, separator: DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}
	isParquet := strings.EqualFold(filepath.Ext(path), ".parquet")
	if o.parquet != nil {
		isParquet = *o.parquet
	}
	if isParquet {
		return readParquet(path, o.column, o.separator)
	}
	return readText(path)
}

func readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening corpus")
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "stat of corpus %q", path)
	}
	if info.IsDir() {
		return "", errors.Errorf("corpus %q is a directory", path)
	}
	if info.Size() == 0 {
		// Empty files can't be mapped.
		return "", nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", errors.Wrapf(err, "mapping corpus %q", path)
	}
	text := string(m)
	if err := m.Unmap(); err != nil {
		klog.Warningf("corpus: failed to unmap %q: %v", path, err)
	}
	klog.V(1).Infof("corpus: read %d bytes from %q", len(text), path)
	return text, nil
}

func readParquet(path, column, separator string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening corpus")
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "stat of corpus %q", path)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return "", errors.Wrapf(err, "opening parquet corpus %q", path)
	}
	leaf, found := pf.Schema().Lookup(column)
	if !found {
		return "", errors.Errorf("parquet corpus %q has no column %q", path, column)
	}
	if kind := leaf.Node.Type().Kind(); kind != parquet.ByteArray {
		return "", errors.Errorf("column %q of parquet corpus %q holds %s, not text", column, path, kind)
	}

	var sb strings.Builder
	var rows int
	buf := make([]parquet.Value, 1024)
	for _, rowGroup := range pf.RowGroups() {
		chunk := rowGroup.ColumnChunks()[leaf.ColumnIndex]
		if err := readColumnChunk(chunk, buf, func(v parquet.Value) {
			if v.IsNull() {
				return
			}
			if rows > 0 {
				sb.WriteString(separator)
			}
			sb.Write(v.ByteArray())
			rows++
		}); err != nil {
			return "", errors.WithMessagef(err, "reading column %q of parquet corpus %q", column, path)
		}
	}
	klog.V(1).Infof("corpus: read %d rows (%d bytes) of column %q from %q", rows, sb.Len(), column, path)
	return sb.String(), nil
}

// readColumnChunk calls fn for every value of the chunk, page by page.
func readColumnChunk(chunk parquet.ColumnChunk, buf []parquet.Value, fn func(parquet.Value)) error {
	pages := chunk.Pages()
	defer func() { _ = pages.Close() }()
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading page")
		}
		values := page.Values()
		for {
			n, err := values.ReadValues(buf)
			for _, v := range buf[:n] {
				fn(v)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.Wrap(err, "reading values")
			}
		}
	}
}
