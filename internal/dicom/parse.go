package dicom

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/suyashkumar/dicom"
)

// DefaultHeaderCacheSize is the number of parsed headers kept in memory
// when no size is configured.
const DefaultHeaderCacheSize = 512

// SafeParseFile fully parses a DICOM file. Panics raised by the parser on
// malformed input are converted into errors so one bad file cannot take
// down a batch.
func SafeParseFile(path string, opts ...dicom.ParseOption) (ds dicom.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: recovered from panic: %v", path, r)
		}
	}()

	ds, err = dicom.ParseFile(path, nil, opts...)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// ParseHeader parses a DICOM file element by element without pixel data,
// keeping whatever was read before the first element error. The file meta
// elements are included. A file with no readable element is an error.
func ParseHeader(path string) (ds dicom.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse header %s: recovered from panic: %v", path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return dicom.Dataset{}, err
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("parse header %s: %w", path, err)
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			// End of file or a damaged element: keep what was read.
			break
		}
		elements = append(elements, elem)
	}

	meta := p.GetMetadata()
	if len(elements) == 0 && len(meta.Elements) == 0 {
		return dicom.Dataset{}, fmt.Errorf("parse header %s: no elements parsed", path)
	}

	return dicom.Dataset{Elements: append(meta.Elements, elements...)}, nil
}

// HeaderCache memoizes ParseHeader results by path. Scanning a case reads
// each file several times (classification, ordering, slice lookup), so the
// cache keeps the most recent headers around.
type HeaderCache struct {
	cache *lru.Cache[string, dicom.Dataset]
}

// NewHeaderCache creates a cache holding at most size headers. A size of
// zero or less selects DefaultHeaderCacheSize.
func NewHeaderCache(size int) (*HeaderCache, error) {
	if size <= 0 {
		size = DefaultHeaderCacheSize
	}
	c, err := lru.New[string, dicom.Dataset](size)
	if err != nil {
		return nil, fmt.Errorf("create header cache: %w", err)
	}
	return &HeaderCache{cache: c}, nil
}

// Get returns the parsed header of path, reading it on a miss. Failures are
// not cached. A nil cache reads through.
func (h *HeaderCache) Get(path string) (dicom.Dataset, error) {
	if h == nil {
		return ParseHeader(path)
	}
	if ds, ok := h.cache.Get(path); ok {
		return ds, nil
	}
	ds, err := ParseHeader(path)
	if err != nil {
		return dicom.Dataset{}, err
	}
	h.cache.Add(path, ds)
	return ds, nil
}

// Purge drops every cached header. Staged files are deleted once an
// operation ends, so their entries must not outlive it.
func (h *HeaderCache) Purge() {
	if h != nil {
		h.cache.Purge()
	}
}

// Len reports the number of cached headers.
func (h *HeaderCache) Len() int {
	if h == nil {
		return 0
	}
	return h.cache.Len()
}
