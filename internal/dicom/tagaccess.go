package dicom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Lookup finds the first element among elems carrying tag t.
func Lookup(elems []*dicom.Element, t tag.Tag) (*dicom.Element, bool) {
	for _, e := range elems {
		if e != nil && e.Tag == t {
			return e, true
		}
	}
	return nil, false
}

// Strings returns the raw string values of e. Integer and float values are
// formatted so callers can treat every element as text.
func Strings(e *dicom.Element) []string {
	if e == nil || e.Value == nil {
		return nil
	}
	switch e.Value.ValueType() {
	case dicom.Strings:
		vals := dicom.MustGetStrings(e.Value)
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strings.TrimRight(v, " \x00")
		}
		return out
	case dicom.Ints:
		vals := dicom.MustGetInts(e.Value)
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strconv.Itoa(v)
		}
		return out
	case dicom.Floats:
		vals := dicom.MustGetFloats(e.Value)
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return out
	default:
		return nil
	}
}

// String joins the values of e with the DICOM multi-value separator, the
// way the raw tag text reads in a file.
func String(e *dicom.Element) string {
	return strings.Join(Strings(e), `\`)
}

// Int returns the first value of e as an integer. IS strings are parsed.
func Int(e *dicom.Element) (int, bool) {
	if e == nil || e.Value == nil {
		return 0, false
	}
	if e.Value.ValueType() == dicom.Ints {
		vals := dicom.MustGetInts(e.Value)
		if len(vals) == 0 {
			return 0, false
		}
		return vals[0], true
	}
	vals := Strings(e)
	if len(vals) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

// Floats returns every value of e as a float64. DS strings are parsed; a
// value that does not parse fails the whole conversion.
func Floats(e *dicom.Element) ([]float64, error) {
	if e == nil || e.Value == nil {
		return nil, fmt.Errorf("element missing")
	}
	if e.Value.ValueType() == dicom.Floats {
		return dicom.MustGetFloats(e.Value), nil
	}
	raw := Strings(e)
	out := make([]float64, 0, len(raw))
	for _, s := range raw {
		for _, part := range strings.Split(s, `\`) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s value %q: %w", e.Tag, part, err)
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// SequenceItems returns the element lists of each item of a sequence
// element. Non-sequence elements yield nil.
func SequenceItems(e *dicom.Element) [][]*dicom.Element {
	if e == nil || e.Value == nil || e.Value.ValueType() != dicom.Sequences {
		return nil
	}
	items, ok := e.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}
	out := make([][]*dicom.Element, 0, len(items))
	for _, item := range items {
		if item == nil {
			out = append(out, nil)
			continue
		}
		elems, _ := item.GetValue().([]*dicom.Element)
		out = append(out, elems)
	}
	return out
}

// FirstValue returns the first entry of a `\`-separated multi-value string.
func FirstValue(raw string) string {
	if i := strings.IndexByte(raw, '\\'); i >= 0 {
		return raw[:i]
	}
	return raw
}
