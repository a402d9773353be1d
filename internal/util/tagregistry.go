// Package util provides tag naming and UID helpers shared by the DICOM packages.
package util

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagScope represents the DICOM hierarchy level a record tag describes.
type TagScope int

const (
	// ScopePatient indicates tags that identify the patient.
	ScopePatient TagScope = iota
	// ScopeStudy indicates tags shared by every series of a study.
	ScopeStudy
	// ScopeSeries indicates tags shared by every slice of a series.
	ScopeSeries
	// ScopeImage indicates tags that can vary per slice.
	ScopeImage
)

// String returns the string representation of a TagScope.
func (s TagScope) String() string {
	switch s {
	case ScopePatient:
		return "Patient"
	case ScopeStudy:
		return "Study"
	case ScopeSeries:
		return "Series"
	case ScopeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// TagInfo describes one tag of the per-file record: its dictionary keyword,
// its numeric tag and its scope.
type TagInfo struct {
	Name  string
	Tag   tag.Tag
	Scope TagScope
}

// recordTags lists the tags extracted from every scanned file, in the
// order they are reported. Numeric values are spelled out so lookups do not
// depend on the dictionary being complete.
var recordTags = []TagInfo{
	{Name: "PatientName", Tag: tag.Tag{Group: 0x0010, Element: 0x0010}, Scope: ScopePatient},
	{Name: "PatientID", Tag: tag.Tag{Group: 0x0010, Element: 0x0020}, Scope: ScopePatient},
	{Name: "PatientBirthDate", Tag: tag.Tag{Group: 0x0010, Element: 0x0030}, Scope: ScopePatient},

	{Name: "StudyInstanceUID", Tag: tag.Tag{Group: 0x0020, Element: 0x000D}, Scope: ScopeStudy},
	{Name: "StudyDescription", Tag: tag.Tag{Group: 0x0008, Element: 0x1030}, Scope: ScopeStudy},
	{Name: "StudyDate", Tag: tag.Tag{Group: 0x0008, Element: 0x0020}, Scope: ScopeStudy},

	{Name: "SeriesInstanceUID", Tag: tag.Tag{Group: 0x0020, Element: 0x000E}, Scope: ScopeSeries},
	{Name: "SeriesDescription", Tag: tag.Tag{Group: 0x0008, Element: 0x103E}, Scope: ScopeSeries},
	{Name: "Modality", Tag: tag.Tag{Group: 0x0008, Element: 0x0060}, Scope: ScopeSeries},
	{Name: "BitsStored", Tag: tag.Tag{Group: 0x0028, Element: 0x0101}, Scope: ScopeSeries},
	{Name: "PixelRepresentation", Tag: tag.Tag{Group: 0x0028, Element: 0x0103}, Scope: ScopeSeries},

	{Name: "SOPInstanceUID", Tag: tag.Tag{Group: 0x0008, Element: 0x0018}, Scope: ScopeImage},
	{Name: "WindowCenter", Tag: tag.Tag{Group: 0x0028, Element: 0x1050}, Scope: ScopeImage},
	{Name: "WindowWidth", Tag: tag.Tag{Group: 0x0028, Element: 0x1051}, Scope: ScopeImage},
	{Name: "SmallestImagePixelValue", Tag: tag.Tag{Group: 0x0028, Element: 0x0106}, Scope: ScopeImage},
	{Name: "LargestImagePixelValue", Tag: tag.Tag{Group: 0x0028, Element: 0x0107}, Scope: ScopeImage},
	{Name: "RescaleSlope", Tag: tag.Tag{Group: 0x0028, Element: 0x1053}, Scope: ScopeImage},
	{Name: "RescaleIntercept", Tag: tag.Tag{Group: 0x0028, Element: 0x1052}, Scope: ScopeImage},
	{Name: "ImageOrientationPatient", Tag: tag.Tag{Group: 0x0020, Element: 0x0037}, Scope: ScopeImage},
	{Name: "ImagePositionPatient", Tag: tag.Tag{Group: 0x0020, Element: 0x0032}, Scope: ScopeImage},
	{Name: "InstanceNumber", Tag: tag.Tag{Group: 0x0020, Element: 0x0013}, Scope: ScopeImage},
	{Name: "NumberOfFrames", Tag: tag.Tag{Group: 0x0028, Element: 0x0008}, Scope: ScopeImage},
}

var byKeyword = func() map[string]TagInfo {
	m := make(map[string]TagInfo, len(recordTags))
	for _, info := range recordTags {
		m[strings.ToLower(info.Name)] = info
	}
	return m
}()

// RecordTags returns the record tag set in reporting order.
func RecordTags() []TagInfo {
	return append([]TagInfo(nil), recordTags...)
}

// MustTag returns the numeric tag registered under name and panics when
// name is not a record tag.
func MustTag(name string) tag.Tag {
	info, err := GetTagByName(name)
	if err != nil {
		panic(err)
	}
	return info.Tag
}

// GetTagByName looks a record tag up by keyword, ignoring case and
// surrounding blanks. A miss suggests the nearest keyword when one is
// within a few edits.
func GetTagByName(name string) (TagInfo, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if info, ok := byKeyword[key]; ok {
		return info, nil
	}
	if near := nearestKeyword(key); near != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, near)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// maxSuggestDistance bounds how far a suggestion may be from the input.
const maxSuggestDistance = 5

// nearestKeyword returns the record keyword with the smallest edit distance
// to key, the first one in reporting order on ties.
func nearestKeyword(key string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, info := range recordTags {
		if d := editDistance(key, strings.ToLower(info.Name)); d < bestDist {
			best, bestDist = info.Name, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b, computed over
// bytes with two rolling rows.
func editDistance(a, b string) int {
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = min(row[j]+1, row[j-1]+1, sub)
		}
	}
	return row[len(b)]
}
