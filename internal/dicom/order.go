package dicom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type positionedFile struct {
	path     string
	distance float64
	instance int
}

// SortByPosition orders files along the slice normal of the first readable
// file, by projecting each ImagePositionPatient onto it. Ties fall back to
// InstanceNumber and then path. Files whose header cannot be read are left
// out.
func SortByPosition(cache *HeaderCache, files []string, log logrus.FieldLogger) []string {
	var normal [3]float64
	haveNormal := false

	entries := make([]positionedFile, 0, len(files))
	for _, path := range files {
		rec, err := ReadFileRecord(cache, path)
		if err != nil {
			if log != nil {
				log.WithField("file", path).WithError(err).Debug("skipping unreadable file while sorting")
			}
			continue
		}
		if !haveNormal {
			normal = [3]float64{0, 0, 1}
			if d := directionFromCosines(ParseCosines(rec.ImageOrientation)); d != nil {
				normal = [3]float64{d.At(0, 2), d.At(1, 2), d.At(2, 2)}
			}
			haveNormal = true
		}

		var dist float64
		if pos, err := parseTriple(rec.ImagePosition); err == nil {
			dist = pos[0]*normal[0] + pos[1]*normal[1] + pos[2]*normal[2]
		}
		entries = append(entries, positionedFile{path: path, distance: dist, instance: rec.InstanceNumber})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.instance != b.instance {
			return a.instance < b.instance
		}
		return a.path < b.path
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out
}

// parseTriple parses a three-valued DS string such as ImagePositionPatient.
func parseTriple(raw string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(raw, `\`)
	if len(parts) != 3 {
		return out, fmt.Errorf("expected 3 values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
