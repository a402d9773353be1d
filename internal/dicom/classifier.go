package dicom

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoValidDICOM is returned when none of the scanned files could be read.
	ErrNoValidDICOM = errors.New("no valid DICOM files")
	// ErrEmptySeries is returned when a selected series has no file.
	ErrEmptySeries = errors.New("selected series has no file")
	// ErrTooManyFiles is returned when a selected series exceeds the file limit.
	ErrTooManyFiles = errors.New("selected series has too many files")
	// ErrMultiFrame flags a multi-frame series, which this pipeline does not import.
	ErrMultiFrame = errors.New("multi-frame series are not supported")
	// ErrNonTransversal flags a sagittal or coronal acquisition.
	ErrNonTransversal = errors.New("series is not a transversal acquisition")
)

// DefaultMaxSeriesFiles is the largest series Select accepts by default.
const DefaultMaxSeriesFiles = 100

// ProgressFunc receives a completion percentage between 0 and 100.
type ProgressFunc func(percent int)

// SeriesKey identifies a series inside a study.
type SeriesKey struct {
	StudyUID  string
	SeriesUID string
}

// SeriesGroup collects the files of one (study, series) pair in scan order.
// Descriptive fields come from the first member.
type SeriesGroup struct {
	Key          SeriesKey
	Records      []FileRecord
	IsMultiFrame bool

	PatientName       string
	PatientID         string
	PatientBirthDate  string
	StudyDescription  string
	SeriesDescription string
	StudyDate         string
	Modality          string
}

// FileCount returns the number of member files.
func (g *SeriesGroup) FileCount() int {
	return len(g.Records)
}

// Files returns member paths in scan order.
func (g *SeriesGroup) Files() []string {
	out := make([]string, len(g.Records))
	for i, r := range g.Records {
		out[i] = r.Path
	}
	return out
}

func (g *SeriesGroup) add(rec FileRecord) {
	if len(g.Records) == 0 {
		g.PatientName = rec.PatientName
		g.PatientID = rec.PatientID
		g.PatientBirthDate = rec.PatientBirthDate
		g.StudyDescription = rec.StudyDescription
		g.SeriesDescription = rec.SeriesDescription
		g.StudyDate = rec.StudyDate
		g.Modality = rec.Modality
	}
	g.Records = append(g.Records, rec)
	if rec.IsMultiFrame() {
		g.IsMultiFrame = true
	}
}

// Classification is the result of scanning a file list.
type Classification struct {
	Groups []*SeriesGroup
	// Scanned counts every candidate path, Read the ones that parsed.
	Scanned int
	Read    int
}

// Selected returns the only group when the scan found exactly one series,
// so no user choice is needed.
func (c *Classification) Selected() (*SeriesGroup, bool) {
	if len(c.Groups) != 1 {
		return nil, false
	}
	return c.Groups[0], true
}

// Classifier groups loose DICOM files into series.
type Classifier struct {
	Cache    *HeaderCache
	Progress ProgressFunc
	Log      logrus.FieldLogger
}

// NewClassifier returns a Classifier reading headers through cache.
func NewClassifier(cache *HeaderCache, log logrus.FieldLogger) *Classifier {
	return &Classifier{Cache: cache, Log: log}
}

// Classify reads every file and groups the readable ones by study and
// series UID. Unreadable files are skipped. Progress is reported from 0 to
// 100 and never decreases.
func (c *Classifier) Classify(files []string) (*Classification, error) {
	log := c.logger()
	report := MonotonicProgress(c.Progress)
	report(0)

	result := &Classification{Scanned: len(files)}
	index := make(map[SeriesKey]*SeriesGroup)

	for i, path := range files {
		rec, err := ReadFileRecord(c.Cache, path)
		if err != nil {
			log.WithField("file", path).WithError(err).Debug("skipping unreadable file")
		} else {
			key := SeriesKey{StudyUID: rec.StudyUID, SeriesUID: rec.SeriesUID}
			g, ok := index[key]
			if !ok {
				g = &SeriesGroup{Key: key}
				index[key] = g
				result.Groups = append(result.Groups, g)
			}
			g.add(rec)
			result.Read++
		}
		report((i + 1) * 100 / len(files))
	}
	report(100)

	if result.Read == 0 {
		return nil, ErrNoValidDICOM
	}

	log.WithFields(logrus.Fields{
		"scanned": result.Scanned,
		"read":    result.Read,
		"series":  len(result.Groups),
	}).Info("classified DICOM files")
	return result, nil
}

func (c *Classifier) logger() logrus.FieldLogger {
	if c.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		return l
	}
	return c.Log
}

// ProgressRange maps the 0..100 progress of one step onto [from,to] of fn,
// so several steps can share one operation's progress.
func ProgressRange(fn ProgressFunc, from, to int) ProgressFunc {
	if fn == nil {
		return nil
	}
	return func(p int) {
		fn(from + p*(to-from)/100)
	}
}

// MonotonicProgress wraps fn so only increasing percentages are forwarded.
// The first call always goes through, which resets the sink.
func MonotonicProgress(fn ProgressFunc) ProgressFunc {
	last := -1
	return func(p int) {
		if fn == nil {
			return
		}
		if p > 100 {
			p = 100
		}
		if p <= last {
			return
		}
		last = p
		fn(p)
	}
}

// SelectedSeries is one or more groups resolved for loading: their files,
// the display flip and the averaged window.
type SelectedSeries struct {
	StudyUID  string
	SeriesUID string
	Files     []string
	Records   []FileRecord

	Orientation OrientationResult
	Windowing   Windowing

	PatientName      string
	PatientID        string
	PatientBirthDate string
	Modality         string
	IsMultiFrame     bool
}

// Check returns the policy rejection for the selection, if any.
func (s *SelectedSeries) Check() error {
	if s.IsMultiFrame {
		return ErrMultiFrame
	}
	if !s.Orientation.Loadable {
		return ErrNonTransversal
	}
	return nil
}

// Select resolves the groups at the given indices into a SelectedSeries.
// Orientation comes from the first file of the first group; windowing is
// averaged over every member file. maxFiles of zero or less applies
// DefaultMaxSeriesFiles.
func (c *Classification) Select(maxFiles int, indices ...int) (*SelectedSeries, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("select series: no index given")
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxSeriesFiles
	}

	sel := &SelectedSeries{}
	for n, idx := range indices {
		if idx < 0 || idx >= len(c.Groups) {
			return nil, fmt.Errorf("select series: index %d out of range [0,%d)", idx, len(c.Groups))
		}
		g := c.Groups[idx]
		switch count := g.FileCount(); {
		case count == 0:
			return nil, fmt.Errorf("%w: series %d", ErrEmptySeries, idx)
		case count > maxFiles:
			return nil, fmt.Errorf("%w: series %d has %d files, limit %d", ErrTooManyFiles, idx, count, maxFiles)
		}
		if n == 0 {
			sel.StudyUID = g.Key.StudyUID
			sel.SeriesUID = g.Key.SeriesUID
			sel.PatientName = g.PatientName
			sel.PatientID = g.PatientID
			sel.PatientBirthDate = g.PatientBirthDate
			sel.Modality = g.Modality
		}
		sel.Records = append(sel.Records, g.Records...)
		sel.Files = append(sel.Files, g.Files()...)
		if g.IsMultiFrame {
			sel.IsMultiFrame = true
		}
	}

	sel.Orientation = ResolveOrientation(sel.Records[0].ImageOrientation)
	sel.Windowing = ResolveWindowing(sel.Records)
	return sel, nil
}
