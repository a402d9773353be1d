// Package session holds the state of one import: the staged files, the
// series classification and selection, the loaded structure set and the
// curve model built from it.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mrsinham/rtfusion/internal/config"
	"github.com/mrsinham/rtfusion/internal/convert"
	"github.com/mrsinham/rtfusion/internal/curve"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
	"github.com/mrsinham/rtfusion/internal/dicom/modalities"
	"github.com/mrsinham/rtfusion/internal/rtstruct"
)

// ErrNoSeries is returned when an operation needs a selected series.
var ErrNoSeries = errors.New("no series selected")

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	Progress  dcm.ProgressFunc
	Decryptor dcm.Decryptor
	Password  string
}

// Session is one import. It is not safe for concurrent use.
type Session struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	progress  dcm.ProgressFunc
	decryptor dcm.Decryptor
	password  string

	cache   *dcm.HeaderCache
	staging *dcm.Staging

	classification *dcm.Classification
	structureSets  []string
	selection      *dcm.SelectedSeries
	stack          *dcm.ImageStack

	rt     *rtstruct.Document
	model  *curve.Model
	report *convert.Report
}

// New returns an empty session.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Log
	if log == nil {
		l, err := cfg.Logging.NewLogger(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		log = l
	}
	cache, err := dcm.NewHeaderCache(cfg.Import.HeaderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create header cache: %w", err)
	}
	return &Session{
		cfg:       cfg,
		log:       log,
		progress:  opts.Progress,
		decryptor: opts.Decryptor,
		password:  opts.Password,
		cache:     cache,
	}, nil
}

// Load stages files and classifies them. When files include a DICOMDIR,
// only the images it indexes are loaded. Structure set files are set aside
// for LoadRTStruct instead of being offered as series. A previous load is
// discarded first.
func (s *Session) Load(files []string) (*dcm.Classification, error) {
	s.reset()

	if dir, ok := dcm.FindDICOMDIR(files); ok {
		series, err := dcm.ReadDICOMDIR(dir)
		if err != nil {
			return nil, err
		}
		files = dcm.DirFiles(series)
		s.log.WithFields(logrus.Fields{"dicomdir": dir, "series": len(series), "files": len(files)}).Info("using DICOMDIR")
	}

	// Staging reports 0..StageProgressSpan, classification the rest.
	report := dcm.MonotonicProgress(s.progress)
	opts := s.stageOptions()
	opts.Progress = report
	st, err := dcm.Stage(files, opts)
	if err != nil {
		return nil, err
	}
	s.staging = st

	cl := dcm.NewClassifier(s.cache, s.log)
	cl.Progress = dcm.ProgressRange(report, dcm.StageProgressSpan, 100)
	c, err := cl.Classify(st.Files)
	if err != nil {
		s.reset()
		return nil, err
	}
	s.structureSets = splitStructureSets(c)
	if len(c.Groups) == 0 {
		s.reset()
		return nil, fmt.Errorf("%w: only structure sets found", dcm.ErrNoValidDICOM)
	}
	s.classification = c
	return c, nil
}

// splitStructureSets removes RT structure set groups from c and returns
// their files.
func splitStructureSets(c *dcm.Classification) []string {
	var rt []string
	kept := c.Groups[:0]
	for _, g := range c.Groups {
		if modalities.IsStructureSet(g.Modality) {
			rt = append(rt, g.Files()...)
			c.Read -= g.FileCount()
			continue
		}
		kept = append(kept, g)
	}
	c.Groups = kept
	return rt
}

// Classification returns the result of the last Load.
func (s *Session) Classification() *dcm.Classification { return s.classification }

// StructureSets returns the staged structure set files found by Load.
func (s *Session) StructureSets() []string { return s.structureSets }

// Select resolves the series at the given classification indices and
// builds the image stack. Policy rejections (multi-frame, non-transversal)
// are returned together with the selection so the caller can report them;
// no stack is built in that case. A single series without a usable window
// gets one from its pixel range.
func (s *Session) Select(indices ...int) (*dcm.SelectedSeries, error) {
	if s.classification == nil {
		return nil, ErrNoSeries
	}
	s.selection, s.stack = nil, nil

	sel, err := s.classification.Select(s.cfg.Import.MaxSeriesFiles, indices...)
	if err != nil {
		return nil, err
	}
	if err := sel.Check(); err != nil {
		return sel, err
	}
	if len(indices) == 1 && sel.Windowing.Unknown() {
		sel.Windowing = sel.Windowing.FromPixelRange()
	}

	stack, err := dcm.NewImageStack(s.cache, sel.Files, sel.Orientation.Flip, s.log)
	if err != nil {
		return nil, fmt.Errorf("build image stack: %w", err)
	}
	s.selection, s.stack = sel, stack

	s.log.WithFields(logrus.Fields{
		"series_uid": sel.SeriesUID,
		"files":      len(sel.Files),
		"flip":       sel.Orientation.Flip.String(),
		"center":     sel.Windowing.Center,
		"width":      sel.Windowing.Width,
	}).Info("series selected")
	return sel, nil
}

// Selection returns the selected series, nil before Select.
func (s *Session) Selection() *dcm.SelectedSeries { return s.selection }

// Stack returns the image stack of the selected series.
func (s *Session) Stack() *dcm.ImageStack { return s.stack }

// LoadRTStruct parses the structure set at path, decrypting a copy first
// when the session has a password.
func (s *Session) LoadRTStruct(path string) (*rtstruct.Document, error) {
	opts := s.stageOptions()
	opts.Progress = nil
	st, err := dcm.Stage([]string{path}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	doc, err := rtstruct.ParseFile(st.Files[0])
	if err != nil {
		return nil, err
	}
	s.rt = doc
	s.log.WithFields(logrus.Fields{"file": path, "rois": len(doc.ROIs), "skipped": doc.Skipped}).Info("structure set loaded")
	return doc, nil
}

// RTStruct returns the loaded structure set.
func (s *Session) RTStruct() *rtstruct.Document { return s.rt }

// ConvertRTContoursToModel converts the loaded structure set into a new
// curve model placed in the selected series.
func (s *Session) ConvertRTContoursToModel() (*curve.Model, *convert.Report, error) {
	if s.rt == nil {
		return nil, nil, convert.ErrNoRTStruct
	}
	if s.stack == nil {
		return nil, nil, ErrNoSeries
	}
	model := curve.NewModel(nil)
	report, err := convert.Convert(s.rt, s.stack, model, convert.Options{
		Thresholds: s.cfg.Convert.Thresholds,
		Log:        s.log,
	})
	if err != nil {
		return nil, nil, err
	}
	s.model, s.report = model, report
	return model, report, nil
}

// Model returns the last converted model.
func (s *Session) Model() *curve.Model { return s.model }

// Close removes the staged files.
func (s *Session) Close() error {
	err := s.staging.Close()
	s.staging = nil
	s.cache.Purge()
	return err
}

func (s *Session) reset() {
	if err := s.Close(); err != nil {
		s.log.WithError(err).Warn("could not remove staging directory")
	}
	s.classification = nil
	s.structureSets = nil
	s.selection = nil
	s.stack = nil
	s.rt = nil
	s.model = nil
	s.report = nil
}

func (s *Session) stageOptions() dcm.StageOptions {
	return dcm.StageOptions{
		Parent:    s.cfg.WorkDir,
		Password:  s.password,
		Decryptor: s.decryptor,
		Progress:  s.progress,
		Log:       s.log,
	}
}
