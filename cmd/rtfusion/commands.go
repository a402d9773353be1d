package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mrsinham/rtfusion/internal/config"
	"github.com/mrsinham/rtfusion/internal/convert"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
	"github.com/mrsinham/rtfusion/internal/export"
	"github.com/mrsinham/rtfusion/internal/session"
)

// commonFlags are shared by every command that reads DICOM files.
type commonFlags struct {
	configFile string
	logLevel   string
	quiet      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&c.logLevel, "log-level", "", "Override logging.level")
	fs.BoolVar(&c.quiet, "quiet", false, "Only print results")
}

// load reads the configuration and builds the logger.
func (c *commonFlags) load(stderr io.Writer) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	log, err := cfg.Logging.NewLogger(stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: --log-level: %v", errUsage, err)
	}
	return cfg, log, nil
}

func (c *commonFlags) printf(w io.Writer, format string, args ...any) {
	if !c.quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// selectFlags pick the series to load.
type selectFlags struct {
	series      int
	interactive bool
}

func (s *selectFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&s.series, "series", -1, "Index of the series to load")
	fs.BoolVar(&s.interactive, "interactive", false, "Pick the series from a list")
	fs.BoolVar(&s.interactive, "i", false, "Pick the series from a list (shortcut)")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// expandInputs replaces directories by the regular files below them, in
// lexical order.
func expandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no input file or directory", errUsage)
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func openSession(common *commonFlags, stdout, stderr io.Writer) (*session.Session, *config.Config, error) {
	cfg, log, err := common.load(stderr)
	if err != nil {
		return nil, nil, err
	}
	var progress dcm.ProgressFunc
	if !common.quiet {
		progress = func(p int) {
			if p == 100 {
				fmt.Fprintf(stdout, "\r  %3d%%\n", p)
				return
			}
			fmt.Fprintf(stdout, "\r  %3d%%", p)
		}
	}
	s, err := session.New(session.Options{Config: cfg, Log: log, Progress: progress})
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func runScan(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("scan", stderr)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "table", "Output format: table, csv, json, yaml")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *format != "table" && !export.ValidFormat(*format) {
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	files, err := expandInputs(fs.Args())
	if err != nil {
		return err
	}

	s, _, err := openSession(&common, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	common.printf(stdout, "Scanning %d files...\n", len(files))
	c, err := s.Load(files)
	if err != nil {
		return err
	}

	if *format != "table" {
		return export.WriteSeries(stdout, c.Rows(), *format)
	}
	fmt.Fprintln(stdout, seriesTable(c.Rows()))
	common.printf(stdout, "✓ %d of %d files read, %d series, %d structure set(s)\n",
		c.Read, c.Scanned, len(c.Groups), len(s.StructureSets()))
	return nil
}

// loadSeries loads the inputs and selects a series, prompting when asked
// to and more than one series is available.
func loadSeries(s *session.Session, files []string, sel selectFlags, common *commonFlags, stdout io.Writer) (*dcm.SelectedSeries, error) {
	common.printf(stdout, "Scanning %d files...\n", len(files))
	c, err := s.Load(files)
	if err != nil {
		return nil, err
	}

	index := sel.series
	if index < 0 {
		switch {
		case len(c.Groups) == 1:
			index = 0
		case sel.interactive:
			if index, err = promptSeries(c.Rows()); err != nil {
				return nil, err
			}
		default:
			fmt.Fprintln(stdout, seriesTable(c.Rows()))
			return nil, fmt.Errorf("%w: %d series found, choose one with --series", errUsage, len(c.Groups))
		}
	}
	return s.Select(index)
}

func runImport(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("import", stderr)
	var common commonFlags
	var sel selectFlags
	common.register(fs)
	sel.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	files, err := expandInputs(fs.Args())
	if err != nil {
		return err
	}

	s, _, err := openSession(&common, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	series, err := loadSeries(s, files, sel, &common, stdout)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, selectionView(series, s.Stack()))
	return nil
}

func runConvert(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("convert", stderr)
	var common commonFlags
	var sel selectFlags
	common.register(fs)
	sel.register(fs)
	rtPath := fs.String("rtstruct", "", "RT structure set file (default: the one found among the inputs)")
	format := fs.String("format", "", "Output format: yaml, json, csv (default: output.format)")
	output := fs.String("output", "", "Write the curves to this file instead of stdout")
	if err := parse(fs, args); err != nil {
		return err
	}
	files, err := expandInputs(fs.Args())
	if err != nil {
		return err
	}

	s, cfg, err := openSession(&common, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if *format == "" {
		*format = cfg.Output.Format
	}
	if !export.ValidFormat(*format) {
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}

	if _, err := loadSeries(s, files, sel, &common, stdout); err != nil {
		return err
	}

	path := *rtPath
	if path == "" {
		found := s.StructureSets()
		if len(found) == 0 {
			return convert.ErrNoRTStruct
		}
		path = found[0]
	}
	if _, err := s.LoadRTStruct(path); err != nil {
		return err
	}
	model, report, err := s.ConvertRTContoursToModel()
	if err != nil {
		return err
	}

	if !common.quiet {
		fmt.Fprintln(stdout, reportTable(report))
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := export.WriteModel(w, model, *format); err != nil {
		return err
	}
	if *output != "" {
		common.printf(stdout, "✓ curves written to %s\n", *output)
	}
	return nil
}

func runSynth(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("synth", stderr)
	outputDir := fs.String("output", "", "Output directory (required)")
	slices := fs.Int("slices", 16, "Number of slices")
	width := fs.Int("width", 128, "Image width in pixels")
	height := fs.Int("height", 128, "Image height in pixels")
	lesions := fs.Int("lesions", 1, "Number of lesion ROIs (0 for none)")
	seed := fs.Int64("seed", 0, "Seed for reproducibility (derived from --output if not set)")
	orientation := fs.String("orientation", "axial", "Slice orientation: axial, sagittal, coronal")
	withDICOMDIR := fs.Bool("dicomdir", false, "Organize the files under a DICOMDIR")
	noRTStruct := fs.Bool("no-rtstruct", false, "Do not write a structure set")
	patientName := fs.String("patient-name", "", "Patient name (DICOM PN, e.g. DOE^JANE)")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))
	quiet := fs.Bool("quiet", false, "Only print the output directory")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *outputDir == "" {
		return fmt.Errorf("%w: --output is required", errUsage)
	}
	if *slices <= 0 || *width <= 0 || *height <= 0 {
		return fmt.Errorf("%w: --slices, --width and --height must be > 0", errUsage)
	}
	cosines, ok := orientations[strings.ToLower(*orientation)]
	if !ok {
		return fmt.Errorf("%w: unknown orientation %q", errUsage, *orientation)
	}
	lesionCount := *lesions
	if lesionCount == 0 {
		lesionCount = -1
	}

	c, err := dcm.GenerateCase(dcm.CaseOptions{
		OutputDir:    *outputDir,
		Seed:         *seed,
		Slices:       *slices,
		Width:        *width,
		Height:       *height,
		Orientation:  cosines,
		PatientName:  *patientName,
		Lesions:      lesionCount,
		NoRTStruct:   *noRTStruct,
		WithDICOMDIR: *withDICOMDIR,
		Workers:      *workers,
		Quiet:        true,
	})
	if err != nil {
		return err
	}

	if *quiet {
		fmt.Fprintln(stdout, c.Dir)
		return nil
	}
	fmt.Fprintln(stdout, TitleStyle.Render("rtfusion synth"))
	fmt.Fprintf(stdout, "✓ %d slices written to %s/\n", len(c.Series), c.Dir)
	if c.RTStruct != nil {
		fmt.Fprintf(stdout, "✓ structure set: %s (%d ROIs)\n", c.RTStruct.Path, len(c.ContourCounts))
	}
	if c.DICOMDIR != "" {
		fmt.Fprintf(stdout, "✓ DICOMDIR: %s\n", c.DICOMDIR)
	}
	return nil
}

var orientations = map[string][]float64{
	"axial":    {1, 0, 0, 0, 1, 0},
	"sagittal": {0, 1, 0, 0, 0, -1},
	"coronal":  {1, 0, 0, 0, 0, -1},
}

// describe turns policy rejections into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, dcm.ErrMultiFrame):
		return "the selected series is multi-frame, only single-frame series can be imported"
	case errors.Is(err, dcm.ErrNonTransversal):
		return "the selected series is not a transversal (axial) acquisition"
	case errors.Is(err, convert.ErrNoRTStruct):
		return "no RT structure set found, pass one with --rtstruct"
	default:
		return err.Error()
	}
}
