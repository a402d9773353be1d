package dicom

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/mrsinham/rtfusion/internal/dicom/modalities"
	"github.com/mrsinham/rtfusion/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
	RTStructureSetStorage  = "1.2.840.10008.5.1.4.1.1.481.3"
	ImplementationClassUID = "1.2.826.0.1.3680043.8.498"
)

// Names of the structures drawn into a synthetic case.
const (
	ProstateROIName = "Prostate"
	LesionROIName   = "Lesion"
)

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}

func formatDS(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// overlayLabel burns text into the center of a 16-bit frame: glyphs at
// value white, scaled to about 30% of the width, with a black outline.
func overlayLabel(raw []uint16, width, height int, text string, white uint16) {
	face := basicfont.Face7x13
	baseW := font.MeasureString(face, text).Ceil()
	const baseH = 13
	if baseW == 0 {
		return
	}

	glyphs := image.NewAlpha(image.Rect(0, 0, baseW, baseH))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(baseH)},
	}
	d.DrawString(text)

	scale := math.Max(2, float64(width)*0.3/float64(baseW))
	sw, sh := int(float64(baseW)*scale), int(float64(baseH)*scale)
	scaled := image.NewAlpha(image.Rect(0, 0, sw, sh))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), glyphs, glyphs.Bounds(), draw.Over, nil)

	x0, y0 := (width-sw)/2, (height-sh)/2
	outline := max(3, sh/10)
	set := func(x, y int, v uint16) {
		if x >= 0 && x < width && y >= 0 && y < height {
			raw[y*width+x] = v
		}
	}
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			if scaled.AlphaAt(sx, sy).A == 0 {
				continue
			}
			for dy := -outline; dy <= outline; dy++ {
				for dx := -outline; dx <= outline; dx++ {
					if dx*dx+dy*dy <= outline*outline {
						set(x0+sx+dx, y0+sy+dy, 0)
					}
				}
			}
		}
	}
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			if a := scaled.AlphaAt(sx, sy).A; a > 0 {
				set(x0+sx, y0+sy, uint16(uint32(a)*uint32(white)/0xff))
			}
		}
	}
}

// CaseOptions configures GenerateCase. Zero values take the defaults noted.
type CaseOptions struct {
	OutputDir string
	Seed      int64 // 0 = derived from OutputDir

	Slices int // 16
	Width  int // 128
	Height int // 128

	// Orientation is the ImageOrientationPatient written on every slice;
	// nil means axial (1,0,0,0,1,0).
	Orientation []float64

	PatientName       string
	PatientID         string
	StudyDescription  string
	SeriesDescription string
	StudyDate         string // YYYYMMDD

	Lesions      int  // lesion ROIs after the prostate; default 1, negative for none
	NoRTStruct   bool // skip the structure set
	WithDICOMDIR bool

	Workers          int
	Quiet            bool
	ProgressCallback func(current, total int)
}

// GeneratedFile describes one file written by GenerateCase.
type GeneratedFile struct {
	Path              string
	StudyUID          string
	SeriesUID         string
	SOPInstanceUID    string
	SOPClassUID       string
	PatientID         string
	PatientName       string
	StudyDate         string
	StudyDescription  string
	SeriesDescription string
	Modality          string
	InstanceNumber    int
}

// Case is a synthetic prostate MR case on disk.
type Case struct {
	Dir      string
	Series   []GeneratedFile // slices, in acquisition order
	RTStruct *GeneratedFile
	DICOMDIR string

	// ContourCounts gives, per ROI in RT-Struct order, how many slices
	// carry a contour.
	ContourCounts []int
}

// Files returns every file of the case, slices first.
func (c *Case) Files() []string {
	out := make([]string, 0, len(c.Series)+2)
	for _, f := range c.Series {
		out = append(out, f.Path)
	}
	if c.RTStruct != nil {
		out = append(out, c.RTStruct.Path)
	}
	if c.DICOMDIR != "" {
		out = append(out, c.DICOMDIR)
	}
	return out
}

// slicePlane is the patient-space frame of one generated slice.
type slicePlane struct {
	position [3]float64
	row, col [3]float64
}

// at returns the patient position of pixel (x, y), fractional allowed.
func (p slicePlane) at(x, y, spacing float64) [3]float64 {
	var out [3]float64
	for i := range out {
		out[i] = p.position[i] + x*spacing*p.row[i] + y*spacing*p.col[i]
	}
	return out
}

type sliceTask struct {
	index    int
	sop      string
	path     string
	label    string
	seed     uint64
	width    int
	height   int
	metadata []*dicom.Element
	pixels   modalities.PixelConfig
	plane    slicePlane
	spacing  float64
	rois     []roiShape
}

// roiShape is a disc per slice: radius in mm around a center given in pixel
// coordinates.
type roiShape struct {
	cx, cy float64
	radius []float64 // per slice; 0 = absent
	boost  float64
}

// GenerateCase writes a synthetic case: one MR series, a structure set with
// a prostate ROI and opts.Lesions lesion ROIs whose contours reference the
// slices, and optionally a DICOMDIR. Output is deterministic for a given
// seed and output directory.
func GenerateCase(opts CaseOptions) (*Case, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Slices == 0 {
		opts.Slices = 16
	}
	if opts.Slices < 0 {
		return nil, fmt.Errorf("number of slices must be > 0, got %d", opts.Slices)
	}
	if opts.Width == 0 {
		opts.Width = 128
	}
	if opts.Height == 0 {
		opts.Height = 128
	}
	if opts.Orientation == nil {
		opts.Orientation = []float64{1, 0, 0, 0, 1, 0}
	}
	if len(opts.Orientation) != 6 {
		return nil, fmt.Errorf("orientation needs 6 cosines, got %d", len(opts.Orientation))
	}
	if opts.Lesions == 0 {
		opts.Lesions = 1
	}
	if opts.Lesions < 0 {
		opts.Lesions = 0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(opts.OutputDir))
		seed = int64(h.Sum64())
	}
	rng := randv2.New(randv2.NewPCG(uint64(seed), uint64(seed)))
	uid := func(parts ...any) string {
		return util.GenerateDeterministicUID(fmt.Sprintf("%s_%d_%v", opts.OutputDir, seed, parts))
	}

	gen := modalities.GetGenerator(modalities.MR)
	scanners := gen.Scanners()
	scanner := scanners[rng.IntN(len(scanners))]
	params := gen.GenerateSeriesParams(scanner, rng)
	pixelCfg := gen.PixelConfig()

	if opts.PatientName == "" {
		opts.PatientName = util.PatientName(rng)
	}
	if opts.PatientID == "" {
		opts.PatientID = fmt.Sprintf("PID%06d", rng.IntN(900000)+100000)
	}
	if opts.StudyDate == "" {
		opts.StudyDate = fmt.Sprintf("%04d%02d%02d", rng.IntN(5)+2020, rng.IntN(12)+1, rng.IntN(28)+1)
	}
	if opts.StudyDescription == "" {
		opts.StudyDescription = "PROSTATE MR"
	}
	if opts.SeriesDescription == "" {
		opts.SeriesDescription = params.SequenceName
	}

	studyUID := uid("study")
	seriesUID := uid("series")
	frameUID := uid("frame")

	row := [3]float64{opts.Orientation[0], opts.Orientation[1], opts.Orientation[2]}
	col := [3]float64{opts.Orientation[3], opts.Orientation[4], opts.Orientation[5]}
	normal := [3]float64{
		row[1]*col[2] - row[2]*col[1],
		row[2]*col[0] - row[0]*col[2],
		row[0]*col[1] - row[1]*col[0],
	}
	orientation := make([]string, 6)
	for i, v := range opts.Orientation {
		orientation[i] = formatDS(v)
	}

	rois := caseShapes(opts, params.PixelSpacing, rng)

	c := &Case{Dir: opts.OutputDir}
	tasks := make([]sliceTask, opts.Slices)
	for i := 0; i < opts.Slices; i++ {
		var plane slicePlane
		plane.row, plane.col = row, col
		halfW := float64(opts.Width) / 2 * params.PixelSpacing
		halfH := float64(opts.Height) / 2 * params.PixelSpacing
		for k := 0; k < 3; k++ {
			plane.position[k] = -halfW*row[k] - halfH*col[k] + (-60+float64(i)*params.SpacingBetweenSlices)*normal[k]
		}

		sop := uid("slice", i)
		meta := []*dicom.Element{
			mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
			mustNewElement(tag.MediaStorageSOPClassUID, []string{gen.SOPClassUID()}),
			mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sop}),
			mustNewElement(tag.PatientName, []string{opts.PatientName}),
			mustNewElement(tag.PatientID, []string{opts.PatientID}),
			mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
			mustNewElement(tag.StudyDate, []string{opts.StudyDate}),
			mustNewElement(tag.StudyDescription, []string{opts.StudyDescription}),
			mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
			mustNewElement(tag.SeriesNumber, []string{"1"}),
			mustNewElement(tag.SeriesDescription, []string{opts.SeriesDescription}),
			mustNewElement(tag.Modality, []string{string(gen.Modality())}),
			mustNewElement(tag.SOPInstanceUID, []string{sop}),
			mustNewElement(tag.SOPClassUID, []string{gen.SOPClassUID()}),
			mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(i + 1)}),
			mustNewElement(tag.PixelSpacing, []string{formatDS(params.PixelSpacing), formatDS(params.PixelSpacing)}),
			mustNewElement(tag.SliceThickness, []string{formatDS(params.SliceThickness)}),
			mustNewElement(tag.SpacingBetweenSlices, []string{formatDS(params.SpacingBetweenSlices)}),
			mustNewElement(tag.Manufacturer, []string{scanner.Manufacturer}),
			mustNewElement(tag.ManufacturerModelName, []string{scanner.Model}),
			mustNewElement(tag.WindowCenter, []string{fmt.Sprintf("%.1f", params.WindowCenter)}),
			mustNewElement(tag.WindowWidth, []string{fmt.Sprintf("%.1f", params.WindowWidth)}),
			mustNewElement(tag.ImagePositionPatient, []string{formatDS(plane.position[0]), formatDS(plane.position[1]), formatDS(plane.position[2])}),
			mustNewElement(tag.ImageOrientationPatient, orientation),
			mustNewElement(tag.FrameOfReferenceUID, []string{frameUID}),
			mustNewElement(tag.Rows, []int{opts.Height}),
			mustNewElement(tag.Columns, []int{opts.Width}),
			mustNewElement(tag.BitsAllocated, []int{int(pixelCfg.BitsAllocated)}),
			mustNewElement(tag.BitsStored, []int{int(pixelCfg.BitsStored)}),
			mustNewElement(tag.HighBit, []int{int(pixelCfg.HighBit)}),
			mustNewElement(tag.PixelRepresentation, []int{int(pixelCfg.PixelRepresentation)}),
			mustNewElement(tag.SamplesPerPixel, []int{1}),
			mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
			mustNewElement(tag.BodyPartExamined, []string{"PROSTATE"}),
		}
		dsMeta := &dicom.Dataset{Elements: meta}
		if err := gen.AppendModalityElements(dsMeta, params); err != nil {
			return nil, fmt.Errorf("add modality elements for slice %d: %w", i, err)
		}

		h := fnv.New64a()
		_, _ = fmt.Fprintf(h, "%d_pixel_%d", seed, i)

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("IMG%04d.dcm", i+1))
		tasks[i] = sliceTask{
			index:    i,
			sop:      sop,
			path:     path,
			label:    fmt.Sprintf("%d/%d", i+1, opts.Slices),
			seed:     h.Sum64(),
			width:    opts.Width,
			height:   opts.Height,
			metadata: dsMeta.Elements,
			pixels:   pixelCfg,
			plane:    plane,
			spacing:  params.PixelSpacing,
			rois:     rois,
		}
		c.Series = append(c.Series, GeneratedFile{
			Path:              path,
			StudyUID:          studyUID,
			SeriesUID:         seriesUID,
			SOPInstanceUID:    sop,
			SOPClassUID:       gen.SOPClassUID(),
			PatientID:         opts.PatientID,
			PatientName:       opts.PatientName,
			StudyDate:         opts.StudyDate,
			StudyDescription:  opts.StudyDescription,
			SeriesDescription: opts.SeriesDescription,
			Modality:          string(gen.Modality()),
			InstanceNumber:    i + 1,
		})
	}

	if !opts.Quiet {
		fmt.Printf("Generating %d slices (%dx%d, %s %s)...\n", opts.Slices, opts.Width, opts.Height, scanner.Manufacturer, scanner.Model)
	}
	if err := runSliceTasks(tasks, opts.Workers, opts.ProgressCallback); err != nil {
		return nil, err
	}

	if !opts.NoRTStruct {
		rt, counts, err := writeStructureSet(opts, tasks, rois, c.Series[0], uid)
		if err != nil {
			return nil, err
		}
		c.RTStruct = rt
		c.ContourCounts = counts
	}

	if opts.WithDICOMDIR {
		all := append([]GeneratedFile(nil), c.Series...)
		if c.RTStruct != nil {
			all = append(all, *c.RTStruct)
		}
		if err := WriteDICOMDIR(opts.OutputDir, all, opts.Quiet); err != nil {
			return nil, err
		}
		// WriteDICOMDIR moved the files; re-read their new locations.
		series, err := ReadDICOMDIR(filepath.Join(opts.OutputDir, DICOMDIRName))
		if err != nil {
			return nil, fmt.Errorf("read back DICOMDIR: %w", err)
		}
		moved := DirFiles(series)
		if len(moved) != len(c.Series) {
			return nil, fmt.Errorf("DICOMDIR lists %d images, wrote %d", len(moved), len(c.Series))
		}
		for i := range c.Series {
			c.Series[i].Path = moved[i]
		}
		if c.RTStruct != nil {
			c.RTStruct.Path = filepath.Join(opts.OutputDir, "PT000000", "ST000000", "SE000001", "IM000001")
		}
		c.DICOMDIR = filepath.Join(opts.OutputDir, DICOMDIRName)
	}

	if !opts.Quiet {
		fmt.Printf("✓ synthetic case written to %s/\n", opts.OutputDir)
	}
	return c, nil
}

// caseShapes places a prostate disc spanning the middle of the stack and
// lesion discs inside it on a few central slices.
func caseShapes(opts CaseOptions, spacing float64, rng *randv2.Rand) []roiShape {
	n := opts.Slices
	mid := float64(n-1) / 2
	half := math.Max(1, float64(n)/2-1)
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	maxR := 0.3 * math.Min(float64(opts.Width), float64(opts.Height)) * spacing

	prostate := roiShape{cx: cx, cy: cy, radius: make([]float64, n), boost: 500}
	for i := 0; i < n; i++ {
		t := (float64(i) - mid) / half
		if t*t < 1 {
			prostate.radius[i] = maxR * math.Sqrt(1-t*t)
		}
	}
	shapes := []roiShape{prostate}

	for l := 0; l < opts.Lesions; l++ {
		angle := rng.Float64() * 2 * math.Pi
		off := maxR * 0.4 / spacing
		lesion := roiShape{
			cx:     cx + off*math.Cos(angle),
			cy:     cy + off*math.Sin(angle),
			radius: make([]float64, n),
			boost:  -300,
		}
		centre := int(mid) + l%3 - 1
		for i := centre - 1; i <= centre+1; i++ {
			if i >= 0 && i < n && prostate.radius[i] > 0 {
				lesion.radius[i] = math.Min(maxR*0.25, prostate.radius[i]*0.5)
			}
		}
		shapes = append(shapes, lesion)
	}
	return shapes
}

func runSliceTasks(tasks []sliceTask, workers int, progress func(current, total int)) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskChan := make(chan sliceTask, len(tasks))
	type result struct {
		index int
		err   error
	}
	resultChan := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				resultChan <- result{task.index, writeSlice(task)}
			}
		}()
	}
	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for r := range resultChan {
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("generate slice %d: %w", r.index, r.err)
		}
		completed++
		if progress != nil {
			progress(completed, len(tasks))
		}
	}
	return firstErr
}

func writeSlice(task sliceTask) error {
	width, height := task.width, task.height
	cfg := task.pixels
	rng := randv2.New(randv2.NewPCG(task.seed, task.seed))

	valueRange := float64(cfg.MaxValue - cfg.MinValue)
	centerX, centerY := float64(width)/2, float64(height)/2
	maxDist := math.Hypot(centerX, centerY)
	maxVal := float64(int(1)<<cfg.BitsStored - 1)

	nativeFrame := frame.NewNativeFrame[uint16](16, height, width, width*height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dist := math.Hypot(float64(x)-centerX, float64(y)-centerY)
			intensity := float64(cfg.BaseValue) + (1-dist/maxDist)*valueRange*0.1
			intensity += (rng.Float64() - 0.5) * valueRange * 0.05
			for _, r := range task.rois {
				rad := r.radius[task.index] / task.spacing
				if rad > 0 && math.Hypot(float64(x)-r.cx, float64(y)-r.cy) <= rad {
					intensity += r.boost
				}
			}
			nativeFrame.RawData[y*width+x] = uint16(math.Max(0, math.Min(maxVal, intensity)))
		}
	}
	overlayLabel(nativeFrame.RawData, width, height, task.label, uint16(maxVal))

	pixelData := dicom.PixelDataInfo{Frames: []*frame.Frame{{Encapsulated: false, NativeData: nativeFrame}}}
	elements := append(append([]*dicom.Element{}, task.metadata...), mustNewElement(tag.PixelData, pixelData))
	return writeDatasetToFile(task.path, dicom.Dataset{Elements: elements})
}

// contourPoints samples a closed circle of radius mm around pixel (cx, cy)
// on plane as flat x,y,z triplets.
func contourPoints(plane slicePlane, spacing, cx, cy, radius float64, n int) []string {
	out := make([]string, 0, n*3)
	for k := 0; k < n; k++ {
		a := 2 * math.Pi * float64(k) / float64(n)
		p := plane.at(cx+radius/spacing*math.Cos(a), cy+radius/spacing*math.Sin(a), spacing)
		out = append(out, formatDS(p[0]), formatDS(p[1]), formatDS(p[2]))
	}
	return out
}

func writeStructureSet(opts CaseOptions, tasks []sliceTask, rois []roiShape, ref GeneratedFile, uid func(...any) string) (*GeneratedFile, []int, error) {
	var setROIs, roiContours [][]*dicom.Element
	counts := make([]int, len(rois))

	for r, shape := range rois {
		name := ProstateROIName
		if r > 0 {
			name = LesionROIName
			if len(rois) > 2 {
				name = fmt.Sprintf("%s %d", LesionROIName, r)
			}
		}
		number := strconv.Itoa(r + 1)
		setROIs = append(setROIs, []*dicom.Element{
			mustNewElement(tag.ROINumber, []string{number}),
			mustNewElement(tag.ReferencedFrameOfReferenceUID, []string{uid("frame")}),
			mustNewElement(tag.ROIName, []string{name}),
			mustNewElement(tag.ROIGenerationAlgorithm, []string{"MANUAL"}),
		})

		points := 64
		if r > 0 {
			points = 24
		}
		var contours [][]*dicom.Element
		for _, task := range tasks {
			radius := shape.radius[task.index]
			if radius <= 0 {
				continue
			}
			imageRef := []*dicom.Element{
				mustNewElement(tag.ReferencedSOPClassUID, []string{ref.SOPClassUID}),
				mustNewElement(tag.ReferencedSOPInstanceUID, []string{task.sop}),
			}
			contours = append(contours, []*dicom.Element{
				mustNewElement(tag.ContourImageSequence, [][]*dicom.Element{imageRef}),
				mustNewElement(tag.ContourGeometricType, []string{"CLOSED_PLANAR"}),
				mustNewElement(tag.NumberOfContourPoints, []string{strconv.Itoa(points)}),
				mustNewElement(tag.ContourData, contourPoints(task.plane, task.spacing, shape.cx, shape.cy, radius, points)),
			})
			counts[r]++
		}

		item := []*dicom.Element{mustNewElement(tag.ROIDisplayColor, []string{"255", "0", "0"})}
		if len(contours) > 0 {
			item = append(item, mustNewElement(tag.ContourSequence, contours))
		}
		item = append(item, mustNewElement(tag.ReferencedROINumber, []string{number}))
		roiContours = append(roiContours, item)
	}

	sop := uid("rtstruct")
	path := filepath.Join(opts.OutputDir, "RTSTRUCT.dcm")
	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{RTStructureSetStorage}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sop}),
		mustNewElement(tag.SOPClassUID, []string{RTStructureSetStorage}),
		mustNewElement(tag.SOPInstanceUID, []string{sop}),
		mustNewElement(tag.StudyDate, []string{ref.StudyDate}),
		mustNewElement(tag.Modality, []string{string(modalities.RTSTRUCT)}),
		mustNewElement(tag.PatientName, []string{ref.PatientName}),
		mustNewElement(tag.PatientID, []string{ref.PatientID}),
		mustNewElement(tag.StudyInstanceUID, []string{ref.StudyUID}),
		mustNewElement(tag.SeriesInstanceUID, []string{uid("rtstruct-series")}),
		mustNewElement(tag.StructureSetLabel, []string{"SYNTH"}),
		mustNewElement(tag.StructureSetROISequence, setROIs),
		mustNewElement(tag.ROIContourSequence, roiContours),
	}
	if err := writeDatasetToFile(path, dicom.Dataset{Elements: elements}); err != nil {
		return nil, nil, fmt.Errorf("write structure set: %w", err)
	}

	return &GeneratedFile{
		Path:              path,
		StudyUID:          ref.StudyUID,
		SeriesUID:         uid("rtstruct-series"),
		SOPInstanceUID:    sop,
		SOPClassUID:       RTStructureSetStorage,
		PatientID:         ref.PatientID,
		PatientName:       ref.PatientName,
		StudyDate:         ref.StudyDate,
		StudyDescription:  ref.StudyDescription,
		SeriesDescription: "RTSTRUCT",
		Modality:          string(modalities.RTSTRUCT),
		InstanceNumber:    1,
	}, counts, nil
}
