package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MediaStorageDirectoryStorage is the SOP class of a DICOMDIR file.
const MediaStorageDirectoryStorage = "1.2.840.10008.1.3.10"

// DICOMDIRName is the file name of a media index.
const DICOMDIRName = "DICOMDIR"

// ErrInvalidDICOMDIR is returned when a file is not a usable DICOMDIR.
var ErrInvalidDICOMDIR = errors.New("invalid DICOMDIR")

var (
	tagMediaStorageSOPClassUID    = tag.Tag{Group: 0x0002, Element: 0x0002}
	tagFileMetaInformationVersion = tag.Tag{Group: 0x0002, Element: 0x0001}
	tagDirectoryRecordSequence    = tag.Tag{Group: 0x0004, Element: 0x1220}
	tagDirectoryRecordType        = tag.Tag{Group: 0x0004, Element: 0x1430}
	tagReferencedFileID           = tag.Tag{Group: 0x0004, Element: 0x1500}
)

// Directory record levels, in hierarchy order.
const (
	recordPatient = "PATIENT"
	recordStudy   = "STUDY"
	recordSeries  = "SERIES"
	recordImage   = "IMAGE"
)

// DirSeries is one series listed in a DICOMDIR with the absolute paths of
// its image files.
type DirSeries struct {
	PatientName       string
	StudyUID          string
	StudyDate         string
	StudyDescription  string
	SeriesUID         string
	SeriesDescription string
	Modality          string
	Files             []string
}

// FindDICOMDIR returns the first path in files named DICOMDIR.
func FindDICOMDIR(files []string) (string, bool) {
	for _, f := range files {
		if strings.EqualFold(filepath.Base(f), DICOMDIRName) {
			return f, true
		}
	}
	return "", false
}

// DirFiles flattens the image paths of every series, in index order.
func DirFiles(series []DirSeries) []string {
	var out []string
	for _, s := range series {
		out = append(out, s.Files...)
	}
	return out
}

// ReadDICOMDIR parses a DICOMDIR and returns the series it indexes. Only
// IMAGE records reached through PATIENT, STUDY and SERIES records contribute
// files; a record outside that chain is skipped along with its children.
// A wrong media storage class or meta information version fails the parse.
func ReadDICOMDIR(path string) ([]DirSeries, error) {
	ds, err := SafeParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDICOMDIR, err)
	}

	sopClass, ok := Lookup(ds.Elements, tagMediaStorageSOPClassUID)
	if !ok {
		return nil, fmt.Errorf("%w: missing media storage SOP class", ErrInvalidDICOMDIR)
	}
	if got := strings.TrimSpace(String(sopClass)); got != MediaStorageDirectoryStorage {
		return nil, fmt.Errorf("%w: media storage SOP class %q", ErrInvalidDICOMDIR, got)
	}
	if v, ok := Lookup(ds.Elements, tagFileMetaInformationVersion); ok {
		if b, isBytes := v.Value.GetValue().([]byte); isBytes && len(b) > 0 && !bytes.Equal(b, []byte{0x00, 0x01}) {
			return nil, fmt.Errorf("%w: meta information version %v", ErrInvalidDICOMDIR, b)
		}
	}

	seq, ok := Lookup(ds.Elements, tagDirectoryRecordSequence)
	if !ok {
		return nil, nil
	}

	base := filepath.Dir(path)
	w := dirWalker{base: base}
	for _, rec := range SequenceItems(seq) {
		w.visit(rec)
	}
	w.flush()
	return w.series, nil
}

// dirWalker tracks the current PATIENT/STUDY/SERIES chain while visiting
// records in sequence order.
type dirWalker struct {
	base string

	patientName string
	inPatient   bool
	study       *DirSeries
	current     *DirSeries
	series      []DirSeries
}

func (w *dirWalker) visit(rec []*dicom.Element) {
	text := func(t tag.Tag) string {
		e, ok := Lookup(rec, t)
		if !ok {
			return ""
		}
		return strings.TrimSpace(String(e))
	}

	switch strings.TrimSpace(text(tagDirectoryRecordType)) {
	case recordPatient:
		w.flush()
		w.inPatient = true
		w.patientName = text(tag.PatientName)
		w.study = nil
	case recordStudy:
		w.flush()
		w.study = nil
		if !w.inPatient {
			return
		}
		w.study = &DirSeries{
			PatientName:      w.patientName,
			StudyUID:         text(tag.StudyInstanceUID),
			StudyDate:        text(tag.StudyDate),
			StudyDescription: text(tag.StudyDescription),
		}
	case recordSeries:
		w.flush()
		if w.study == nil {
			return
		}
		s := *w.study
		s.SeriesUID = text(tag.SeriesInstanceUID)
		s.SeriesDescription = text(tag.SeriesDescription)
		s.Modality = text(tag.Modality)
		s.Files = nil
		w.current = &s
	case recordImage:
		if w.current == nil {
			return
		}
		e, ok := Lookup(rec, tagReferencedFileID)
		if !ok {
			return
		}
		parts := []string{w.base}
		for _, p := range Strings(e) {
			for _, q := range strings.Split(p, `\`) {
				if q = strings.TrimSpace(q); q != "" {
					parts = append(parts, q)
				}
			}
		}
		if len(parts) == 1 {
			return
		}
		w.current.Files = append(w.current.Files, filepath.Join(parts...))
	}
}

func (w *dirWalker) flush() {
	if w.current != nil && len(w.current.Files) > 0 {
		w.series = append(w.series, *w.current)
	}
	w.current = nil
}

// WriteDICOMDIR moves files into a PT*/ST*/SE* hierarchy under outputDir and
// writes a DICOMDIR indexing them. Image storage instances get IMAGE
// records; RT Structure Sets get RT STRUCTURE records.
func WriteDICOMDIR(outputDir string, files []GeneratedFile, quiet bool) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to organize")
	}

	type seriesGroup struct {
		first GeneratedFile
		files []GeneratedFile
	}
	type studyGroup struct {
		first  GeneratedFile
		series []*seriesGroup
		byUID  map[string]*seriesGroup
	}
	type patientGroup struct {
		first   GeneratedFile
		studies []*studyGroup
		byUID   map[string]*studyGroup
	}

	var patients []*patientGroup
	byPatient := make(map[string]*patientGroup)
	for _, f := range files {
		p, ok := byPatient[f.PatientID]
		if !ok {
			p = &patientGroup{first: f, byUID: make(map[string]*studyGroup)}
			byPatient[f.PatientID] = p
			patients = append(patients, p)
		}
		st, ok := p.byUID[f.StudyUID]
		if !ok {
			st = &studyGroup{first: f, byUID: make(map[string]*seriesGroup)}
			p.byUID[f.StudyUID] = st
			p.studies = append(p.studies, st)
		}
		se, ok := st.byUID[f.SeriesUID]
		if !ok {
			se = &seriesGroup{first: f}
			st.byUID[f.SeriesUID] = se
			st.series = append(st.series, se)
		}
		se.files = append(se.files, f)
	}

	var records [][]*dicom.Element
	var levels []int
	for pi, p := range patients {
		records = append(records, directoryRecord(recordPatient,
			mustNewElement(tag.PatientName, []string{p.first.PatientName}),
			mustNewElement(tag.PatientID, []string{p.first.PatientID}),
		))
		levels = append(levels, 0)

		for sti, st := range p.studies {
			records = append(records, directoryRecord(recordStudy,
				mustNewElement(tag.StudyDate, []string{st.first.StudyDate}),
				mustNewElement(tag.StudyDescription, []string{st.first.StudyDescription}),
				mustNewElement(tag.StudyInstanceUID, []string{st.first.StudyUID}),
			))
			levels = append(levels, 1)

			for sei, se := range st.series {
				records = append(records, directoryRecord(recordSeries,
					mustNewElement(tag.Modality, []string{se.first.Modality}),
					mustNewElement(tag.SeriesDescription, []string{se.first.SeriesDescription}),
					mustNewElement(tag.SeriesInstanceUID, []string{se.first.SeriesUID}),
				))
				levels = append(levels, 2)

				rel := []string{fmt.Sprintf("PT%06d", pi), fmt.Sprintf("ST%06d", sti), fmt.Sprintf("SE%06d", sei)}
				if err := os.MkdirAll(filepath.Join(append([]string{outputDir}, rel...)...), 0755); err != nil {
					return fmt.Errorf("create series directory: %w", err)
				}

				for ii, f := range se.files {
					fileID := append(append([]string{}, rel...), fmt.Sprintf("IM%06d", ii+1))
					dest := filepath.Join(append([]string{outputDir}, fileID...)...)
					if err := os.Rename(f.Path, dest); err != nil {
						return fmt.Errorf("move file %s to %s: %w", f.Path, dest, err)
					}

					recordType := recordImage
					if f.SOPClassUID == RTStructureSetStorage {
						recordType = "RT STRUCTURE"
					}
					records = append(records, directoryRecord(recordType,
						mustNewElement(tag.ReferencedFileID, fileID),
						mustNewElement(tag.ReferencedSOPClassUIDInFile, []string{f.SOPClassUID}),
						mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{f.SOPInstanceUID}),
						mustNewElement(tag.ReferencedTransferSyntaxUIDInFile, []string{ExplicitVRLittleEndian}),
					))
					levels = append(levels, 3)
				}
			}
		}
	}

	filesetID := filepath.Base(outputDir)
	if len(filesetID) > 16 {
		filesetID = filesetID[:16]
	}

	seqElem, err := dicom.NewElement(tag.DirectoryRecordSequence, records)
	if err != nil {
		return fmt.Errorf("create directory record sequence: %w", err)
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{MediaStorageDirectoryStorage}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{files[0].StudyUID + ".0"}),
		mustNewElement(tag.ImplementationClassUID, []string{ImplementationClassUID}),
		mustNewElement(tag.FileSetID, []string{filesetID}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
		seqElem,
	}}

	dirPath := filepath.Join(outputDir, DICOMDIRName)
	if err := writeDatasetToFile(dirPath, ds); err != nil {
		return fmt.Errorf("write DICOMDIR: %w", err)
	}
	if err := patchRecordOffsets(dirPath, levels); err != nil {
		return fmt.Errorf("update DICOMDIR offsets: %w", err)
	}

	if !quiet {
		fmt.Printf("✓ DICOMDIR created: %d records for %d files\n", len(records), len(files))
	}
	return nil
}

func directoryRecord(recordType string, elems ...*dicom.Element) []*dicom.Element {
	return append([]*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{recordType}),
	}, elems...)
}

// patchRecordOffsets fills the next-sibling and first-child offsets of
// every directory record, plus the root first/last offsets, now that the
// byte position of each record is known. levels gives the hierarchy depth
// of each record in sequence order.
func patchRecordOffsets(path string, levels []int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read DICOMDIR: %w", err)
	}

	seqPos := findTag(data, 0, len(data), tagDirectoryRecordSequence)
	if seqPos < 0 {
		return fmt.Errorf("directory record sequence not found")
	}
	itemTag := []byte{0xFE, 0xFF, 0x00, 0xE0}
	var positions []int
	for i := seqPos; i < len(data)-4 && len(positions) < len(levels); i++ {
		if bytes.Equal(data[i:i+4], itemTag) {
			positions = append(positions, i)
		}
	}
	if len(positions) != len(levels) {
		return fmt.Errorf("found %d directory records, expected %d", len(positions), len(levels))
	}

	next := make([]uint32, len(levels))
	child := make([]uint32, len(levels))
	lastAt := make(map[int]int) // depth -> index of the latest record seen at that depth
	var rootLast int
	for i, lvl := range levels {
		if prev, ok := lastAt[lvl]; ok {
			next[prev] = uint32(positions[i])
		}
		if lvl > 0 {
			if parent, ok := lastAt[lvl-1]; ok && child[parent] == 0 {
				child[parent] = uint32(positions[i])
			}
		} else {
			rootLast = i
		}
		lastAt[lvl] = i
		// a new record closes every deeper sibling chain
		for d := range lastAt {
			if d > lvl {
				delete(lastAt, d)
			}
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open file for update: %w", err)
	}
	defer func() { _ = f.Close() }()

	rootTags := []struct {
		t   tag.Tag
		val uint32
	}{
		{tag.Tag{Group: 0x0004, Element: 0x1200}, uint32(positions[0])},
		{tag.Tag{Group: 0x0004, Element: 0x1202}, uint32(positions[rootLast])},
	}
	for _, rt := range rootTags {
		if pos := findTag(data, 0, seqPos, rt.t); pos >= 0 {
			if err := writeUint32At(f, int64(pos+8), rt.val); err != nil {
				return err
			}
		}
	}

	for i, start := range positions {
		end := len(data)
		if i+1 < len(positions) {
			end = positions[i+1]
		}
		if pos := findTag(data, start, end, tag.Tag{Group: 0x0004, Element: 0x1400}); pos >= 0 {
			if err := writeUint32At(f, int64(pos+8), next[i]); err != nil {
				return fmt.Errorf("update next offset at record %d: %w", i, err)
			}
		}
		if pos := findTag(data, start, end, tag.Tag{Group: 0x0004, Element: 0x1420}); pos >= 0 {
			if err := writeUint32At(f, int64(pos+8), child[i]); err != nil {
				return fmt.Errorf("update lower offset at record %d: %w", i, err)
			}
		}
	}
	return nil
}

// findTag returns the byte position of t (explicit little endian) within
// data[start:end], or -1.
func findTag(data []byte, start, end int, t tag.Tag) int {
	var want [4]byte
	binary.LittleEndian.PutUint16(want[0:2], t.Group)
	binary.LittleEndian.PutUint16(want[2:4], t.Element)
	if end > len(data)-4 {
		end = len(data) - 4
	}
	for i := start; i < end; i++ {
		if bytes.Equal(data[i:i+4], want[:]) {
			return i
		}
	}
	return -1
}

func writeUint32At(f io.WriteSeeker, pos int64, value uint32) error {
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, value)
}
