package dicom

import (
	"fmt"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// World-frame offsets applied when a stack is centered for display.
const (
	stackOffsetY = 30.0
	stackOffsetZ = -100.0
)

// ImageStack is a geometry-sorted series as presented to the model: a grid
// of Width x Height x NumSlices voxels centered in world space. Slice i of
// the stack is Files[i].
type ImageStack struct {
	Files   []string
	Width   int
	Height  int
	Slices  int
	Spacing [3]float64
	Origin  [3]float64
	Flip    Flip

	// Pixels holds the raw stored values, x fastest, once LoadPixels ran.
	Pixels []uint16

	cache    *HeaderCache
	log      logrus.FieldLogger
	sliceMap map[string]int
}

// NewImageStack sorts files by acquisition position and derives the stack
// geometry from the first slice. The slice spacing is the distance between
// the first two slices along the normal when there are at least two,
// otherwise the declared spacing.
func NewImageStack(cache *HeaderCache, files []string, flip Flip, log logrus.FieldLogger) (*ImageStack, error) {
	sorted := SortByPosition(cache, files, log)
	if len(sorted) == 0 {
		return nil, ErrNoValidDICOM
	}

	first, err := cache.Get(sorted[0])
	if err != nil {
		return nil, fmt.Errorf("read first slice: %w", err)
	}
	geom, err := SliceGeometry(first)
	if err != nil {
		return nil, fmt.Errorf("first slice geometry: %w", err)
	}

	spacing := geom.Spacing
	if len(sorted) > 1 {
		if d, ok := sliceDistance(cache, geom, sorted[0], sorted[1]); ok {
			spacing[2] = d
		}
	}

	s := &ImageStack{
		Files:   sorted,
		Width:   geom.Size[0],
		Height:  geom.Size[1],
		Slices:  len(sorted),
		Spacing: spacing,
		Flip:    flip,
		cache:   cache,
		log:     log,
	}
	s.Origin = [3]float64{
		-spacing[0] * float64(s.Width) / 2,
		-spacing[1]*float64(s.Height)/2 + stackOffsetY,
		-spacing[2]*float64(s.Slices)/2 + stackOffsetZ,
	}
	return s, nil
}

func sliceDistance(cache *HeaderCache, geom *Geometry, a, b string) (float64, bool) {
	ra, err := ReadFileRecord(cache, a)
	if err != nil {
		return 0, false
	}
	rb, err := ReadFileRecord(cache, b)
	if err != nil {
		return 0, false
	}
	pa, errA := parseTriple(ra.ImagePosition)
	pb, errB := parseTriple(rb.ImagePosition)
	if errA != nil || errB != nil {
		return 0, false
	}
	n := geom.Normal()
	d := math.Abs((pb[0]-pa[0])*n[0] + (pb[1]-pa[1])*n[1] + (pb[2]-pa[2])*n[2])
	if d < 1e-6 {
		return 0, false
	}
	return d, true
}

// NumSlices returns the number of slices.
func (s *ImageStack) NumSlices() int { return s.Slices }

// ImageHeight returns the number of rows per slice.
func (s *ImageStack) ImageHeight() int { return s.Height }

// WorldSpacing returns the voxel spacing.
func (s *ImageStack) WorldSpacing() [3]float64 { return s.Spacing }

// WorldOrigin returns the centered world origin.
func (s *ImageStack) WorldOrigin() [3]float64 { return s.Origin }

// SliceIndex returns the position in the sorted file list of the slice
// whose SOP Instance UID is uid. The map is built on first use; files
// without a readable UID are left out.
func (s *ImageStack) SliceIndex(uid string) (int, bool) {
	if s.sliceMap == nil {
		s.sliceMap = make(map[string]int, len(s.Files))
		for i, path := range s.Files {
			rec, err := ReadFileRecord(s.cache, path)
			if err != nil || rec.SOPInstanceUID == "" {
				continue
			}
			s.sliceMap[rec.SOPInstanceUID] = i
		}
	}
	idx, ok := s.sliceMap[uid]
	return idx, ok
}

// SliceGeometry returns the physical geometry of slice index.
func (s *ImageStack) SliceGeometry(index int) (*Geometry, error) {
	if index < 0 || index >= len(s.Files) {
		return nil, fmt.Errorf("slice %d out of range [0,%d)", index, len(s.Files))
	}
	ds, err := s.cache.Get(s.Files[index])
	if err != nil {
		return nil, err
	}
	return SliceGeometry(ds)
}

// LoadPixels reads the first frame of every slice into Pixels and applies
// the stack flip.
func (s *ImageStack) LoadPixels() error {
	page := s.Width * s.Height
	pixels := make([]uint16, page*s.Slices)

	for z, path := range s.Files {
		ds, err := SafeParseFile(path)
		if err != nil {
			return err
		}
		e, err := ds.FindElementByTag(tag.PixelData)
		if err != nil {
			return fmt.Errorf("slice %d: %w", z, err)
		}
		info := dicom.MustGetPixelDataInfo(e.Value)
		if len(info.Frames) == 0 {
			return fmt.Errorf("slice %d: no frame", z)
		}
		img, err := info.Frames[0].GetImage()
		if err != nil {
			return fmt.Errorf("slice %d: decode frame: %w", z, err)
		}
		b := img.Bounds()
		if b.Dx() != s.Width || b.Dy() != s.Height {
			return fmt.Errorf("slice %d: size %dx%d, stack is %dx%d", z, b.Dx(), b.Dy(), s.Width, s.Height)
		}
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				pixels[z*page+y*s.Width+x] = g.Y
			}
		}
	}

	FlipVolume(pixels, [3]int{s.Width, s.Height, s.Slices}, s.Flip)
	s.Pixels = pixels
	return nil
}

// FlipVolume mirrors a voxel buffer in place along every axis set in flip.
func FlipVolume(pixels []uint16, size [3]int, flip Flip) {
	nx, ny, nz := size[0], size[1], size[2]
	page := nx * ny
	if len(pixels) < page*nz {
		return
	}

	if flip.Has(FlipZ) {
		for z := 0; z < nz/2; z++ {
			a := pixels[z*page : (z+1)*page]
			b := pixels[(nz-1-z)*page : (nz-z)*page]
			for i := range a {
				a[i], b[i] = b[i], a[i]
			}
		}
	}
	if flip.Has(FlipY) {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny/2; y++ {
				a := pixels[z*page+y*nx : z*page+(y+1)*nx]
				b := pixels[z*page+(ny-1-y)*nx : z*page+(ny-y)*nx]
				for i := range a {
					a[i], b[i] = b[i], a[i]
				}
			}
		}
	}
	if flip.Has(FlipX) {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				row := pixels[z*page+y*nx : z*page+(y+1)*nx]
				for i, j := 0, nx-1; i < j; i, j = i+1, j-1 {
					row[i], row[j] = row[j], row[i]
				}
			}
		}
	}
}
