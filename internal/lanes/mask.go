// Binary mask model for rectified lane-pixel grids
package lanes

import "fmt"

// BinaryMask is a W x H grid marking candidate lane-marking pixels in the
// rectified (bird's-eye) view. Pixels are stored row-major; any nonzero byte
// counts as "on". The mask is produced once per frame by the perspective
// rectifier and consumed read-only by the search.
type BinaryMask struct {
	width  int
	height int
	pix    []uint8
}

// NewBinaryMask creates an all-zero mask of the given dimensions.
func NewBinaryMask(width, height int) (*BinaryMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask dimensions %dx%d", ErrInvalidConfig, width, height)
	}
	return &BinaryMask{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}, nil
}

// NewBinaryMaskFromBytes wraps an existing row-major pixel buffer without
// copying. The buffer length must be exactly width*height.
func NewBinaryMaskFromBytes(width, height int, pix []uint8) (*BinaryMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask dimensions %dx%d", ErrInvalidConfig, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: pixel buffer length %d does not match %dx%d",
			ErrInvalidConfig, len(pix), width, height)
	}
	return &BinaryMask{width: width, height: height, pix: pix}, nil
}

// Width returns the mask width in pixels.
func (m *BinaryMask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *BinaryMask) Height() int { return m.height }

// At reports whether the pixel at (x, y) is on. Out-of-bounds coordinates
// read as off.
func (m *BinaryMask) At(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.pix[y*m.width+x] != 0
}

// Set turns the pixel at (x, y) on. Out-of-bounds coordinates are ignored.
func (m *BinaryMask) Set(x, y int) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.pix[y*m.width+x] = 1
}

// Bytes exposes the underlying row-major pixel buffer.
func (m *BinaryMask) Bytes() []uint8 { return m.pix }

// CountNonZero returns the number of on pixels in the whole mask.
func (m *BinaryMask) CountNonZero() int {
	n := 0
	for _, p := range m.pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Histogram returns per-column counts of on pixels over the lower half of the
// mask (rows [H/2, H)). The lower half is used because markings nearest the
// vehicle are most nearly vertical in the rectified view.
func (m *BinaryMask) Histogram() []int {
	hist := make([]int, m.width)
	for y := m.height / 2; y < m.height; y++ {
		row := m.pix[y*m.width : (y+1)*m.width]
		for x, p := range row {
			if p != 0 {
				hist[x]++
			}
		}
	}
	return hist
}

// argmax returns the index of the first maximum value in vals. An empty or
// all-equal slice resolves to index 0.
func argmax(vals []int) int {
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return best
}
