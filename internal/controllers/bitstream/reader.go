package bitstream

import (
	"bytes"
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/nareix/joy4/utils/bits"
)

// reader keeps the first error and turns every later read into a no-op
// returning zero, so a parse can check for truncation once per section.
type reader struct {
	r   *bits.GolombBitReader
	err error
}

func newReader(rbsp []byte) *reader {
	return &reader{r: &bits.GolombBitReader{R: bytes.NewReader(rbsp)}}
}

func (r *reader) fail(field string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %w", field, err)
	}
}

func (r *reader) u(n int, field string) uint {
	if r.err != nil || n == 0 {
		return 0
	}
	v, err := r.r.ReadBits(n)
	if err != nil {
		r.fail(field, entities.ErrBitstreamTruncated)
		return 0
	}
	return v
}

func (r *reader) flag(field string) bool {
	return r.u(1, field) == 1
}

func (r *reader) ue(field string) uint {
	if r.err != nil {
		return 0
	}
	v, err := r.r.ReadExponentialGolombCode()
	if err != nil {
		r.fail(field, entities.ErrBitstreamTruncated)
		return 0
	}
	return v
}

// ueMax reads an ue(v) and fails when it is above max.
func (r *reader) ueMax(max uint, field string) uint {
	v := r.ue(field)
	if r.err == nil && v > max {
		r.fail(field, fmt.Errorf("%d > %d: %w", v, max, entities.ErrValueOutOfRange))
		return 0
	}
	return v
}

func (r *reader) se(field string) int {
	v := r.ue(field)
	if v%2 == 0 {
		return -int(v / 2)
	}
	return int((v + 1) / 2)
}

func (r *reader) skipScalingList(size int) {
	lastScale := 8
	nextScale := 8
	for j := 0; j < size && r.err == nil; j++ {
		if nextScale != 0 {
			delta := r.se("delta_scale")
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
}

func removeEmulationPrevention(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 && data[i+2] == 3 &&
			(i+3 >= len(data) || data[i+3] <= 3) {
			out = append(out, 0, 0)
			i += 2
		} else {
			out = append(out, data[i])
		}
	}
	return out
}
