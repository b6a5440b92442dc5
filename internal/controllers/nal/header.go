package nal

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

// extensionHeaderSize is the svc/mvc extension carried by prefix (14) and
// coded slice extension (20) units.
const extensionHeaderSize = 3

// ParseHeader decodes the NAL header of a demultiplexed unit. prefixSize is
// the length of the start code or length field in front of the header. The
// returned payload starts after the header (and its extension, if any) and
// has its trailing zero bytes trimmed.
func ParseHeader(unit []byte, prefixSize int) (entities.NalUnit, []byte, error) {
	if prefixSize < 0 || len(unit) < prefixSize+1 {
		return entities.NalUnit{}, nil, fmt.Errorf("%d bytes with a %d bytes prefix: %w", len(unit), prefixSize, entities.ErrNALTooShort)
	}

	b := unit[prefixSize]
	n := entities.NalUnit{
		ForbiddenZeroBit: b>>7&0x01 != 0,
		RefIDC:           (b >> 5) & 0x03,
		Type:             entities.NALUnitType(b & 0x1f),
	}
	if n.ForbiddenZeroBit {
		return n, nil, entities.ErrForbiddenBit
	}

	start := prefixSize + 1
	if n.Type.HasExtensionHeader() {
		if len(unit) < start+extensionHeaderSize {
			return n, nil, fmt.Errorf("%v extension header: %w", n.Type, entities.ErrNALTooShort)
		}
		start += extensionHeaderSize
	}

	return n, TrimTrailingZeros(unit[start:]), nil
}

// TrimTrailingZeros drops the zero bytes left at the tail of a unit, such as
// the leading zero of a following 4 byte start code.
func TrimTrailingZeros(data []byte) []byte {
	size := len(data)
	for size > 0 && data[size-1] == 0x00 {
		size--
	}
	return data[:size]
}
