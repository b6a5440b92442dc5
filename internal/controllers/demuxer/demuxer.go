// Package demuxer finds NAL unit boundaries in a buffered input, either by
// start code (Annex-B) or by length field (packetized).
package demuxer

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const (
	startCodeMask    = 0xffffff00
	startCodePattern = 0x00000100
	startCode        = 0x000001
)

type Demuxer struct {
	config *entities.StreamConfig
}

// New returns a demuxer reading the stream configuration on every call, so
// a configuration record applied later is picked up.
func New(config *entities.StreamConfig) *Demuxer {
	return &Demuxer{config: config}
}

// ScanForSync returns the offset of the next start code. When none is found
// it returns the number of bytes that can be dropped while keeping a possible
// partial start code at the tail. Packetized streams are always in sync.
func (d *Demuxer) ScanForSync(in entities.Input) (int, bool) {
	if d.config.Packetized {
		return 0, true
	}

	avail := in.Available()
	m := in.MaskedScanUint32(startCodeMask, startCodePattern, 0, avail)
	if m == -1 {
		if avail < entities.StartCodeSize {
			return 0, false
		}
		return avail - entities.StartCodeSize, false
	}
	return m, true
}

// ScanForPacketEnd returns the size of the unit at the head of in, counted
// from its first byte (length field or start code). cursor is only used in
// Annex-B mode and points right after the unit's start code.
func (d *Demuxer) ScanForPacketEnd(in entities.Input, cursor int) (entities.ScanResult, int) {
	if d.config.Packetized {
		return d.packetizedEnd(in)
	}
	return d.annexBEnd(in, cursor)
}

func (d *Demuxer) packetizedEnd(in entities.Input) (entities.ScanResult, int) {
	avail := in.Available()
	lengthSize := d.config.NALLengthSize
	if avail < lengthSize {
		return entities.ScanNeedMoreData, 0
	}

	data, err := in.Copy(0, lengthSize)
	if err != nil {
		return entities.ScanNeedMoreData, 0
	}

	var fieldValue int
	for _, b := range data {
		fieldValue = fieldValue<<8 | int(b)
	}
	nalLength := fieldValue + lengthSize

	// a corrupt length takes whatever is available
	if fieldValue < 1 || nalLength > avail {
		nalLength = avail - lengthSize
	}
	// nothing follows the length field, consume it as an empty unit
	if nalLength < 1 {
		nalLength = lengthSize
	}

	return entities.ScanOK, nalLength
}

func (d *Demuxer) annexBEnd(in entities.Input, cursor int) (entities.ScanResult, int) {
	avail := in.Available()
	if avail-cursor < entities.StartCodeSize {
		return entities.ScanNeedMoreData, 0
	}

	data, err := in.Copy(cursor, entities.StartCodeSize)
	if err != nil {
		return entities.ScanNeedMoreData, 0
	}
	if int(data[0])<<16|int(data[1])<<8|int(data[2]) == startCode {
		return entities.ScanLostSync, 0
	}

	n := in.MaskedScanUint32(startCodeMask, startCodePattern, cursor, avail-cursor)
	if n == -1 {
		return entities.ScanNeedMoreData, 0
	}
	return entities.ScanOK, n
}
