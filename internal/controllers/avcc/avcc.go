// Package avcc parses the AVCDecoderConfigurationRecord (avcC) carried out of
// band by length prefixed streams.
package avcc

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/nareix/joy4/utils/bits/pio"
)

const (
	minRecordSize = 7
	version       = 1
)

// recordReader walks the record byte by byte, every read checks that enough
// bytes are left.
type recordReader struct {
	b   []byte
	pos int
}

func (r *recordReader) need(n int, field string) error {
	if r.pos+n > len(r.b) {
		return fmt.Errorf("%s at byte %d: %w", field, r.pos, entities.ErrConfigRecordTruncated)
	}
	return nil
}

func (r *recordReader) u8(field string) (byte, error) {
	if err := r.need(1, field); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *recordReader) u16(field string) (int, error) {
	if err := r.need(2, field); err != nil {
		return 0, err
	}
	v := pio.U16BE(r.b[r.pos:])
	r.pos += 2
	return int(v), nil
}

// nal returns the next parameter set entry as a whole NAL unit (header byte
// included) and its payload.
func (r *recordReader) nal(field string) (raw, payload []byte, err error) {
	size, err := r.u16(field + " length")
	if err != nil {
		return nil, nil, err
	}
	if size < 1 {
		return nil, nil, fmt.Errorf("%s at byte %d is empty: %w", field, r.pos, entities.ErrConfigRecordTruncated)
	}
	if err := r.need(size, field); err != nil {
		return nil, nil, err
	}
	raw = r.b[r.pos : r.pos+size]
	r.pos += size
	return raw, raw[1:], nil
}

// Parse reads the record, stores every parameter set it carries in cache and
// returns the packetized stream configuration. Parameter sets stored before
// a failure are left in the cache.
func Parse(record []byte, fp entities.FieldParser, cache *entities.ParameterSetCache) (entities.StreamConfig, error) {
	if len(record) < minRecordSize {
		return entities.StreamConfig{}, entities.ErrConfigRecordTooShort
	}
	if record[0] != version {
		return entities.StreamConfig{}, fmt.Errorf("%w: got %d", entities.ErrConfigRecordVersion, record[0])
	}

	// version, profile, compatibility and level
	r := &recordReader{b: record, pos: 4}

	b, err := r.u8("length_size_minus_one")
	if err != nil {
		return entities.StreamConfig{}, err
	}
	config := entities.StreamConfig{
		Packetized:    true,
		NALLengthSize: int(b&0x03) + 1,
	}

	b, err = r.u8("num_of_sequence_parameter_sets")
	if err != nil {
		return entities.StreamConfig{}, err
	}
	for i := 0; i < int(b&0x1f); i++ {
		raw, payload, err := r.nal(fmt.Sprintf("sps[%d]", i))
		if err != nil {
			return entities.StreamConfig{}, err
		}
		sps, err := fp.ParseSequence(payload)
		if err != nil {
			return entities.StreamConfig{}, fmt.Errorf("%w: sps[%d]: %v", entities.ErrConfigRecord, i, err)
		}
		sps.Raw = raw
		cache.PutSequence(sps)
	}

	b, err = r.u8("num_of_picture_parameter_sets")
	if err != nil {
		return entities.StreamConfig{}, err
	}
	for i := 0; i < int(b); i++ {
		raw, payload, err := r.nal(fmt.Sprintf("pps[%d]", i))
		if err != nil {
			return entities.StreamConfig{}, err
		}
		pps, err := fp.ParsePicture(payload)
		if err != nil {
			return entities.StreamConfig{}, fmt.Errorf("%w: pps[%d]: %v", entities.ErrConfigRecord, i, err)
		}
		pps.Raw = raw
		cache.PutPicture(pps)
	}

	return config, nil
}
