package bitstream

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const rbspStopBits = 0x80

// ParseSEI walks the sei_message list of an SEI unit. active is the sequence
// of the picture being framed, when one is known; its HRD lengths are needed
// to decode the timecode of a pic_timing message. Without one the last
// sequence stored in the cache is used, SEI usually comes before the first
// slice of its picture.
func (p *Parser) ParseSEI(active *entities.SPS, payload []byte) (*entities.SEI, error) {
	if active == nil {
		active, _ = p.cache.LastSequence()
	}

	rbsp := removeEmulationPrevention(payload)
	sei := &entities.SEI{}

	i := 0
	for i < len(rbsp) {
		if rbsp[i] == rbspStopBits && i == len(rbsp)-1 {
			break
		}

		payloadType, n, ok := readSEIValue(rbsp[i:])
		if !ok {
			return nil, fmt.Errorf("sei payload_type: %w", entities.ErrBitstreamTruncated)
		}
		i += n

		payloadSize, n, ok := readSEIValue(rbsp[i:])
		if !ok {
			return nil, fmt.Errorf("sei payload_size: %w", entities.ErrBitstreamTruncated)
		}
		i += n

		if i+payloadSize > len(rbsp) {
			return nil, fmt.Errorf("sei payload type %d size %d: %w", payloadType, payloadSize, entities.ErrBitstreamTruncated)
		}

		msg := entities.SEIMessage{
			PayloadType: payloadType,
			PayloadSize: payloadSize,
			Payload:     rbsp[i : i+payloadSize],
		}
		sei.Messages = append(sei.Messages, msg)

		if payloadType == entities.SEIPayloadTypePicTiming && sei.Timecode == nil && active != nil {
			if tc, ok := parsePicTiming(msg.Payload, active); ok {
				sei.Timecode = &tc
			}
		}

		i += payloadSize
	}

	if len(sei.Messages) == 0 {
		return nil, entities.ErrEmptySEI
	}

	return sei, nil
}

// readSEIValue reads a payload_type or payload_size coded as a run of 0xFF
// bytes plus a last byte.
func readSEIValue(data []byte) (value, n int, ok bool) {
	for n < len(data) && data[n] == 0xFF {
		value += 255
		n++
	}
	if n >= len(data) {
		return 0, 0, false
	}
	value += int(data[n])
	return value, n + 1, true
}

func parsePicTiming(payload []byte, sps *entities.SPS) (entities.Timecode, bool) {
	if !sps.PicStructPresent {
		return entities.Timecode{}, false
	}

	r := newReader(payload)
	if sps.HRDPresent {
		r.u(sps.CpbRemovalDelayLen, "cpb_removal_delay")
		r.u(sps.DpbOutputDelayLen, "dpb_output_delay")
	}

	picStruct := r.u(4, "pic_struct")
	numClockTS := 1
	switch picStruct {
	case 3, 4:
		numClockTS = 2
	case 5, 6, 7, 8:
		numClockTS = 3
	}

	for c := 0; c < numClockTS && r.err == nil; c++ {
		if !r.flag("clock_timestamp_flag") {
			continue
		}

		r.u(2, "ct_type")
		r.flag("nuit_field_based_flag")
		r.u(5, "counting_type")
		fullTimestamp := r.flag("full_timestamp_flag")
		r.flag("discontinuity_flag")
		r.flag("cnt_dropped_flag")
		frames := r.u(8, "n_frames")

		var secs, mins, hours uint
		if fullTimestamp {
			secs = r.u(6, "seconds_value")
			mins = r.u(6, "minutes_value")
			hours = r.u(5, "hours_value")
		} else if r.flag("seconds_flag") {
			secs = r.u(6, "seconds_value")
			if r.flag("minutes_flag") {
				mins = r.u(6, "minutes_value")
				if r.flag("hours_flag") {
					hours = r.u(5, "hours_value")
				}
			}
		}

		if r.err != nil {
			return entities.Timecode{}, false
		}

		return entities.Timecode{
			Hours:   int(hours),
			Minutes: int(mins),
			Seconds: int(secs),
			Frames:  int(frames),
		}, true
	}

	return entities.Timecode{}, false
}
