// Package teststreaming builds H.264 elementary streams for tests, either
// synthetic ones written syntax element by syntax element or real ones
// encoded by ffmpeg.
package teststreaming

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
)

type Sequence struct {
	ID                      uint
	Profile                 uint
	Log2MaxFrameNum         uint
	PicOrderCntType         uint
	Log2MaxPicOrderCntLsb   uint
	DeltaPicOrderAlwaysZero bool
	FrameMbsOnly            bool
	WidthMbs                uint
	HeightMapUnits          uint

	Timing             bool
	HRD                bool
	PicStructPresent   bool
	CpbRemovalDelayLen uint
	DpbOutputDelayLen  uint
}

// BaselineSequence is a 320x240 progressive stream with POC type 0.
func BaselineSequence() Sequence {
	return Sequence{
		Profile:               66,
		Log2MaxFrameNum:       4,
		PicOrderCntType:       0,
		Log2MaxPicOrderCntLsb: 6,
		FrameMbsOnly:          true,
		WidthMbs:              20,
		HeightMapUnits:        15,
	}
}

func (s Sequence) RBSP() []byte {
	w := &BitWriter{}
	w.U(8, s.Profile).U(8, 0xC0).U(8, 30)
	w.UE(s.ID)
	if s.Profile == 100 {
		w.UE(1)       // chroma_format_idc
		w.UE(0).UE(0) // bit depths
		w.Flag(false) // qpprime_y_zero_transform_bypass_flag
		w.Flag(false) // seq_scaling_matrix_present_flag
	}
	w.UE(s.Log2MaxFrameNum - 4)
	w.UE(s.PicOrderCntType)
	switch s.PicOrderCntType {
	case 0:
		w.UE(s.Log2MaxPicOrderCntLsb - 4)
	case 1:
		w.Flag(s.DeltaPicOrderAlwaysZero)
		w.SE(0).SE(0)
		w.UE(1).SE(2)
	}
	w.UE(1)       // max_num_ref_frames
	w.Flag(false) // gaps_in_frame_num_value_allowed_flag
	w.UE(s.WidthMbs - 1)
	w.UE(s.HeightMapUnits - 1)
	w.Flag(s.FrameMbsOnly)
	if !s.FrameMbsOnly {
		w.Flag(false)
	}
	w.Flag(true)  // direct_8x8_inference_flag
	w.Flag(false) // frame_cropping_flag

	vui := s.Timing || s.HRD || s.PicStructPresent
	w.Flag(vui)
	if vui {
		w.Flag(false).Flag(false).Flag(false).Flag(false)
		w.Flag(s.Timing)
		if s.Timing {
			w.U(32, 1001).U(32, 60000).Flag(true)
		}
		w.Flag(s.HRD)
		if s.HRD {
			w.UE(0).U(4, 0).U(4, 0)
			w.UE(1000).UE(1000).Flag(false)
			w.U(5, 23).U(5, s.CpbRemovalDelayLen-1).U(5, s.DpbOutputDelayLen-1).U(5, 0)
		}
		w.Flag(false) // vcl_hrd_parameters_present_flag
		if s.HRD {
			w.Flag(false) // low_delay_hrd_flag
		}
		w.Flag(s.PicStructPresent)
	}
	return w.RBSP()
}

func (s Sequence) NAL() []byte {
	return append([]byte{0x67}, s.RBSP()...)
}

type Picture struct {
	ID                                uint
	SequenceID                        uint
	BottomFieldPicOrderInFramePresent bool
	SliceGroups                       uint
	RedundantPicCntPresent            bool
}

func (p Picture) RBSP() []byte {
	w := &BitWriter{}
	w.UE(p.ID).UE(p.SequenceID)
	w.Flag(false) // entropy_coding_mode_flag
	w.Flag(p.BottomFieldPicOrderInFramePresent)
	if p.SliceGroups > 1 {
		w.UE(p.SliceGroups - 1)
		w.UE(3) // box-out
		w.Flag(true).UE(4)
	} else {
		w.UE(0)
	}
	w.UE(0).UE(0) // num_ref_idx default active
	w.Flag(false).U(2, 0)
	w.SE(0).SE(0).SE(-2)
	w.Flag(true)  // deblocking_filter_control_present_flag
	w.Flag(false) // constrained_intra_pred_flag
	w.Flag(p.RedundantPicCntPresent)
	return w.RBSP()
}

func (p Picture) NAL() []byte {
	return append([]byte{0x68}, p.RBSP()...)
}

type Slice struct {
	IDR    bool
	RefIDC uint8

	FirstMb         uint
	Type            uint
	PictureID       uint
	FrameNum        uint
	FieldPic        bool
	BottomField     bool
	IDRPicID        uint
	PicOrderCntLsb  uint
	DeltaBottom     int
	Delta           [2]int
	RedundantPicCnt uint
}

// Header returns the NAL header the slice is written with.
func (s Slice) Header() entities.NalUnit {
	n := entities.NalUnit{RefIDC: s.RefIDC, Type: entities.CodedSliceNonIDRPicture}
	if s.IDR {
		n.Type = entities.CodedSliceIDRPicture
	}
	return n
}

func (s Slice) RBSP(seq Sequence, pic Picture) []byte {
	w := &BitWriter{}
	w.UE(s.FirstMb).UE(s.Type).UE(s.PictureID)
	w.U(int(seq.Log2MaxFrameNum), s.FrameNum)
	if !seq.FrameMbsOnly {
		w.Flag(s.FieldPic)
		if s.FieldPic {
			w.Flag(s.BottomField)
		}
	}
	if s.IDR {
		w.UE(s.IDRPicID)
	}
	switch seq.PicOrderCntType {
	case 0:
		w.U(int(seq.Log2MaxPicOrderCntLsb), s.PicOrderCntLsb)
		if pic.BottomFieldPicOrderInFramePresent && !s.FieldPic {
			w.SE(s.DeltaBottom)
		}
	case 1:
		if !seq.DeltaPicOrderAlwaysZero {
			w.SE(s.Delta[0])
			if pic.BottomFieldPicOrderInFramePresent && !s.FieldPic {
				w.SE(s.Delta[1])
			}
		}
	}
	if pic.RedundantPicCntPresent {
		w.UE(s.RedundantPicCnt)
	}
	// the rest of the header and the slice data, never parsed
	w.U(16, 0xA5A5)
	return w.RBSP()
}

func (s Slice) NAL(seq Sequence, pic Picture) []byte {
	h := s.Header()
	return append([]byte{h.RefIDC<<5 | byte(h.Type)}, s.RBSP(seq, pic)...)
}

// AUD is an access unit delimiter allowing any slice type.
func AUD() []byte {
	return []byte{0x09, 0xF0}
}

// SEIMessage codes one sei_message.
func SEIMessage(payloadType int, payload []byte) []byte {
	var out []byte
	for payloadType >= 255 {
		out = append(out, 0xFF)
		payloadType -= 255
	}
	out = append(out, byte(payloadType))
	size := len(payload)
	for size >= 255 {
		out = append(out, 0xFF)
		size -= 255
	}
	out = append(out, byte(size))
	return append(out, payload...)
}

// SEI returns an SEI NAL unit carrying messages.
func SEI(messages ...[]byte) []byte {
	out := []byte{0x06}
	var rbsp []byte
	for _, m := range messages {
		rbsp = append(rbsp, m...)
	}
	out = append(out, Escape(rbsp)...)
	return append(out, 0x80)
}

// PicTiming is a pic_timing payload with 24 bit HRD delays and one full
// clock timestamp.
func PicTiming(hours, minutes, seconds, frames uint) []byte {
	w := &BitWriter{}
	w.U(24, 0x112233) // cpb_removal_delay
	w.U(24, 0x445566) // dpb_output_delay
	w.U(4, 0)         // pic_struct
	w.Flag(true)      // clock_timestamp_flag
	w.U(2, 0).Flag(false).U(5, 0)
	w.Flag(true)  // full_timestamp_flag
	w.Flag(false) // discontinuity_flag
	w.Flag(false) // cnt_dropped_flag
	w.U(8, frames)
	w.U(6, seconds).U(6, minutes).U(5, hours)
	return w.Aligned()
}

// AnnexB joins units with 3 byte start codes, the first one gets a 4 byte
// start code as encoders usually write it.
func AnnexB(nals ...[]byte) []byte {
	var out []byte
	for i, n := range nals {
		if i == 0 {
			out = append(out, 0x00)
		}
		out = append(out, 0x00, 0x00, 0x01)
		out = append(out, n...)
	}
	return out
}

// LengthPrefixed prefixes every unit with a big endian length field of
// lengthSize bytes.
func LengthPrefixed(lengthSize int, nals ...[]byte) []byte {
	var out []byte
	for _, n := range nals {
		for i := lengthSize - 1; i >= 0; i-- {
			out = append(out, byte(len(n)>>(8*uint(i))))
		}
		out = append(out, n...)
	}
	return out
}

// ConfigRecord builds an avcC record.
func ConfigRecord(lengthSize int, sps [][]byte, pps [][]byte) []byte {
	out := []byte{0x01, 0x42, 0xC0, 0x1E, 0xFC | byte(lengthSize-1), 0xE0 | byte(len(sps))}
	for _, s := range sps {
		out = append(out, byte(len(s)>>8), byte(len(s)))
		out = append(out, s...)
	}
	out = append(out, byte(len(pps)))
	for _, p := range pps {
		out = append(out, byte(len(p)>>8), byte(len(p)))
		out = append(out, p...)
	}
	return out
}

// KeyframeStream returns n access units, each made of an AU delimiter and one
// IDR slice, preceded by the parameter sets.
func KeyframeStream(n int) [][]byte {
	seq, pic := BaselineSequence(), Picture{}
	nals := [][]byte{seq.NAL(), pic.NAL()}
	for i := 0; i < n; i++ {
		s := Slice{IDR: true, RefIDC: 3, Type: 7, IDRPicID: uint(i % 2), PicOrderCntLsb: 0}
		nals = append(nals, AUD(), s.NAL(seq, pic))
	}
	return nals
}
