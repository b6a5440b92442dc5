package entities

import "fmt"

// StartCodeSize is the length of an Annex-B start code (0x000001). It is also
// the default NAL length size of a session that has not seen a configuration
// record.
const StartCodeSize = 3

type NALUnitType byte

const (
	// Rec. ITU-T H.264 (08/2021) p.65
	Unspecified0                                            = NALUnitType(0)  //	Unspecified
	CodedSliceNonIDRPicture                                 = NALUnitType(1)  //	Coded slice of a non-IDR picture
	CodedSliceDataPartitionA                                = NALUnitType(2)  //	Coded slice data partition A
	CodedSliceDataPartitionB                                = NALUnitType(3)  //	Coded slice data partition B
	CodedSliceDataPartitionC                                = NALUnitType(4)  //	Coded slice data partition C
	CodedSliceIDRPicture                                    = NALUnitType(5)  //	Coded slice of an IDR picture
	SupplementalEnhancementInformation                      = NALUnitType(6)  //	Supplemental enhancement information (SEI)
	SequenceParameterSet                                    = NALUnitType(7)  //	Sequence parameter set
	PictureParameterSet                                     = NALUnitType(8)  //	Picture parameter set
	AccessUnitDelimiter                                     = NALUnitType(9)  //	Access unit delimiter
	EndOfSequence                                           = NALUnitType(10) //	End of sequence
	EndOfStream                                             = NALUnitType(11) //	End of stream
	FillerData                                              = NALUnitType(12) //	Filler data
	SequenceParameterSetExtension                           = NALUnitType(13) //	Sequence parameter set extension
	PrefixNALUnit                                           = NALUnitType(14) //	Prefix NAL unit
	SubsetSequenceParameterSet                              = NALUnitType(15) //	Subset sequence parameter set
	DepthParameterSet                                       = NALUnitType(16) //	Depth parameter set
	Reserved17                                              = NALUnitType(17) //	Reserved
	Reserved18                                              = NALUnitType(18) //	Reserved
	CodedSliceAuxiliaryCodedPictureWithoutPartitioning      = NALUnitType(19) //	Coded slice of an auxiliary coded  picture without partitioning
	CodedSliceExtension                                     = NALUnitType(20) //	Coded slice extension
	CodedSliceExtensionDepthViewComponentOr3DAVCTextureView = NALUnitType(21) //	Coded slice extension for a depth view component or a 3D-AVC texture view component
)

// IsSlice reports whether the unit carries a slice header (types 1 through 5).
func (t NALUnitType) IsSlice() bool {
	return t >= CodedSliceNonIDRPicture && t <= CodedSliceIDRPicture
}

// HasExtensionHeader reports whether a 3 byte MVC/SVC extension follows the
// one byte NAL header.
func (t NALUnitType) HasExtensionHeader() bool {
	return t == PrefixNALUnit || t == CodedSliceExtension
}

func (t NALUnitType) String() string {
	switch t {
	case CodedSliceNonIDRPicture:
		return "slice"
	case CodedSliceDataPartitionA:
		return "slice_partition_a"
	case CodedSliceDataPartitionB:
		return "slice_partition_b"
	case CodedSliceDataPartitionC:
		return "slice_partition_c"
	case CodedSliceIDRPicture:
		return "slice_idr"
	case SupplementalEnhancementInformation:
		return "sei"
	case SequenceParameterSet:
		return "sps"
	case PictureParameterSet:
		return "pps"
	case AccessUnitDelimiter:
		return "au_delimiter"
	case EndOfSequence:
		return "end_of_seq"
	case EndOfStream:
		return "end_of_stream"
	case FillerData:
		return "filler_data"
	case SequenceParameterSetExtension:
		return "sps_ext"
	case PrefixNALUnit:
		return "prefix"
	case SubsetSequenceParameterSet:
		return "subset_sps"
	case CodedSliceExtension:
		return "slice_ext"
	}
	return fmt.Sprintf("nal_%d", byte(t))
}

// Rec. ITU-T H.264 (08/2021) p.43
type NalUnit struct {
	ForbiddenZeroBit bool
	RefIDC           uint8
	Type             NALUnitType
}

type SliceType uint

const (
	SliceTypeP  = SliceType(0)
	SliceTypeB  = SliceType(1)
	SliceTypeI  = SliceType(2)
	SliceTypeSP = SliceType(3)
	SliceTypeSI = SliceType(4)
)

// Base folds the 5..9 "all slices of the picture share the type" values onto 0..4.
func (t SliceType) Base() SliceType {
	return t % 5
}

func (t SliceType) IsI() bool  { return t.Base() == SliceTypeI }
func (t SliceType) IsSI() bool { return t.Base() == SliceTypeSI }

func (t SliceType) String() string {
	switch t.Base() {
	case SliceTypeP:
		return "P"
	case SliceTypeB:
		return "B"
	case SliceTypeI:
		return "I"
	case SliceTypeSP:
		return "SP"
	case SliceTypeSI:
		return "SI"
	}
	return ""
}

// SPS holds the sequence parameter set fields needed to parse slice headers
// and SEI messages, plus the picture geometry.
type SPS struct {
	ID uint

	ProfileIDC      byte
	ConstraintFlags byte
	LevelIDC        byte

	ChromaFormatIDC     uint
	SeparateColourPlane bool
	BitDepthLuma        uint
	BitDepthChroma      uint

	Log2MaxFrameNum uint

	PicOrderCntType           uint
	Log2MaxPicOrderCntLsb     uint
	DeltaPicOrderAlwaysZero   bool
	OffsetForNonRefPic        int
	OffsetForTopToBottomField int
	OffsetForRefFrame         []int

	MaxNumRefFrames       uint
	GapsInFrameNumAllowed bool
	FrameMbsOnly          bool
	MbAdaptiveFrameField  bool
	Direct8x8Inference    bool

	Width  int
	Height int

	TimingInfoPresent bool
	NumUnitsInTick    uint
	TimeScale         uint
	FixedFrameRate    bool

	HRDPresent         bool
	CpbRemovalDelayLen int
	DpbOutputDelayLen  int
	TimeOffsetLen      int
	PicStructPresent   bool

	// Raw is the whole NAL unit, header byte included.
	Raw []byte
}

// CodecString returns the RFC 6381 codec parameter string (e.g. "avc1.42E01E").
func (s *SPS) CodecString() string {
	return fmt.Sprintf("avc1.%02X%02X%02X", s.ProfileIDC, s.ConstraintFlags, s.LevelIDC)
}

type PPS struct {
	ID       uint
	SPSID    uint
	Sequence *SPS

	EntropyCodingMode                 bool
	BottomFieldPicOrderInFramePresent bool
	NumSliceGroups                    uint
	SliceGroupMapType                 uint
	NumRefIdxL0DefaultActive          uint
	NumRefIdxL1DefaultActive          uint
	WeightedPred                      bool
	WeightedBipredIDC                 uint
	PicInitQP                         int
	PicInitQS                         int
	ChromaQPIndexOffset               int
	DeblockingFilterControlPresent    bool
	ConstrainedIntraPred              bool
	RedundantPicCntPresent            bool

	Raw []byte
}

// SliceHeader is the snapshot of a parsed slice header that the boundary
// detector compares against the retained primary slice of the current unit.
type SliceHeader struct {
	NAL NalUnit

	FirstMbInSlice uint
	Type           SliceType
	// Picture identifies the parameter set this slice references. A PPS that
	// is re-sent with the same id is a different picture.
	Picture       *PPS
	ColourPlaneID uint
	FrameNum      uint
	FieldPic      bool
	BottomField   bool
	IDRPicID      uint

	PicOrderCntLsb         uint
	DeltaPicOrderCntBottom int
	DeltaPicOrderCnt       [2]int

	RedundantPicCnt uint
}

func (s *SliceHeader) Sequence() *SPS {
	if s == nil || s.Picture == nil {
		return nil
	}
	return s.Picture.Sequence
}

func (s *SliceHeader) PicOrderCntType() uint {
	if seq := s.Sequence(); seq != nil {
		return seq.PicOrderCntType
	}
	return 0
}

// Timecode represents a SMPTE 12M timecode extracted from a pic_timing SEI.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

const (
	SEIPayloadTypeBufferingPeriod          = 0
	SEIPayloadTypePicTiming                = 1
	SEIPayloadTypeUserDataRegisteredITUT35 = 4
	SEIPayloadTypeUserDataUnregistered     = 5
	SEIPayloadTypeRecoveryPoint            = 6
)

type SEIMessage struct {
	PayloadType int
	PayloadSize int
	Payload     []byte
}

type SEI struct {
	Messages []SEIMessage
	Timecode *Timecode
}
