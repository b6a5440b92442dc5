// Package boundary decides where an access unit ends and collects the NAL
// units of the unit in progress.
package boundary

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
)

// State is the detector state carried from one NAL unit to the next. A nil
// Primary is the NO_PRIMARY state.
type State struct {
	Primary *entities.SliceHeader
}

func (s State) HasPrimary() bool {
	return s.Primary != nil
}

// Input is one NAL unit as seen by the detector. Slice is only set for slice
// units whose header parsed.
type Input struct {
	Header entities.NalUnit
	Slice  *entities.SliceHeader
}

type BoundaryReason int

const (
	NoBoundary BoundaryReason = iota
	DelimiterBoundary
	NonSliceBoundary
	FrameNumBoundary
	PictureBoundary
	BottomFieldBoundary
	RefIDCBoundary
	PicOrderCntLsbBoundary
	DeltaPicOrderCntBottomBoundary
	DeltaPicOrderCntBoundary
)

func (r BoundaryReason) String() string {
	switch r {
	case NoBoundary:
		return "none"
	case DelimiterBoundary:
		return "au_delimiter"
	case NonSliceBoundary:
		return "non_slice_after_primary"
	case FrameNumBoundary:
		return "frame_num"
	case PictureBoundary:
		return "picture"
	case BottomFieldBoundary:
		return "bottom_field_flag"
	case RefIDCBoundary:
		return "nal_ref_idc"
	case PicOrderCntLsbBoundary:
		return "pic_order_cnt_lsb"
	case DeltaPicOrderCntBottomBoundary:
		return "delta_pic_order_cnt_bottom"
	case DeltaPicOrderCntBoundary:
		return "delta_pic_order_cnt"
	}
	return "unknown"
}

// Decision tells the accumulator what to do with the NAL unit.
type Decision struct {
	// CloseBefore closes the unit in progress before anything else.
	CloseBefore bool
	// Attach appends the NAL unit to the (possibly new) unit in progress.
	Attach bool
	// BecomePrimary retains the slice as the primary slice of the unit.
	BecomePrimary bool
	Keyframe      bool
	Redundant     bool
	Reason        BoundaryReason
}

// Decide runs one NAL unit through the boundary state machine. It does not
// touch s, the next state is returned.
func Decide(s State, in Input) (State, Decision) {
	switch t := in.Header.Type; {
	case t == entities.AccessUnitDelimiter:
		return State{}, Decision{CloseBefore: true, Reason: DelimiterBoundary}

	case closesAfterPrimary(t):
		if s.HasPrimary() {
			return State{}, Decision{CloseBefore: true, Reason: NonSliceBoundary}
		}
		return s, Decision{}

	case t.IsSlice():
		if in.Slice == nil {
			return s, Decision{}
		}
		return decideSlice(s, in.Slice)
	}

	return s, Decision{}
}

// closesAfterPrimary lists the units that cannot follow the primary slice
// inside an access unit.
func closesAfterPrimary(t entities.NALUnitType) bool {
	switch t {
	case entities.SupplementalEnhancementInformation,
		entities.SequenceParameterSet,
		entities.PictureParameterSet:
		return true
	}
	return t >= entities.PrefixNALUnit && t <= entities.Reserved18
}

func decideSlice(s State, slice *entities.SliceHeader) (State, Decision) {
	if slice.RedundantPicCnt != 0 {
		return s, Decision{Attach: true, Redundant: true}
	}

	if !s.HasPrimary() {
		return State{Primary: slice}, Decision{
			Attach:        true,
			BecomePrimary: true,
			Keyframe:      isKeyframe(slice),
		}
	}

	if reason := firstDifference(s.Primary, slice); reason != NoBoundary {
		return State{Primary: slice}, Decision{
			CloseBefore:   true,
			Attach:        true,
			BecomePrimary: true,
			Keyframe:      isKeyframe(slice),
			Reason:        reason,
		}
	}

	return s, Decision{Attach: true}
}

func isKeyframe(slice *entities.SliceHeader) bool {
	return slice.Type.IsI() || slice.Type.IsSI()
}

// firstDifference compares the slice with the retained primary slice of the
// unit and returns the first condition that makes it a new picture.
func firstDifference(prev, cur *entities.SliceHeader) BoundaryReason {
	if cur.FrameNum != prev.FrameNum {
		return FrameNumBoundary
	}

	if cur.Picture != prev.Picture {
		return PictureBoundary
	}

	if cur.BottomField != prev.BottomField {
		return BottomFieldBoundary
	}

	if cur.NAL.RefIDC != prev.NAL.RefIDC && (cur.NAL.RefIDC == 0 || prev.NAL.RefIDC == 0) {
		return RefIDCBoundary
	}

	curType, prevType := cur.PicOrderCntType(), prev.PicOrderCntType()

	if curType == 0 && prevType == 0 {
		if cur.PicOrderCntLsb != prev.PicOrderCntLsb {
			return PicOrderCntLsbBoundary
		}
		if cur.DeltaPicOrderCntBottom != prev.DeltaPicOrderCntBottom {
			return DeltaPicOrderCntBottomBoundary
		}
	}

	// both sides are checked, though slices that got this far share a PPS
	// and so a POC type
	if curType == 1 && prevType == 1 {
		if cur.DeltaPicOrderCnt[0] != prev.DeltaPicOrderCnt[0] ||
			cur.DeltaPicOrderCnt[1] != prev.DeltaPicOrderCnt[1] {
			return DeltaPicOrderCntBoundary
		}
	}

	return NoBoundary
}
