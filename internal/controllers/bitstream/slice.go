package bitstream

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const maxSliceType = 9

// ParseSliceHeader parses the leading slice_header fields, up to
// redundant_pic_cnt, that tell apart the pictures of a stream.
func (p *Parser) ParseSliceHeader(payload []byte, nal entities.NalUnit) (*entities.SliceHeader, error) {
	r := newReader(removeEmulationPrevention(payload))
	sh := &entities.SliceHeader{NAL: nal}

	sh.FirstMbInSlice = r.ue("first_mb_in_slice")
	sliceType := r.ue("slice_type")
	if r.err == nil && sliceType > maxSliceType {
		return nil, fmt.Errorf("slice_type %d: %w", sliceType, entities.ErrInvalidSliceType)
	}
	sh.Type = entities.SliceType(sliceType)
	ppsID := r.ueMax(maxPictureID, "pic_parameter_set_id")
	if r.err != nil {
		return nil, fmt.Errorf("slice: %w", r.err)
	}

	pps, ok := p.cache.Picture(ppsID)
	if !ok {
		return nil, fmt.Errorf("slice references pps %d: %w", ppsID, entities.ErrUnknownPicture)
	}
	sps := pps.Sequence
	if sps == nil {
		return nil, fmt.Errorf("pps %d has no sps: %w", ppsID, entities.ErrUnknownSequence)
	}
	sh.Picture = pps

	if sps.SeparateColourPlane {
		sh.ColourPlaneID = r.u(2, "colour_plane_id")
	}
	sh.FrameNum = r.u(int(sps.Log2MaxFrameNum), "frame_num")

	if !sps.FrameMbsOnly {
		sh.FieldPic = r.flag("field_pic_flag")
		if sh.FieldPic {
			sh.BottomField = r.flag("bottom_field_flag")
		}
	}

	if nal.Type == entities.CodedSliceIDRPicture {
		sh.IDRPicID = r.ue("idr_pic_id")
	}

	switch sps.PicOrderCntType {
	case 0:
		sh.PicOrderCntLsb = r.u(int(sps.Log2MaxPicOrderCntLsb), "pic_order_cnt_lsb")
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
			sh.DeltaPicOrderCntBottom = r.se("delta_pic_order_cnt_bottom")
		}
	case 1:
		if !sps.DeltaPicOrderAlwaysZero {
			sh.DeltaPicOrderCnt[0] = r.se("delta_pic_order_cnt[0]")
			if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
				sh.DeltaPicOrderCnt[1] = r.se("delta_pic_order_cnt[1]")
			}
		}
	}

	if pps.RedundantPicCntPresent {
		sh.RedundantPicCnt = r.ueMax(127, "redundant_pic_cnt")
	}

	if r.err != nil {
		return nil, fmt.Errorf("slice: %w", r.err)
	}

	return sh, nil
}
