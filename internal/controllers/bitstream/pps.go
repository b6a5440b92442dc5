package bitstream

import (
	"fmt"
	"math/bits"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const maxPictureID = 255

// ParsePicture parses a pic_parameter_set_rbsp up to
// redundant_pic_cnt_present_flag. The referenced SPS must already be cached.
func (p *Parser) ParsePicture(payload []byte) (*entities.PPS, error) {
	r := newReader(removeEmulationPrevention(payload))
	pps := &entities.PPS{}

	pps.ID = r.ueMax(maxPictureID, "pic_parameter_set_id")
	pps.SPSID = r.ueMax(maxSequenceID, "seq_parameter_set_id")
	if r.err != nil {
		return nil, fmt.Errorf("pps: %w", r.err)
	}

	sps, ok := p.cache.Sequence(pps.SPSID)
	if !ok {
		return nil, fmt.Errorf("pps %d references sps %d: %w", pps.ID, pps.SPSID, entities.ErrUnknownSequence)
	}
	pps.Sequence = sps

	pps.EntropyCodingMode = r.flag("entropy_coding_mode_flag")
	pps.BottomFieldPicOrderInFramePresent = r.flag("bottom_field_pic_order_in_frame_present_flag")

	pps.NumSliceGroups = r.ueMax(7, "num_slice_groups_minus1") + 1
	if pps.NumSliceGroups > 1 {
		pps.SliceGroupMapType = r.ueMax(6, "slice_group_map_type")
		switch pps.SliceGroupMapType {
		case 0:
			for i := uint(0); i < pps.NumSliceGroups && r.err == nil; i++ {
				r.ue("run_length_minus1")
			}
		case 2:
			for i := uint(0); i < pps.NumSliceGroups-1 && r.err == nil; i++ {
				r.ue("top_left")
				r.ue("bottom_right")
			}
		case 3, 4, 5:
			r.flag("slice_group_change_direction_flag")
			r.ue("slice_group_change_rate_minus1")
		case 6:
			mapUnits := r.ue("pic_size_in_map_units_minus1") + 1
			idBits := bits.Len(pps.NumSliceGroups - 1)
			for i := uint(0); i < mapUnits && r.err == nil; i++ {
				r.u(idBits, "slice_group_id")
			}
		}
	}

	pps.NumRefIdxL0DefaultActive = r.ueMax(31, "num_ref_idx_l0_default_active_minus1") + 1
	pps.NumRefIdxL1DefaultActive = r.ueMax(31, "num_ref_idx_l1_default_active_minus1") + 1
	pps.WeightedPred = r.flag("weighted_pred_flag")
	pps.WeightedBipredIDC = r.u(2, "weighted_bipred_idc")
	pps.PicInitQP = r.se("pic_init_qp_minus26") + 26
	pps.PicInitQS = r.se("pic_init_qs_minus26") + 26
	pps.ChromaQPIndexOffset = r.se("chroma_qp_index_offset")
	pps.DeblockingFilterControlPresent = r.flag("deblocking_filter_control_present_flag")
	pps.ConstrainedIntraPred = r.flag("constrained_intra_pred_flag")
	pps.RedundantPicCntPresent = r.flag("redundant_pic_cnt_present_flag")

	if r.err != nil {
		return nil, fmt.Errorf("pps %d: %w", pps.ID, r.err)
	}

	return pps, nil
}
