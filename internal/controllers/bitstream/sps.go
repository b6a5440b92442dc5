package bitstream

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const maxSequenceID = 31

func isHighProfile(profileIdc byte) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	}
	return false
}

// ParseSequence parses a seq_parameter_set_rbsp. Only the VUI is parsed
// leniently: a truncated VUI keeps what was read so far.
func (p *Parser) ParseSequence(payload []byte) (*entities.SPS, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("sps: %w", entities.ErrBitstreamTruncated)
	}

	r := newReader(removeEmulationPrevention(payload))
	sps := &entities.SPS{
		ChromaFormatIDC: 1,
		BitDepthLuma:    8,
		BitDepthChroma:  8,
	}

	sps.ProfileIDC = byte(r.u(8, "profile_idc"))
	sps.ConstraintFlags = byte(r.u(8, "constraint_flags"))
	sps.LevelIDC = byte(r.u(8, "level_idc"))
	sps.ID = r.ueMax(maxSequenceID, "seq_parameter_set_id")

	if isHighProfile(sps.ProfileIDC) {
		sps.ChromaFormatIDC = r.ueMax(3, "chroma_format_idc")
		if sps.ChromaFormatIDC == 3 {
			sps.SeparateColourPlane = r.flag("separate_colour_plane_flag")
		}
		sps.BitDepthLuma = r.ueMax(6, "bit_depth_luma_minus8") + 8
		sps.BitDepthChroma = r.ueMax(6, "bit_depth_chroma_minus8") + 8
		r.flag("qpprime_y_zero_transform_bypass_flag")

		if r.flag("seq_scaling_matrix_present_flag") {
			limit := 8
			if sps.ChromaFormatIDC == 3 {
				limit = 12
			}
			for i := 0; i < limit && r.err == nil; i++ {
				if r.flag("seq_scaling_list_present_flag") {
					size := 16
					if i >= 6 {
						size = 64
					}
					r.skipScalingList(size)
				}
			}
		}
	}

	sps.Log2MaxFrameNum = r.ueMax(12, "log2_max_frame_num_minus4") + 4

	sps.PicOrderCntType = r.ueMax(2, "pic_order_cnt_type")
	switch sps.PicOrderCntType {
	case 0:
		sps.Log2MaxPicOrderCntLsb = r.ueMax(12, "log2_max_pic_order_cnt_lsb_minus4") + 4
	case 1:
		sps.DeltaPicOrderAlwaysZero = r.flag("delta_pic_order_always_zero_flag")
		sps.OffsetForNonRefPic = r.se("offset_for_non_ref_pic")
		sps.OffsetForTopToBottomField = r.se("offset_for_top_to_bottom_field")
		cycle := r.ueMax(255, "num_ref_frames_in_pic_order_cnt_cycle")
		for i := uint(0); i < cycle && r.err == nil; i++ {
			sps.OffsetForRefFrame = append(sps.OffsetForRefFrame, r.se("offset_for_ref_frame"))
		}
	}

	sps.MaxNumRefFrames = r.ue("max_num_ref_frames")
	sps.GapsInFrameNumAllowed = r.flag("gaps_in_frame_num_value_allowed_flag")

	picWidthMbs := r.ue("pic_width_in_mbs_minus1")
	picHeightMapUnits := r.ue("pic_height_in_map_units_minus1")

	sps.FrameMbsOnly = r.flag("frame_mbs_only_flag")
	if !sps.FrameMbsOnly {
		sps.MbAdaptiveFrameField = r.flag("mb_adaptive_frame_field_flag")
	}
	sps.Direct8x8Inference = r.flag("direct_8x8_inference_flag")

	var cropLeft, cropRight, cropTop, cropBottom uint
	if r.flag("frame_cropping_flag") {
		cropLeft = r.ue("frame_crop_left_offset")
		cropRight = r.ue("frame_crop_right_offset")
		cropTop = r.ue("frame_crop_top_offset")
		cropBottom = r.ue("frame_crop_bottom_offset")
	}

	if r.err != nil {
		return nil, fmt.Errorf("sps: %w", r.err)
	}

	chromaArrayType := sps.ChromaFormatIDC
	if sps.SeparateColourPlane {
		chromaArrayType = 0
	}
	var subWidthC, subHeightC uint
	switch chromaArrayType {
	case 0, 3:
		subWidthC, subHeightC = 1, 1
	case 2:
		subWidthC, subHeightC = 2, 1
	default:
		subWidthC, subHeightC = 2, 2
	}

	frameMbsOnly := uint(0)
	if sps.FrameMbsOnly {
		frameMbsOnly = 1
	}
	cropUnitX := subWidthC
	cropUnitY := subHeightC * (2 - frameMbsOnly)

	sps.Width = int((picWidthMbs+1)*16) - int(cropUnitX*(cropLeft+cropRight))
	sps.Height = int((picHeightMapUnits+1)*16*(2-frameMbsOnly)) - int(cropUnitY*(cropTop+cropBottom))

	if r.flag("vui_parameters_present_flag") {
		parseVUI(r, sps)
	}

	return sps, nil
}

func parseVUI(r *reader, sps *entities.SPS) {
	if r.flag("aspect_ratio_info_present_flag") {
		if r.u(8, "aspect_ratio_idc") == 255 {
			r.u(16, "sar_width")
			r.u(16, "sar_height")
		}
	}

	if r.flag("overscan_info_present_flag") {
		r.flag("overscan_appropriate_flag")
	}

	if r.flag("video_signal_type_present_flag") {
		r.u(4, "video_format") // + video_full_range_flag
		if r.flag("colour_description_present_flag") {
			r.u(24, "colour_description")
		}
	}

	if r.flag("chroma_loc_info_present_flag") {
		r.ue("chroma_sample_loc_type_top_field")
		r.ue("chroma_sample_loc_type_bottom_field")
	}

	if r.flag("timing_info_present_flag") {
		numUnitsInTick := r.u(32, "num_units_in_tick")
		timeScale := r.u(32, "time_scale")
		fixedFrameRate := r.flag("fixed_frame_rate_flag")
		if r.err != nil {
			return
		}
		sps.TimingInfoPresent = true
		sps.NumUnitsInTick = numUnitsInTick
		sps.TimeScale = timeScale
		sps.FixedFrameRate = fixedFrameRate
	}

	nalHRD := r.flag("nal_hrd_parameters_present_flag")
	if nalHRD {
		parseHRD(r, sps)
	}
	vclHRD := r.flag("vcl_hrd_parameters_present_flag")
	if vclHRD {
		parseHRD(r, sps)
	}
	if nalHRD || vclHRD {
		r.flag("low_delay_hrd_flag")
	}

	picStructPresent := r.flag("pic_struct_present_flag")
	if r.err == nil {
		sps.PicStructPresent = picStructPresent
	}
}

func parseHRD(r *reader, sps *entities.SPS) {
	cpbCnt := r.ueMax(31, "cpb_cnt_minus1")
	r.u(8, "bit_rate_scale") // + cpb_size_scale
	for i := uint(0); i <= cpbCnt && r.err == nil; i++ {
		r.ue("bit_rate_value_minus1")
		r.ue("cpb_size_value_minus1")
		r.flag("cbr_flag")
	}
	r.u(5, "initial_cpb_removal_delay_length_minus1")
	cpbRemovalDelayLen := r.u(5, "cpb_removal_delay_length_minus1")
	dpbOutputDelayLen := r.u(5, "dpb_output_delay_length_minus1")
	timeOffsetLen := r.u(5, "time_offset_length")
	if r.err != nil || sps.HRDPresent {
		return
	}

	sps.HRDPresent = true
	sps.CpbRemovalDelayLen = int(cpbRemovalDelayLen) + 1
	sps.DpbOutputDelayLen = int(dpbOutputDelayLen) + 1
	sps.TimeOffsetLen = int(timeOffsetLen)
}
