package mapper

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newAccessUnit(keyframe bool) *entities.AccessUnit {
	seq := &entities.SPS{ProfileIDC: 66, ConstraintFlags: 0xC0, LevelIDC: 30, Width: 320, Height: 240}
	return &entities.AccessUnit{
		Index:    7,
		Keyframe: keyframe,
		Primary: &entities.SliceHeader{
			NAL:            entities.NalUnit{RefIDC: 3, Type: entities.CodedSliceIDRPicture},
			Type:           7,
			Picture:        &entities.PPS{Sequence: seq},
			FrameNum:       2,
			PicOrderCntLsb: 4,
		},
		NALs:          [][]byte{{0x65, 0x88}, {0x65, 0x99, 0x01}},
		SEI:           []entities.SEIMessage{{PayloadType: 1}, {PayloadType: 4}},
		Timecode:      &entities.Timecode{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4},
		ParameterSets: [][]byte{{0x67, 0x42}, {0x68, 0xCE}},
	}
}

func TestFromAccessUnitToFrameSummary(t *testing.T) {
	m := NewMapper(zap.NewNop().Sugar())

	fs := m.FromAccessUnitToFrameSummary(newAccessUnit(true))

	assert.Equal(t, entities.FrameSummary{
		Index:          7,
		Keyframe:       true,
		NALUnitType:    "slice_idr",
		SliceType:      "I",
		FrameNum:       2,
		PicOrderCntLsb: 4,
		Slices:         2,
		Size:           5,
		SEIPayloads:    []int{1, 4},
		Timecode:       "01:02:03:04",
		Codec:          "avc1.42C01E",
		Width:          320,
		Height:         240,
	}, fs)
}

func TestFromAccessUnitToFrameSummary_NoPrimary(t *testing.T) {
	m := NewMapper(zap.NewNop().Sugar())

	fs := m.FromAccessUnitToFrameSummary(&entities.AccessUnit{Index: 1, NALs: [][]byte{{0x01}}})

	assert.Equal(t, uint64(1), fs.Index)
	assert.Empty(t, fs.SliceType)
	assert.Equal(t, 1, fs.Slices)
}

func TestFromAccessUnitToAnnexB_Keyframe(t *testing.T) {
	m := NewMapper(zap.NewNop().Sugar())

	data := m.FromAccessUnitToAnnexB(newAccessUnit(true))

	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01, 0x67, 0x42,
		0x00, 0x00, 0x00, 0x01, 0x68, 0xCE,
		0x00, 0x00, 0x00, 0x01, 0x65, 0x88,
		0x00, 0x00, 0x00, 0x01, 0x65, 0x99, 0x01,
	}, data)
}

func TestFromAccessUnitToAnnexB_SkipsParameterSets(t *testing.T) {
	m := NewMapper(zap.NewNop().Sugar())

	data := m.FromAccessUnitToAnnexB(newAccessUnit(false))

	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01, 0x65, 0x88,
		0x00, 0x00, 0x00, 0x01, 0x65, 0x99, 0x01,
	}, data)
}
