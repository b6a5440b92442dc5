package mapper

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/zap"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

type Mapper struct {
	l *zap.SugaredLogger
}

func NewMapper(l *zap.SugaredLogger) *Mapper {
	return &Mapper{l: l}
}

func (m *Mapper) FromAccessUnitToFrameSummary(au *entities.AccessUnit) entities.FrameSummary {
	fs := entities.FrameSummary{
		Index:    au.Index,
		Keyframe: au.Keyframe,
		Slices:   len(au.NALs),
		Size:     au.Size(),
	}

	if au.HasPrimary() {
		p := au.Primary
		fs.NALUnitType = p.NAL.Type.String()
		fs.SliceType = p.Type.String()
		fs.FrameNum = p.FrameNum
		fs.PicOrderCntLsb = p.PicOrderCntLsb
		fs.FieldPic = p.FieldPic
		fs.BottomField = p.BottomField
		if seq := p.Sequence(); seq != nil {
			fs.Codec = seq.CodecString()
			fs.Width = seq.Width
			fs.Height = seq.Height
		}
	} else {
		m.l.Warnw("access unit without a primary slice",
			"index", au.Index,
		)
	}

	for _, msg := range au.SEI {
		fs.SEIPayloads = append(fs.SEIPayloads, msg.PayloadType)
	}
	if au.Timecode != nil {
		fs.Timecode = au.Timecode.String()
	}
	return fs
}

// FromAccessUnitToAnnexB joins the units of au with 4 byte start codes. Keyframes
// are prefixed with the parameter sets that were active when the unit closed
// so a decoder can start from them.
func (m *Mapper) FromAccessUnitToAnnexB(au *entities.AccessUnit) []byte {
	var nals [][]byte
	if au.Keyframe {
		nals = append(nals, au.ParameterSets...)
	}
	nals = append(nals, au.NALs...)

	size := 0
	for _, n := range nals {
		size += len(startCode) + len(n)
	}
	out := make([]byte, 0, size)
	for _, n := range nals {
		out = append(out, startCode...)
		out = append(out, n...)
	}
	return out
}
