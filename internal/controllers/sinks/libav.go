package sinks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LibAVSink feeds every access unit to the libav H.264 decoder, optionally on
// a hardware device.
type LibAVSink struct {
	l      *zap.SugaredLogger
	m      *mapper.Mapper
	closer *astikit.Closer

	codecContext *astiav.CodecContext
	pkt          *astiav.Packet
	frame        *astiav.Frame

	decoded uint64
}

func NewLibAVSink(c *entities.Config, l *zap.SugaredLogger, m *mapper.Mapper) (*LibAVSink, error) {
	s := &LibAVSink{
		l:      l,
		m:      m,
		closer: astikit.NewCloser(),
	}
	if err := s.prepareDecoder(c); err != nil {
		s.closer.Close()
		return nil, err
	}
	return s, nil
}

func (s *LibAVSink) prepareDecoder(c *entities.Config) error {
	astiav.SetLogLevel(astiav.LogLevelError)

	codec := astiav.FindDecoder(astiav.CodecIDH264)
	if codec == nil {
		return entities.ErrFFmpegLibAVDecoderNotFound
	}

	if s.codecContext = astiav.AllocCodecContext(codec); s.codecContext == nil {
		return entities.ErrFFmpegLibAVCodecContextIsNil
	}
	s.closer.Add(s.codecContext.Free)

	if c.LibAVHardwareDevice != "" {
		t := hardwareDeviceType(c.LibAVHardwareDevice)
		if t == astiav.HardwareDeviceTypeNone {
			return fmt.Errorf("%w: %q", entities.ErrFFmpegLibAVHardwareDevice, c.LibAVHardwareDevice)
		}
		hdc, err := astiav.CreateHardwareDeviceContext(t, "", nil, 0)
		if err != nil {
			return fmt.Errorf("ffmpeg/libav: creating %s device failed %w", c.LibAVHardwareDevice, err)
		}
		s.closer.Add(hdc.Free)
		s.codecContext.SetHardwareDeviceContext(hdc)
	}

	if err := s.codecContext.Open(codec, nil); err != nil {
		return fmt.Errorf("ffmpeg/libav: opening codec context failed %w", err)
	}

	s.pkt = astiav.AllocPacket()
	s.closer.Add(s.pkt.Free)
	s.frame = astiav.AllocFrame()
	s.closer.Add(s.frame.Free)
	return nil
}

func hardwareDeviceType(name string) astiav.HardwareDeviceType {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, candidate := range []astiav.HardwareDeviceType{
		astiav.HardwareDeviceTypeCUDA,
		astiav.HardwareDeviceTypeD3D11VA,
		astiav.HardwareDeviceTypeDRM,
		astiav.HardwareDeviceTypeDXVA2,
		astiav.HardwareDeviceTypeMediaCodec,
		astiav.HardwareDeviceTypeOpenCL,
		astiav.HardwareDeviceTypeQSV,
		astiav.HardwareDeviceTypeVAAPI,
		astiav.HardwareDeviceTypeVDPAU,
		astiav.HardwareDeviceTypeVideoToolbox,
		astiav.HardwareDeviceTypeVulkan,
	} {
		if strings.ToLower(candidate.String()) == name {
			return candidate
		}
	}
	return astiav.HardwareDeviceTypeNone
}

// FrameReady decodes au. Decoder errors only lose the frame and are logged.
func (s *LibAVSink) FrameReady(au *entities.AccessUnit) error {
	defer s.pkt.Unref()

	if err := s.pkt.FromData(s.m.FromAccessUnitToAnnexB(au)); err != nil {
		return fmt.Errorf("ffmpeg/libav: packet from frame %d failed %w", au.Index, err)
	}
	s.pkt.SetPts(int64(au.Index))

	if err := s.codecContext.SendPacket(s.pkt); err != nil {
		s.l.Warnw("ffmpeg/libav: sending packet failed",
			"index", au.Index,
			"error", err,
		)
		return nil
	}
	s.receive()
	return nil
}

func (s *LibAVSink) receive() {
	for {
		if err := s.codecContext.ReceiveFrame(s.frame); err != nil {
			if !errors.Is(err, astiav.ErrEof) && !errors.Is(err, astiav.ErrEagain) {
				s.l.Warnw("ffmpeg/libav: receiving frame failed",
					"error", err,
				)
			}
			return
		}

		s.decoded++
		if s.decoded == 1 {
			s.l.Infow("first frame decoded",
				"width", s.frame.Width(),
				"height", s.frame.Height(),
			)
		}
		s.frame.Unref()
	}
}

// Close drains the decoder before freeing it.
func (s *LibAVSink) Close() error {
	defer s.closer.Close()

	if err := s.codecContext.SendPacket(nil); err == nil {
		s.receive()
	}

	s.l.Infow("libav sink closed",
		"decoded", s.decoded,
	)
	return nil
}

func (s *LibAVSink) Decoded() uint64 {
	return s.decoded
}

type libAVFactory struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper
}

type LibAVFactoryParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper
}

type ResultLibAVFactory struct {
	fx.Out
	LibAVFactory Factory `group:"sinks"`
}

func NewLibAVFactory(p LibAVFactoryParams) ResultLibAVFactory {
	return ResultLibAVFactory{
		LibAVFactory: &libAVFactory{c: p.C, l: p.L, m: p.M},
	}
}

func (f *libAVFactory) Name() string {
	return "libav"
}

func (f *libAVFactory) New(req *entities.RequestParams) (Sink, error) {
	return NewLibAVSink(f.c, f.l.With("sink", f.Name(), "request", req.Name), f.m)
}
