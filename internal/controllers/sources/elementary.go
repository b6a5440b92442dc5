package sources

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ElementaryParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
}

// AnnexBSource reads a start code delimited stream in fixed size chunks.
type AnnexBSource struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type ResultAnnexBSource struct {
	fx.Out
	AnnexBSource Source `group:"sources"`
}

func NewAnnexBSource(p ElementaryParams) ResultAnnexBSource {
	return ResultAnnexBSource{
		AnnexBSource: &AnnexBSource{c: p.C, l: p.L},
	}
}

func (c *AnnexBSource) Match(req *entities.RequestParams) bool {
	return req.Format == entities.AnnexBFormat
}

func (c *AnnexBSource) Feed(ctx context.Context, req *entities.RequestParams, s *session.Session) error {
	buf := make([]byte, c.c.ReadBufferSizeBytes)
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := req.Input.Read(buf)
		if n > 0 {
			read += int64(n)
			if perr := s.Push(buf[:n]); perr != nil {
				return perr
			}
		}
		if errors.Is(err, io.EOF) {
			c.l.Debugw("annexb input consumed",
				"bytes", read,
			)
			return s.Finish()
		}
		if err != nil {
			return fmt.Errorf("annexb: reading input: %w", err)
		}
	}
}

// AVCSource reads a length prefixed stream one unit at a time, as the
// session expects whole units in that mode.
type AVCSource struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type ResultAVCSource struct {
	fx.Out
	AVCSource Source `group:"sources"`
}

func NewAVCSource(p ElementaryParams) ResultAVCSource {
	return ResultAVCSource{
		AVCSource: &AVCSource{c: p.C, l: p.L},
	}
}

func (c *AVCSource) Match(req *entities.RequestParams) bool {
	return req.Format == entities.AVCFormat
}

func (c *AVCSource) Feed(ctx context.Context, req *entities.RequestParams, s *session.Session) error {
	lengthSize := s.StreamConfig().NALLengthSize
	r := bufio.NewReaderSize(req.Input, c.c.ReadBufferSizeBytes)

	for units := 0; ; units++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		unit, err := readUnit(r, lengthSize)
		if len(unit) > 0 {
			if perr := s.Push(unit); perr != nil {
				return perr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			c.l.Debugw("avc input consumed",
				"units", units,
				"truncated", errors.Is(err, io.ErrUnexpectedEOF),
			)
			return s.Finish()
		}
		if err != nil {
			return fmt.Errorf("avc: reading input: %w", err)
		}
	}
}

// maxUnitSize bounds the allocation a corrupt length field can cause.
const maxUnitSize = 64 << 20

// readUnit returns a length field and the unit it announces. A short read
// returns what was read with io.ErrUnexpectedEOF.
func readUnit(r io.Reader, lengthSize int) ([]byte, error) {
	prefix := make([]byte, lengthSize)
	n, err := io.ReadFull(r, prefix)
	if err != nil {
		return prefix[:n], err
	}

	size := 0
	for _, b := range prefix {
		size = size<<8 | int(b)
	}
	if size > maxUnitSize {
		return nil, fmt.Errorf("%w: length field of %d bytes", entities.ErrInvalidNAL, size)
	}

	unit := make([]byte, lengthSize+size)
	copy(unit, prefix)
	n, err = io.ReadFull(r, unit[lengthSize:])
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return unit[:lengthSize+n], err
}
