package handlers

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/flavioribeiro/donut-h264/internal/controllers/engine"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/zap"
)

// ParseHandler frames the stream sent as the request body and responds with
// the run report. Query parameters: format (annexb, avc or mpegts, defaults
// to annexb), codec_data (hex avcC record, avc only) and name.
type ParseHandler struct {
	c                *entities.Config
	l                *zap.SugaredLogger
	engineController *engine.EngineController
}

func NewParseHandler(
	c *entities.Config,
	l *zap.SugaredLogger,
	engineController *engine.EngineController,
) *ParseHandler {
	return &ParseHandler{
		c:                c,
		l:                l,
		engineController: engineController,
	}
}

func (h *ParseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return entities.ErrHTTPPostOnly
	}

	req, err := h.requestParams(w, r)
	if err != nil {
		return err
	}

	donutEngine, err := h.engineController.EngineFor(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidRequest, err)
	}

	report, err := donutEngine.Run(r.Context())
	if err != nil {
		return err
	}

	h.l.Infow("stream parsed",
		"name", req.Name,
		"frames", report.Stats.Frames,
	)
	return WriteJson(w, report)
}

func (h *ParseHandler) requestParams(w http.ResponseWriter, r *http.Request) (*entities.RequestParams, error) {
	q := r.URL.Query()

	req := &entities.RequestParams{
		Input:  http.MaxBytesReader(w, r.Body, h.c.MaxParseBodyBytes),
		Name:   q.Get("name"),
		Format: entities.InputFormat(q.Get("format")),
	}
	if req.Name == "" {
		req.Name = r.RemoteAddr
	}
	if req.Format == "" {
		req.Format = entities.AnnexBFormat
	}

	if codecData := q.Get("codec_data"); codecData != "" {
		data, err := hex.DecodeString(codecData)
		if err != nil {
			return nil, fmt.Errorf("%w: codec_data: %v", entities.ErrInvalidRequest, err)
		}
		req.CodecData = data
	}
	return req, nil
}
