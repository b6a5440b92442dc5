package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/flavioribeiro/donut-h264/internal/controllers"
	"github.com/flavioribeiro/donut-h264/internal/controllers/engine"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sinks"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"go.uber.org/zap"
)

// SignalingHandler answers a WebRTC offer and plays the stream sent along
// with it on an H.264 track, frame summaries and captions go to the
// metadata data channel.
type SignalingHandler struct {
	c                *entities.Config
	l                *zap.SugaredLogger
	webRTCController *controllers.WebRTCController
	engineController *engine.EngineController
	mapper           *mapper.Mapper

	sessions uint64
}

func NewSignalingHandler(
	c *entities.Config,
	l *zap.SugaredLogger,
	webRTCController *controllers.WebRTCController,
	engineController *engine.EngineController,
	mapper *mapper.Mapper,
) *SignalingHandler {
	return &SignalingHandler{
		c:                c,
		l:                l,
		webRTCController: webRTCController,
		engineController: engineController,
		mapper:           mapper,
	}
}

func (h *SignalingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return entities.ErrHTTPPostOnly
	}

	params := entities.PlayRequestParams{}
	body := http.MaxBytesReader(w, r.Body, h.c.MaxParseBodyBytes)
	if err := json.NewDecoder(body).Decode(&params); err != nil {
		return fmt.Errorf("%w: decoding request params json: %v", entities.ErrInvalidRequest, err)
	}

	req := &entities.RequestParams{
		Input:     bytes.NewReader(params.Stream),
		Name:      fmt.Sprintf("play-%d", atomic.AddUint64(&h.sessions, 1)),
		Format:    params.Format,
		CodecData: params.CodecData,
	}
	donutEngine, err := h.engineController.EngineFor(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidRequest, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	peer, err := h.webRTCController.CreatePeerConnection(cancel)
	if err != nil {
		cancel()
		return fmt.Errorf("setting up web rtc connection: %w", err)
	}

	fail := func(format string, err error) error {
		cancel()
		if cerr := peer.Close(); cerr != nil {
			h.l.Warnw("error while closing peer connection",
				"error", cerr,
			)
		}
		return fmt.Errorf(format, err)
	}

	connected := h.webRTCController.Connected(peer)

	videoTrack, err := h.webRTCController.CreateTrack(peer, h.c.WebRTCTrackID, h.c.WebRTCStreamID)
	if err != nil {
		return fail("creating a web rtc track: %w", err)
	}

	metadataSender, err := h.webRTCController.CreateDataChannel(peer, entities.MetadataChannelID)
	if err != nil {
		return fail("creating a web rtc data channel: %w", err)
	}

	if err = h.webRTCController.SetRemoteDescription(peer, params.Offer); err != nil {
		return fail("setting a remote web rtc description: %w", err)
	}

	localDescription, err := h.webRTCController.GatheringWebRTC(peer)
	if err != nil {
		return fail("preparing a local web rtc description: %w", err)
	}

	l := h.l.With("request", req.Name)
	go func() {
		defer cancel()
		defer peer.Close()

		select {
		case <-connected:
		case <-ctx.Done():
			l.Infow("peer went away before connecting",
				"error", ctx.Err(),
			)
			return
		}

		duration := time.Duration(h.c.WebRTCSampleDurationMS) * time.Millisecond
		report, err := donutEngine.Run(ctx,
			sinks.NewWebRTCSink(ctx, l, h.mapper, videoTrack, duration, true),
			sinks.NewMetadataSink(l, h.mapper, metadataSender),
		)
		if err != nil {
			l.Errorw("streaming has stopped due errors",
				"error", err,
			)
			return
		}
		l.Infow("streaming has finished",
			"frames", report.Stats.Frames,
		)
	}()

	return WriteJson(w, *localDescription)
}
