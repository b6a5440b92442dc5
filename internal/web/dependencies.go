package web

import (
	"log"

	"github.com/flavioribeiro/donut-h264/internal/controllers"
	"github.com/flavioribeiro/donut-h264/internal/controllers/engine"
	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sinks"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sources"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"github.com/flavioribeiro/donut-h264/internal/web/handlers"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Dependencies wires the application. Configuration comes from H264_*
// environment variables, sinkNames overrides H264_SINKS when not empty.
func Dependencies(sinkNames []string) fx.Option {
	var c entities.Config
	err := envconfig.Process("h264", &c)
	if err != nil {
		log.Fatal(err.Error())
	}
	if len(sinkNames) > 0 {
		c.Sinks = sinkNames
	}

	var iceMux fx.Option = fx.Options()
	if c.EnableICEMux {
		iceMux = fx.Options(
			fx.Provide(controllers.NewTCPICEServer),
			fx.Provide(controllers.NewUDPICEServer),
		)
	}

	return fx.Options(
		// HTTP Server
		fx.Provide(NewHTTPServer),

		// HTTP router
		fx.Provide(NewServeMux),

		// HTTP handlers
		fx.Provide(handlers.NewParseHandler),
		fx.Provide(handlers.NewSignalingHandler),
		fx.Provide(handlers.NewHealthHandler),

		// ICE mux servers
		iceMux,

		// Controllers
		fx.Provide(controllers.NewWebRTCController),
		fx.Provide(controllers.NewWebRTCSettingsEngine),
		fx.Provide(controllers.NewWebRTCMediaEngine),
		fx.Provide(controllers.NewWebRTCAPI),
		fx.Provide(session.NewController),
		fx.Provide(engine.NewEngineController),

		// Sources
		fx.Provide(sources.NewAnnexBSource),
		fx.Provide(sources.NewAVCSource),
		fx.Provide(sources.NewMpegTSSource),

		// Sinks
		fx.Provide(sinks.NewLogFactory),
		fx.Provide(sinks.NewCaptionFactory),
		fx.Provide(sinks.NewLibAVFactory),

		// Mappers
		fx.Provide(mapper.NewMapper),

		// Logging, Config constructors
		fx.Provide(func() *zap.SugaredLogger {
			newLogger := zap.NewProduction
			if c.Debug {
				newLogger = zap.NewDevelopment
			}
			logger, _ := newLogger()
			return logger.Sugar()
		}),
		fx.Provide(func() *entities.Config {
			return &c
		}),
	)
}
