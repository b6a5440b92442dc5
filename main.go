package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/flavioribeiro/donut-h264/internal/controllers/engine"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/web"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s --input <file|-> [--format annexb|avc|mpegts] [--codec-data <file>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        %s --serve\n", os.Args[0])
		pflag.PrintDefaults()
	}

	input := pflag.StringP("input", "i", "", "stream to frame, - reads stdin")
	format := pflag.StringP("format", "f", string(entities.AnnexBFormat), "input format: annexb, avc or mpegts")
	codecData := pflag.String("codec-data", "", "file holding the avcC configuration record of an avc input")
	sinkNames := pflag.StringSlice("sinks", nil, "frame sinks to enable (log, captions, libav), overrides H264_SINKS")
	serve := pflag.Bool("serve", false, "start the HTTP server")
	pflag.Parse()

	if *serve {
		fx.New(
			web.Dependencies(*sinkNames),
			fx.Invoke(func(*http.Server) {}),
		).Run()
		return
	}

	if *input == "" {
		pflag.Usage()
		os.Exit(1)
	}
	if err := frame(*input, entities.InputFormat(*format), *codecData, *sinkNames); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// frame runs input through the engine and prints the report as JSON.
func frame(input string, format entities.InputFormat, codecDataPath string, sinkNames []string) error {
	var engineController *engine.EngineController
	app := fx.New(
		fx.NopLogger,
		web.Dependencies(sinkNames),
		fx.Populate(&engineController),
	)
	if err := app.Err(); err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	req := &entities.RequestParams{
		Input:  r,
		Name:   input,
		Format: format,
	}
	if codecDataPath != "" {
		data, err := os.ReadFile(codecDataPath)
		if err != nil {
			return err
		}
		req.CodecData = data
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	donutEngine, err := engineController.EngineFor(req)
	if err != nil {
		return err
	}
	report, err := donutEngine.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
