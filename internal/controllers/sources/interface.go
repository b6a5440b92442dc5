// Package sources reads a request's input and pushes the H.264 elementary
// stream it carries into a session.
package sources

import (
	"context"

	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/entities"
)

type Source interface {
	Match(req *entities.RequestParams) bool
	// Feed pushes the whole input into a started session and finishes it.
	Feed(ctx context.Context, req *entities.RequestParams, s *session.Session) error
}
