package web

import (
	"errors"
	"net/http"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/web/handlers"
	"go.uber.org/zap"
)

type ErrorHTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

func NewServeMux(
	parse *handlers.ParseHandler,
	signaling *handlers.SignalingHandler,
	health *handlers.HealthHandler,
	l *zap.SugaredLogger,
) *http.ServeMux {

	mux := http.NewServeMux()

	mux.Handle("/parse", setCors(errorHandler(l, parse)))
	mux.Handle("/doSignaling", setCors(errorHandler(l, signaling)))
	mux.Handle("/healthz", errorHandler(l, health))

	return mux
}

func setCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			allowedHeaders := "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization,X-CSRF-Token"
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", "Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func errorHandler(l *zap.SugaredLogger, next ErrorHTTPHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := next.ServeHTTP(w, r)
		if err != nil {
			l.Errorw("error on handler",
				"path", r.URL.Path,
				"err", err,
			)
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	})
}

func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, entities.ErrHTTPPostOnly), errors.Is(err, entities.ErrHTTPGetOnly):
		return http.StatusMethodNotAllowed
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entities.ErrInvalidRequest),
		errors.Is(err, entities.ErrConfigRecord),
		errors.Is(err, entities.ErrNoVideoStream):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
