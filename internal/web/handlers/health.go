package handlers

import (
	"net/http"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return entities.ErrHTTPGetOnly
	}
	return WriteJson(w, map[string]string{"status": "ok"})
}
