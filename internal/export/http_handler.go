package export

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"georegistry/internal/domain"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

// ServeHTTP streams the history workbook for ?kind=...&id=... as xlsx.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind := domain.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if !domain.KnownKind(kind) {
		http.Error(w, fmt.Sprintf("unknown kind %q", kind), http.StatusBadRequest)
		return
	}
	recordID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid record id: %v", err), http.StatusBadRequest)
		return
	}

	file, err := h.service.BuildWorkbook(r.Context(), kind, recordID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("%s-%s-history.xlsx", kind, recordID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := file.Write(w); err != nil {
		http.Error(w, fmt.Sprintf("failed to stream workbook: %v", err), http.StatusInternalServerError)
	}
}
