package http

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	apierrors "radiomics/internal/errors"
	"radiomics/internal/exporter"
	"radiomics/internal/files"
)

// DownloadHandler serves stored transform outputs
type DownloadHandler struct {
	store        DownloadStore
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(store DownloadStore, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DownloadHandler {
	return &DownloadHandler{
		store:        store,
		logger:       logger.With(slog.String("component", "download_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the download routes
func (h *DownloadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Download)
	return r
}

// Download handles GET /api/downloads/{id}
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, info, err := h.store.Open(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer f.Close()

	format, err := exporter.ParseFormat(filepath.Ext(id))
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("stored file with unknown format: %w", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": files.AttachmentName(id),
	}))

	h.logger.DebugContext(r.Context(), "Serving download",
		slog.String("download_id", id),
		slog.Int64("size", info.Size()))

	http.ServeContent(w, r, "", info.ModTime(), f)
}
