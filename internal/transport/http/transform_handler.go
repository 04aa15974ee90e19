package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "radiomics/internal/errors"
	"radiomics/internal/services"
)

const (
	// UploadField is the multipart field carrying the workbook.
	UploadField = "file"

	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to a temporary file.
	multipartMemory = 32 << 20

	// multipartOverhead allows for boundaries and part headers on top of
	// the file itself.
	multipartOverhead = 1 << 20
)

// TransformHandler handles workbook uploads and vocabulary queries
type TransformHandler struct {
	service      TransformServiceInterface
	maxBytes     int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(service TransformServiceInterface, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *TransformHandler {
	return &TransformHandler{
		service:      service,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "transform_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the transform routes
func (h *TransformHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Transform)
	return r
}

// Transform handles POST /api/transform
func (h *TransformHandler) Transform(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	limit := h.maxBytes + multipartOverhead

	if r.ContentLength > limit {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UploadField)
	if errors.Is(err, http.ErrMissingFile) {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "Transform requested",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	result, err := h.service.Transform(r.Context(), services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// Vocabulary handles GET /api/vocabulary
func (h *TransformHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Vocabulary())
}
