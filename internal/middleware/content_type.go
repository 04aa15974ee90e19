package middleware

import (
	"mime"
	"net/http"

	apierrors "radiomics/internal/errors"
)

// ContentTypeValidator rejects request bodies whose media type is not one of
// contentTypes. Requests without a body-carrying method pass through.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if contentType == "" || err != nil {
				_ = apierrors.NewProblemDetails(
					http.StatusBadRequest,
					apierrors.TypeValidation,
					"Bad Request",
					"A valid Content-Type header is required",
					r.URL.Path,
				).Write(w)
				return
			}

			for _, allowed := range contentTypes {
				if mediaType == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			_ = apierrors.NewProblemDetails(
				http.StatusUnsupportedMediaType,
				apierrors.TypeUnsupportedType,
				"Unsupported Media Type",
				"Unsupported content type",
				r.URL.Path,
			).WithExtension("content_type", mediaType).
				WithExtension("allowed", contentTypes).Write(w)
		})
	}
}
