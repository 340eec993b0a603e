package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// MaxBodyBytes bounds request bodies read by the schema validator. Widget
// screenshots arrive as data URLs, hence the generous limit.
const MaxBodyBytes = 10 << 20

// ValidateJSONContentType middleware ensures POST/PUT requests have JSON content type.
// Paths in anyType accept any declared type; the widget posts text/plain.
func ValidateJSONContentType(log *slog.Logger, anyType ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			for _, path := range anyType {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Allow requests without body (logout etc.)
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ValidateJSONSchema checks POST bodies against a JSON schema before the
// handler runs. The body is buffered and handed on unchanged.
func ValidateJSONSchema(schema string, log *slog.Logger) (func(http.Handler) http.Handler, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(body) > MaxBodyBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			result, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
			if err != nil {
				// not JSON at all
				log.Warn("invalid json payload",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if !result.Valid() {
				first := result.Errors()[0]
				log.Warn("payload failed schema validation",
					slog.String("path", r.URL.Path),
					slog.String("field", first.Field()),
					slog.Int("errors", len(result.Errors())),
				)
				writeError(w, http.StatusBadRequest, first.String())
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}, nil
}

// SanitizeInputs rejects markup characters in query parameters and path
// traversal sequences.
func SanitizeInputs(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dangerousChars := []string{"<", ">", "\"", "'"}
			for key, values := range r.URL.Query() {
				for _, val := range values {
					for _, char := range dangerousChars {
						if strings.Contains(val, char) {
							log.Warn("suspicious input detected",
								slog.String("path", r.URL.Path),
								slog.String("param", key),
								slog.String("pattern", char),
							)
							writeError(w, http.StatusBadRequest, "invalid input")
							return
						}
					}
				}
			}

			if strings.Contains(r.URL.Path, "..") {
				log.Warn("suspicious path pattern detected",
					slog.String("path", r.URL.Path),
				)
				writeError(w, http.StatusBadRequest, "invalid path")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
