// Package middlewares holds the thin HTTP middleware stack in front of the
// batch, metadata, and status handlers.
package middlewares

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestID attaches a random id to the request's logger and echoes it back
// as a response header, so every log line one phase of a batch request
// produces can be correlated with the rest.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.NewRandom()
		if err != nil {
			log.Warn().Err(err).Msg("failed to generate a request id")
			next.ServeHTTP(w, r)
			return
		}

		requestID := id.String()
		logger := log.With().Str("requestId", requestID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))
		w.Header().Set("Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}
