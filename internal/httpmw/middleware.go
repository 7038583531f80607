package httpmw

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tradebotai/options-scanner/internal/logger"
)

// statusRecorder captures the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestID tags every request with a UUID, echoes it in the X-Request-ID
// header and writes one access-log line per request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info.Printf("🌐 %s %s %s -> %d (%v)", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
