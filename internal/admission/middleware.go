package admission

import (
	"net/http"
	"time"
)

// Middleware mounts the chain in front of the backend hand-off. On halt it
// writes the terminal response; on continue it applies the injected headers
// to the outbound request. Completion and error timing are reported to the
// observer wherever the chain stopped.
func Middleware(chain *Chain, observer *PipelineLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Clients must not smuggle identity past authentication.
			for _, h := range identityHeaders {
				r.Header.Del(h)
			}

			req := Snapshot(r)
			out := chain.Admit(req)

			if out.Halted() {
				w.Header().Set(HeaderError, out.Message)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(out.Status)

				if observer != nil {
					elapsed := time.Since(start)
					observer.Failed(req, out.Message, elapsed)
					observer.Completed(req, out.Status, elapsed)
				}
				return
			}

			for k, v := range out.Headers {
				r.Header.Set(k, v)
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if observer != nil {
				observer.Completed(req, sw.status, time.Since(start))
			}
		})
	}
}

// statusWriter captures the final status for completion logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards Flush so streaming responses keep working through the
// wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
