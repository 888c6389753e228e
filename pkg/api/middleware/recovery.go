package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/whereissam/chainsearch/pkg/classify"
	"go.uber.org/zap"
)

// Recovery converts handler panics into the classified internal-error
// envelope, so a crash surfaces to clients the same way an ordinary
// classified failure does.
func Recovery(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
						zap.Any("panic", v),
						zap.String("stack", string(debug.Stack())),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error":      "internal server error",
						"code":       string(classify.CodeInternalError),
						"suggestion": classify.SuggestionFor(classify.CodeInternalError),
					})
				}
			}()

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
