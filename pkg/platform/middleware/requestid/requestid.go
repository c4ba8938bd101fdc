// Package requestid assigns each inbound request a correlation id, reusing
// the caller-supplied X-Request-ID header when present.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"proofgate/pkg/requestcontext"
)

// Header is the canonical correlation header.
const Header = "X-Request-ID"

// Middleware stores the request id in the context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
