package core

import "net/http"

// HandleHealthz is the liveness endpoint, mounted at GET /healthz. It always
// returns 200 with the body OK, independent of application or configuration
// state; load balancers use it purely to detect a hung process.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	Text(w, http.StatusOK, "OK")
}
