// Package diag implements an HTTP introspection server exposing pool,
// neighbor-table, network-data, and resolver-cache state as JSON, for
// operators debugging a running node. It never participates in the
// Thread protocol itself.
package diag

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hwipl/thread-core/internal/logging"
	"github.com/hwipl/thread-core/internal/netif"
)

var log = logging.For("diag")

// Server is the diagnostics HTTP server for one netif.Node.
type Server struct {
	port       int
	node       *netif.Node
	router     *mux.Router
	httpServer *http.Server
}

// New builds a Server bound to node, listening on port once Run is
// called.
func New(port int, node *netif.Node) *Server {
	s := &Server{
		port:   port,
		node:   node,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/buffers", s.handleBuffers).Methods("GET")
	api.HandleFunc("/neighbors", s.handleNeighbors).Methods("GET")
	api.HandleFunc("/networkdata", s.handleNetworkData).Methods("GET")
	api.HandleFunc("/resolver", s.handleResolver).Methods("GET")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("diag request")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// server fails. It shuts the server down cleanly on cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.router.Use(loggingMiddleware)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		log.Info("context done, shutting down diagnostics server")
		s.httpServer.Shutdown(context.Background())
	}()

	log.WithField("port", s.port).Info("starting diagnostics server")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
