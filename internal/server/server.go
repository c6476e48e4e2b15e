// Package server provides the optional HTTP surface for ankimcp.
//
// It mounts the MCP server over streamable HTTP at /mcp for clients
// that prefer a network transport over stdio, next to a /health
// endpoint that reports whether AnkiConnect is reachable.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/ankimcp/ankimcp/internal/anki"
	"github.com/ankimcp/ankimcp/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type Server struct {
	client *anki.Client
	mux    *http.ServeMux
	port   int
	listen func(network, address string) (net.Listener, error)
	serve  func(net.Listener, http.Handler) error
}

func New(c *anki.Client, port int) *Server {
	srv := &Server{client: c, port: port, listen: net.Listen, serve: http.Serve}
	srv.mux = http.NewServeMux()
	srv.routes()
	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listenFn := s.listen
	if listenFn == nil {
		listenFn = net.Listen
	}
	serveFn := s.serve
	if serveFn == nil {
		serveFn = http.Serve
	}

	ln, err := listenFn("tcp", addr)
	if err != nil {
		return fmt.Errorf("ankimcp server: listen %s: %w", addr, err)
	}
	log.Printf("[ankimcp] HTTP server listening on %s (MCP endpoint: /mcp)", addr)
	return serveFn(ln, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(
		mcp.NewServer(s.client),
		mcpserver.WithEndpointPath("/mcp"),
	))
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// handleHealth probes AnkiConnect with the version action. The server
// itself being up is not enough: clients want to know whether tool
// calls will reach Anki.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := s.client.Version(r.Context())
	if !out.Success {
		jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "degraded",
			"service": "ankimcp",
			"version": "0.1.0",
			"error":   out.Error,
		})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"service":      "ankimcp",
		"version":      "0.1.0",
		"anki_connect": out.Result,
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
