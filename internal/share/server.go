// Package share serves one workflow's cleaned JSON over a short-lived local
// HTTP endpoint, optionally fronted by a cloudflared tunnel.
package share

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// SanitizeID reduces a workflow id to a stable lowercase file basename,
// keeping only [a-z0-9_-].
func SanitizeID(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "workflow"
	}
	return b.String()
}

// Server exposes a single workflow document for download.
type Server struct {
	doc      workflow.Document
	basename string
	payload  []byte

	listener net.Listener
	httpSrv  *http.Server
}

// NewServer prepares a share server for the given document. The filename
// comes from the id argument, not the document, so a cleaned (id-free)
// document still gets a stable URL. The document is encoded once up front so
// every request serves identical bytes.
func NewServer(doc workflow.Document, id string) (*Server, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	return &Server{
		doc:      doc,
		basename: SanitizeID(id),
		payload:  payload,
	}, nil
}

// Filename returns the path component the document is served under.
func (s *Server) Filename() string {
	return s.basename + ".json"
}

// Start binds the listener and begins serving. bindAll exposes the server on
// every interface instead of loopback only. The server has no idle or
// keepalive timeout: a share link must stay valid until explicitly stopped.
func (s *Server) Start(port int, bindAll bool) error {
	host := "127.0.0.1"
	if bindAll {
		host = "0.0.0.0"
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("cannot listen on port %d: %w", port, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.httpSrv = &http.Server{Handler: mux}

	go s.httpSrv.Serve(listener)
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><h3>%s</h3><p><a href=%q>%s</a></p></body></html>",
			s.doc.Name(), "/"+s.Filename(), s.Filename())
	case "/" + s.Filename():
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.payload)
	default:
		http.NotFound(w, r)
	}
}

// URL returns the local base URL of the running server.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	addr := s.listener.Addr().(*net.TCPAddr)
	host := addr.IP.String()
	if addr.IP.IsUnspecified() {
		if ip := localIP(); ip != "" {
			host = ip
		} else {
			host = "localhost"
		}
	}
	return fmt.Sprintf("http://%s:%d", host, addr.Port)
}

// DocumentURL returns the full local URL of the served JSON file.
func (s *Server) DocumentURL() string {
	return s.URL() + "/" + s.Filename()
}

// Port returns the bound port, useful when Start was called with port 0.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// localIP finds a non-loopback IPv4 address for display when the server is
// bound to all interfaces.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
