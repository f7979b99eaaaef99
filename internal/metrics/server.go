package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Server exposes a registry over HTTP while watching.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// StartServer binds listen and serves the registry at path, plus /healthz.
func StartServer(listen, path string, reg *prom.Registry) (*Server, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, foundationerrors.NewError(foundationerrors.CategoryRuntime, "cannot bind metrics listener").
			WithCause(err).
			WithContext("listen", listen).
			Build()
	}

	mux := http.NewServeMux()
	mux.Handle(path, HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s := &Server{
		srv: &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", ln.Addr().String()), logfields.Path(path))
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
