package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/api/authenticator"
	"github.com/curaious/taskboard/internal/config"
	"github.com/curaious/taskboard/internal/migrations"
	"github.com/curaious/taskboard/internal/services"
)

// Server is the fasthttp server fronting *services.Services
type Server struct {
	srv      *fasthttp.Server
	addr     string
	services *services.Services
	auth     *authenticator.Authenticator
}

// New runs pending migrations, wires the services and builds the router.
func New(conf *config.Config) *Server {
	m, err := migrations.NewMigrator(conf)
	if err != nil {
		panic("unable to create migrator")
	}

	err = m.Up(0)
	if err != nil {
		panic("unable to run migrations")
	}
	if err := m.Close(); err != nil {
		slog.Warn("Failed to close migrator connection", slog.Any("error", err))
	}

	auth, err := authenticator.New(conf)
	if err != nil {
		panic(err)
	}

	s := &Server{
		srv:      &fasthttp.Server{Name: "taskboard"},
		addr:     conf.HTTP_ADDR,
		services: services.NewServices(conf),
		auth:     auth,
	}

	s.srv.Handler = s.initRoutes()

	return s
}

// Start the rest server
func (s *Server) Start() {
	slog.Info("Starting REST server...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!")

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	// Create a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

// Shutdown shuts down the rest server
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}
	s.services.Close()
	slog.Info("REST server shutdown!")
}
