package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SentiMatch/pkg/logger"
)

// Service is a long running component such as the HTTP server or a queue consumer.
type Service interface {
	Start() error
	Stop(ctx context.Context) error
}

// App encapsulates the application lifecycle: start services, wait for a
// signal, stop services in reverse order, then release clients.
type App struct {
	log             *logger.Logger
	services        []namedService
	closers         []namedCloser
	shutdownTimeout time.Duration
	signals         []os.Signal
}

type namedService struct {
	name string
	svc  Service
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates an App that waits for SIGINT/SIGTERM.
func New(l *logger.Logger, shutdownTimeout time.Duration) *App {
	if l == nil {
		l = logger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{
		log:             l,
		shutdownTimeout: shutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// AddService registers a service; services start in registration order.
func (a *App) AddService(name string, svc Service) *App {
	if svc != nil {
		a.services = append(a.services, namedService{name: name, svc: svc})
	}
	return a
}

// AddCloser registers an infrastructure client released after services stop.
func (a *App) AddCloser(name string, c io.Closer) *App {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
	return a
}

// Run starts every service and blocks until ctx ends or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	for i, s := range a.services {
		if err := s.svc.Start(); err != nil {
			a.log.Error("service start failed", logger.String("service", s.name), logger.Error(err))
			a.stopServices(a.services[:i])
			a.closeAll()
			return err
		}
		a.log.Info("service started", logger.String("service", s.name))
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown()
}

// Shutdown stops services and closes clients. It is safe to call once after Run returns early.
func (a *App) Shutdown() error {
	a.stopServices(a.services)
	a.closeAll()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) stopServices(services []namedService) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		s := services[i]
		if err := s.svc.Stop(ctx); err != nil {
			a.log.Warn("service stop error", logger.String("service", s.name), logger.Error(err))
		}
	}
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.c.Close(); err != nil {
			a.log.Warn("close error", logger.String("client", c.name), logger.Error(err))
		}
	}
	a.closers = nil
}
