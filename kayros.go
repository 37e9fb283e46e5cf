// Package kayros is the top-level entry point: New builds an App with sane
// defaults, Tune overrides configuration, Listen binds a socket and starts
// the dispatcher and acceptor, Serve blocks until shutdown.
package kayros

import (
	"net"
	"sync"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/acceptor"
	"github.com/kayros-web/kayros/internal/dispatcher"
	"github.com/kayros-web/kayros/internal/server"
	"github.com/kayros-web/kayros/router"
	"go.uber.org/zap"
)

// App owns the whole running stack: dispatcher, acceptor, server core, and
// router.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	router *router.Router

	disp *dispatcher.Dispatcher
	srv  *server.Server
	acc  *acceptor.Acceptor

	stopOnce sync.Once
	done     chan struct{}
	stopErr  error
}

// defaultCORS matches spec.md §4.8's S4 scenario policy, permissive enough
// for a demo deployment. New installs it on the App's router; App has no
// method for replacing that router or its policy.
func defaultCORS() router.CORSPolicy {
	return router.CORSPolicy{
		AllowedOrigins: "*",
		AllowedMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowedHeaders: "Content-Type",
	}
}

// New builds an App with default configuration and a production zap logger.
func New() *App {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}

	return &App{
		cfg:    config.Default(),
		log:    log,
		router: router.New(defaultCORS()),
		done:   make(chan struct{}),
	}
}

// Tune overrides the App's configuration; any zero-valued field of cfg falls
// back to config.Default() via config.Fill.
func (a *App) Tune(cfg config.Config) *App {
	filled := config.Fill(cfg)
	a.cfg = &filled
	return a
}

// SetLogger replaces the default production zap.Logger.
func (a *App) SetLogger(log *zap.Logger) *App {
	a.log = log
	return a
}

// Router exposes the App's router for endpoint registration before Listen.
func (a *App) Router() *router.Router { return a.router }

// Server exposes the App's server core once Listen has run, for reading
// Totals. The App always configures a router, so handlers installed with
// SetDefaultHandler are not consulted.
func (a *App) Server() *server.Server { return a.srv }

// Listen binds addr and starts the dispatcher's event loop and the acceptor.
// It returns once the listener is bound and accepting; call Serve to block
// until shutdown.
func (a *App) Listen(addr string) error {
	ln, err := acceptor.Listen(addr)
	if err != nil {
		return err
	}
	return a.listenOn(ln)
}

func (a *App) listenOn(ln net.Listener) error {
	a.disp = dispatcher.New(a.cfg.Dispatcher)
	a.srv = server.New(a.cfg, a.log, a.disp, a.router)

	go a.disp.Run()
	a.acc = a.srv.Start(ln)

	a.log.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Serve blocks until GracefulStop or Stop is called, returning
// ErrGracefulShutdown or ErrShutdown respectively so the caller can tell
// which stop path ended the run.
func (a *App) Serve() error {
	<-a.done
	return a.stopErr
}

// ListenAndServe is Listen+Serve combined, the shape the Cobra command uses.
func (a *App) ListenAndServe(addr string) error {
	if err := a.Listen(addr); err != nil {
		return err
	}
	return a.Serve()
}

// GracefulStop stops accepting new connections, then stops the dispatcher:
// its event loop ends first, and Stop then waits for in-flight sessions and
// worker-pool tasks to finish, per spec.md §5's "in-flight sessions must
// complete or observe their socket being closed by the remote side". Session
// completions posted during that wait are not folded into the server's
// Totals. Serve returns ErrGracefulShutdown once this unblocks it.
func (a *App) GracefulStop() {
	a.stop(kerrors.ErrGracefulShutdown)
}

// Stop is an alias for GracefulStop: the dispatcher's Stop already waits for
// outstanding worker tasks, so there is no separate hard-stop path — spec.md
// leaves in-flight sessions to finish or be cut by the remote side either
// way. It only differs from GracefulStop in the sentinel Serve returns
// (ErrShutdown), so a caller can distinguish which entry point was used.
func (a *App) Stop() {
	a.stop(kerrors.ErrShutdown)
}

func (a *App) stop(reason error) {
	a.stopOnce.Do(func() {
		a.stopErr = reason
		if a.acc != nil {
			_ = a.acc.Close()
		}
		if a.disp != nil {
			a.disp.Stop()
		}
		close(a.done)
	})
}
