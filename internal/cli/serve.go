package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	tverrors "github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/observability"
	"github.com/matzehuels/tileview/pkg/pipeline"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command. Generated documents link their
// stylesheets by relative name, which browsers only honor reliably over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [output-dir]",
		Short: "Serve converted documents over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := pipeline.DefaultOutput
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runServe(cmd.Context(), dir, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, dir, addr string) error {
	if err := tverrors.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return tverrors.Wrap(tverrors.ErrCodeFileNotFound, err, "output directory %s", dir)
		}
		return err
	}
	if !info.IsDir() {
		return tverrors.New(tverrors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	metrics := newServerMetrics()
	observability.SetServerHooks(metrics)
	defer observability.SetServerHooks(observability.NoopServerHooks{})

	srv := &http.Server{
		Handler:           newRouter(dir, c.Logger, metrics.handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	abs, _ := filepath.Abs(dir)
	printSuccess("Serving %s", abs)
	printKeyValue("URL", StyleLink.Render("http://"+ln.Addr().String()+"/"))
	printDetail("Press Ctrl+C to stop")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// newRouter serves the files of dir, and metrics under /metrics when
// metrics is not nil. Requests are logged at debug level and reported to
// the registered server hooks.
func newRouter(dir string, logger *log.Logger, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(middleware.SetHeader("Cache-Control", "no-cache"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.NotFound(notFound)
	r.Handle("/*", fileHandler(http.Dir(dir)))

	return r
}

// fileHandler serves files from root. Missing files are answered by
// notFound, since http.FileServer drops Cache-Control on its error path.
func fileHandler(root http.Dir) http.HandlerFunc {
	files := http.FileServer(root)
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(path.Clean("/" + r.URL.Path))
		if errors.Is(err, fs.ErrNotExist) {
			notFound(w, r)
			return
		}
		if err == nil {
			f.Close()
		}
		files.ServeHTTP(w, r)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, "404 page not found", http.StatusNotFound)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path, status, elapsed)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"id", middleware.GetReqID(r.Context()))
		})
	}
}
