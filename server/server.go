// Package server is the reference backend for the repository client:
// an in-memory keyed-resource store speaking the CRUD, bulk and
// statement wire protocol. It exists so the client has something real
// to integrate against; it is not a production datastore.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/maypok86/otter"

	"github.com/corraldb/corral/api"
	"github.com/corraldb/corral/statement"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

type server struct {
	cfg   Config
	store *store
	stmts otter.Cache[string, *statement.Parsed]
}

func newServer(cfg Config) (*server, error) {
	cache, err := otter.MustBuilder[string, *statement.Parsed](cfg.CacheSize).
		WithTTL(cfg.CacheTTL).
		Build()
	if err != nil {
		return nil, err
	}

	return &server{
		cfg:   cfg,
		store: newStore(),
		stmts: cache,
	}, nil
}

// New assembles the echo instance with all routes and middleware.
// Exposed separately from Main so tests can run the server in-process.
func New(cfg Config) (*echo.Echo, error) {
	s, err := newServer(cfg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Binder = &binder{defaultBinder: &echo.DefaultBinder{}}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return gonanoid.Must()
		},
	}))
	e.Use(TracingMiddleware)
	e.Use(PrometheusMiddleware)

	e.GET("/:resource/statement/*", s.handleStatement)

	e.POST("/:resource/bulk", s.handleBulkCreate)
	e.GET("/:resource/bulk", s.handleBulkRead)
	e.PUT("/:resource/bulk", s.handleBulkUpdate)
	e.DELETE("/:resource/bulk", s.handleBulkDelete)

	e.POST("/:resource/*", s.handleCreate)
	e.GET("/:resource/*", s.handleRead)
	e.PUT("/:resource/*", s.handleUpdate)
	e.DELETE("/:resource/*", s.handleDelete)

	return e, nil
}

// Main runs the server until it fails.
func Main(cfg Config) error {
	if cfg.OTLPEndpoint != "" {
		if err := initTracing(cfg.OTLPEndpoint); err != nil {
			return err
		}
	}

	e, err := New(cfg)
	if err != nil {
		return err
	}

	go statsd(cfg.MetricsListen)

	log.Info("listening", "addr", cfg.Listen)
	return e.Start(cfg.Listen)
}

// fail renders a taxonomy error body with the status embedded, the
// shape the client-side classifier understands.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, api.ErrorBody{Error: message, Status: status})
}

// binder decodes JSON with UseNumber so numeric record values survive
// comparisons without float rounding on re-encode.
type binder struct {
	defaultBinder *echo.DefaultBinder
}

func (b *binder) Bind(i interface{}, c echo.Context) error {
	if c.Request().Method == http.MethodPost || c.Request().Method == http.MethodPut {
		if c.Request().Header.Get(echo.HeaderContentType) == echo.MIMEApplicationJSON {
			dec := json.NewDecoder(c.Request().Body)
			dec.UseNumber()
			if err := dec.Decode(i); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return nil
		}
	}
	return b.defaultBinder.Bind(i, c)
}
