// Package web serves the shutter pages and a JSON status endpoint.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/adjust"
	"github.com/jkaflik/birdcam/internal/device"
	"github.com/jkaflik/birdcam/internal/kv"
	"github.com/jkaflik/birdcam/internal/page"
	"github.com/jkaflik/birdcam/internal/site"
)

type Server struct {
	loop   *device.Loop
	store  kv.Store
	router chi.Router
	server *http.Server

	// session is the one adjustment session of the device. Concurrent
	// adjusters share it. It is only accessed on the loop goroutine.
	session adjust.Session
}

// NewServer serves the shutter run by loop. Site info is kept in store.
func NewServer(loop *device.Loop, store kv.Store) *Server {
	s := &Server{
		loop:   loop,
		store:  store,
		router: chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/page2", s.handleOpen)
	s.router.Get("/page3", s.handleClose)
	s.router.Get("/adjust", s.handleAdjust)
	s.router.Get("/adjust2", s.handleAdjustSubmit)
	s.router.Get("/siteinfo", s.handleSiteInfo)
	s.router.Get("/siteinfo2", s.handleSiteInfoSubmit)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		r.Get("/status", s.handleStatus)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	logrus.Infof("web: listening on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) render(w http.ResponseWriter, p page.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w, site.Load(s.store), p); err != nil {
		logrus.Errorf("web: %s", err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("web: marshal response failed: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	logrus.Warnf("web: %s", err)
	http.Error(w, http.StatusText(status), status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"remote":     r.RemoteAddr,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Debugf("web: %s %s", r.Method, r.URL.RequestURI())
	})
}
