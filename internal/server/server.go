// Package server is the REST+HTML front end: file upload, JSON analytics
// endpoints, and the embedded dashboard pages. All analytics are computed by
// running the dataset pipeline against the current table on every request.
package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/logging"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server serves the dashboard and its JSON API.
type Server struct {
	store     *store.Store
	maxUpload int64
}

// New creates a Server backed by the given dataset store. maxUpload caps
// accepted upload sizes in bytes.
func New(st *store.Store, maxUpload int64) *Server {
	return &Server{store: st, maxUpload: maxUpload}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.Index)
	r.Get("/results", s.Results)
	r.Post("/upload", s.Upload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.Stats)
		r.Get("/riders", s.Riders)
		r.Get("/schema", s.SchemaInfo)
		r.Get("/data/{period}", s.TimeSeries)
		r.Get("/leaderboard/{period}", s.Leaderboard)
		r.Get("/team-comparison", s.TeamComparison)
		r.Get("/news", s.News)
	})

	return r
}

// Index renders the upload/dashboard page.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index.html")
}

// Results renders the results page.
func (s *Server) Results(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "results.html")
}

func (s *Server) renderPage(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, nil); err != nil {
		logging.Error("rendering page", "template", name, "error", err.Error())
	}
}

// current returns the table requests should read: the uploaded dataset if
// one is loaded, else the bundled sample. Keeping the dashboard usable wins
// over strictness here.
func (s *Server) current() (*dataset.Table, error) {
	if t, ok := s.store.Current(); ok {
		return t, nil
	}
	return dataset.Sample()
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
