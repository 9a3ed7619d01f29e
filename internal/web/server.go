// Package web serves the chat UI and the JSON extraction API.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/internal/model"
	"github.com/sells-group/extract-chat/internal/session"
)

//go:embed templates static
var assets embed.FS

// Extractor runs one extraction for the given inputs.
type Extractor interface {
	Submit(ctx context.Context, url, prompt string, fields []model.SchemaField) (*extract.Outcome, error)
}

// Options configures a Server.
type Options struct {
	CookieName     string
	SecureCookie   bool
	AllowedOrigins []string
}

// Server holds the handlers' dependencies.
type Server struct {
	store     *session.Store
	extractor Extractor
	opts      Options
	tmpl      *template.Template
	static    fs.FS
}

// New parses the embedded templates and returns a Server.
func New(store *session.Store, extractor Extractor, opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = "extract_session"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse templates")
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, eris.Wrap(err, "web: static assets")
	}

	return &Server{
		store:     store,
		extractor: extractor,
		opts:      opts,
		tmpl:      tmpl,
		static:    static,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Post("/start", s.handleStart)
		r.Post("/url", s.handleURL)
		r.Post("/fields", s.handleFields)
		r.Post("/example", s.handleExample)
		r.Post("/chat", s.handleChat)
		r.Post("/chat/reset", s.handleResetChat)
		r.Get("/messages/{index}/export/{format}", s.handleExport)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Post("/extract", s.handleAPIExtract)
		r.With(s.withSession).Get("/session", s.handleAPISession)
	})

	return r
}

type ctxKey struct{}

// withSession attaches the caller's session, creating one and setting the
// cookie on first contact.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.opts.CookieName); err == nil {
			id = c.Value
		}
		st, created := s.store.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.opts.CookieName,
				Value:    st.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, st)))
	})
}

func sessionFrom(ctx context.Context) *session.State {
	st, _ := ctx.Value(ctxKey{}).(*session.State)
	return st
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
