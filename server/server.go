// Package server exposes wizard sessions over JSON for a browser front end.
// Sessions live in memory and are keyed by UUID; each wraps a
// wizard.Controller bound to the caller's backend credentials.
package server

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/wizard"
)

// Options configures a Server.
type Options struct {
	Backend        string // simulation backend base URL
	Timeout        time.Duration
	Creds          client.Credentials // used when a request carries no bearer token
	AllowedOrigins []string
	Report         report.Options
	Mode           string // gin mode
}

// Server holds the wizard sessions.
type Server struct {
	opts    Options
	catalog lexicon.Catalog

	mu       sync.Mutex
	sessions map[string]*session

	newID func() string
}

type session struct {
	ctrl    *wizard.Controller
	created time.Time
	done    chan struct{} // closed on delete
}

func New(opts Options) *Server {
	return &Server{
		opts:     opts,
		catalog:  lexicon.Default(),
		sessions: make(map[string]*session),
		newID:    func() string { return uuid.NewString() },
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	if s.opts.Mode != "" {
		gin.SetMode(s.opts.Mode)
	}
	router := gin.New()
	router.Use(CORS(s.opts.AllowedOrigins))
	router.Use(Logger())
	router.Use(ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.count()})
	})

	api := router.Group("/api/v1", OriginGuard(s.allowOrigin))
	{
		api.GET("/lexicon", s.listLexicon)
		api.POST("/turtle", s.sizeTurtle)

		w := api.Group("/wizard")
		w.POST("", s.createSession)
		w.GET("/:id", s.getSession)
		w.DELETE("/:id", s.deleteSession)
		w.POST("/:id/mode", s.selectMode)
		w.POST("/:id/asset", s.selectAsset)
		w.POST("/:id/upload", s.uploadFile)
		w.GET("/:id/columns", s.listColumns)
		w.POST("/:id/column", s.selectColumn)
		w.POST("/:id/params", s.submitParams)
		w.POST("/:id/back", s.back)
		w.POST("/:id/restart", s.restart)
		w.GET("/:id/report", s.getReport)
		w.GET("/:id/events", s.streamEvents)
	}

	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, CodeNotFound, "Not found")
	})
	return router
}

// ListenAndServe runs the HTTP surface on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logrus.Infof("serving wizard sessions on %s (backend %s)", addr, s.opts.Backend)
	return srv.ListenAndServe()
}

// allowOrigin reports whether a request may reach the API. Requests with no
// Origin (CLI tools) and same-origin pages always may; other pages only
// when listed in AllowedOrigins or the list holds "*".
func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

func (s *Server) open(c *gin.Context) string {
	creds := s.opts.Creds
	if tok, ok := bearer(c.GetHeader("Authorization")); ok {
		creds = tokenCreds(tok)
	}
	api := client.New(s.opts.Backend, creds, s.opts.Timeout)

	id := s.newID()
	s.mu.Lock()
	s.sessions[id] = &session{ctrl: wizard.NewController(api), created: time.Now(), done: make(chan struct{})}
	s.mu.Unlock()
	logrus.Debugf("session %s opened", id)
	return id
}

func (s *Server) lookup(id string) (*wizard.Controller, bool) {
	sess, ok := s.session(id)
	if !ok {
		return nil, false
	}
	return sess.ctrl, true
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	delete(s.sessions, id)
	close(sess.done)
	return true
}

func (s *Server) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// tokenCreds is a bearer token forwarded from the browser.
type tokenCreds string

func (t tokenCreds) AccessToken() string { return string(t) }
func (t tokenCreds) ChatAPIKey() string  { return "" }
