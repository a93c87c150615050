package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/olimci/bijou/pkg/build"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/populate"
	"github.com/olimci/bijou/pkg/prefs"
)

const LangPath = "/_bijou/lang"

type Server struct {
	server  *http.Server
	addr    string
	builder *Builder
	events  events.Handler
}

type ServerConfig struct {
	Builder *Builder
	Hub     *ReloadHub
	Host    string
	Port    int
	Events  events.Handler
}

func NewServer(config ServerConfig) *Server {
	host := config.Host
	if host == "" {
		host = "127.0.0.1"
	}

	s := &Server{
		addr:    net.JoinHostPort(host, strconv.Itoa(config.Port)),
		builder: config.Builder,
		events:  config.Events,
	}
	s.server = &http.Server{
		Handler:           s.routes(config.Hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(hub *ReloadHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(ReloadMiddleware)

	r.Get(ReloadPath, hub.ServeHTTP)
	r.Get(LangPath, s.handleLang)
	r.Get("/", s.handlePage)
	r.Get("/index.html", s.handlePage)
	r.Get("/{lang:fr|ar}/", s.handlePage)

	static := NewStaticHandler(s.builder.Config().Site.Root)
	r.Get("/*", static.ServeHTTP)
	r.Head("/*", static.ServeHTTP)

	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// handlePage renders the page for this request: the cookie language (else
// French), or the language in the path, with ?filter= applied.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, bundle, ok := s.builder.Snapshot()
	if !ok {
		http.Error(w, "site not built yet", http.StatusServiceUnavailable)
		return
	}
	cfg := s.builder.Config()

	store := prefs.NewCookieStore(w, r)
	l := prefs.Resolve(store)
	if p := chi.URLParam(r, "lang"); p != "" {
		l = lang.ParseOr(p, l)
	}

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = content.FilterAll
	}

	opts := populate.ConfigOptions(cfg, store, s.events)
	opts = append(opts, populate.WithLanguage(l), populate.WithFilter(filter))
	c := populate.NewController(bundle, opts...)

	doc := page.Clone()
	if err := c.Render(doc); err != nil {
		events.Emit(s.events, events.Error, r.URL.Path, "render failed", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := c.Wire(doc, pageRoutes(c.State().Filter)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := build.Serialize(doc, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// handleLang stores the requested language, or the other one, and sends the
// browser back to the page.
func (s *Server) handleLang(w http.ResponseWriter, r *http.Request) {
	store := prefs.NewCookieStore(w, r)

	next := prefs.Resolve(store).Other()
	if to := r.URL.Query().Get("to"); to != "" {
		l, err := lang.Parse(to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next = l
	}

	if err := store.SetLanguage(next); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, pageURL(r.URL.Query().Get("filter")), http.StatusSeeOther)
}

func pageRoutes(filter string) populate.Routes {
	return populate.Routes{
		Lang: func(l lang.Lang) string {
			q := url.Values{"to": {string(l)}}
			if filter != "" && filter != content.FilterAll {
				q.Set("filter", filter)
			}
			return LangPath + "?" + q.Encode()
		},
		Filter: pageURL,
	}
}

func pageURL(filter string) string {
	if filter == "" || filter == content.FilterAll {
		return "/"
	}
	return "/?" + url.Values{"filter": {filter}}.Encode()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == ReloadPath {
			next.ServeHTTP(w, r)
			return
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		events.Emit(s.events, events.Debug, "http",
			fmt.Sprintf("%s %s %d %s", r.Method, r.URL.RequestURI(), m.Code, m.Duration.Truncate(time.Microsecond)), nil)
	})
}

func (s *Server) Start(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	go func() {
		_ = s.server.Serve(ln)
	}()

	go func() {
		<-ctx.Done()
		_ = s.server.Close()
	}()

	return "http://" + ln.Addr().String() + "/", nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
