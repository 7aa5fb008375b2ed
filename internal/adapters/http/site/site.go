// Package site serves the Novaspire pages: the view router and the four
// views it switches between.
package site

import (
	"bytes"
	"context"
	"net/http"

	"github.com/okian/novaspire/internal/adapters/http/middleware"
	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
	"github.com/okian/novaspire/internal/domain/stash"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Backend is the set of analysis backend operations the views call.
type Backend interface {
	Register(ctx context.Context, creds model.Credentials) (model.RegisterResponse, error)
	UploadResume(ctx context.Context, req model.UploadRequest) (model.UploadResponse, error)
	FetchLatestResult(ctx context.Context) (model.AnalysisResult, error)
	FetchHistory(ctx context.Context) ([]model.HistoryEntry, error)
	ExportResultAsPDF(ctx context.Context) ([]byte, error)
}

// Dependencies is everything the views need from the application.
type Dependencies interface {
	Backend
	stash.Stash
}

const defaultMaxUploadBytes = 5 << 20

// Router resolves request paths to views. It is the only place that decides
// which view a response shows.
type Router struct {
	deps      Dependencies
	log       logger.Logger
	pages     map[route.Route]*pageTemplate
	views     map[route.Route]view
	maxUpload int64
}

type view struct {
	get  http.HandlerFunc
	post http.HandlerFunc
}

func (v view) allow() string {
	if v.post != nil {
		return "GET, HEAD, POST"
	}
	return "GET, HEAD"
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l logger.Logger) Option {
	return func(rt *Router) {
		if l != nil {
			rt.log = l
		}
	}
}

// WithMaxUploadBytes caps the upload request body.
func WithMaxUploadBytes(n int64) Option {
	return func(rt *Router) {
		if n > 0 {
			rt.maxUpload = n
		}
	}
}

// NewRouter parses the page templates and builds the view table.
func NewRouter(deps Dependencies, opts ...Option) (*Router, error) {
	if deps == nil {
		return nil, NewKind("new router", ErrNoDependencies)
	}
	rt := &Router{deps: deps, maxUpload: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.log == nil {
		rt.log = logger.Named("site")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, WrapKind("new router", ErrTemplate, err)
	}
	rt.pages = pages

	rt.views = map[route.Route]view{
		route.Landing: {get: rt.landing, post: rt.register},
		route.Upload:  {get: rt.uploadForm, post: rt.upload},
		route.Results: {get: rt.results, post: rt.exportPDF},
		route.History: {get: rt.history},
	}
	return rt, nil
}

// Register attaches the router, with request ids, access logs and metrics,
// at the root of mux.
func (rt *Router) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", rt.Handler())
}

// Handler returns the router wrapped in the site middleware chain.
func (rt *Router) Handler() http.Handler {
	return middleware.RequestID(middleware.AccessLog(rt.log, rt))
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, ok := route.Resolve(r.URL.Path)
	if !ok {
		middleware.MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			rt.navigate(w, r, "unknown", route.Landing, http.StatusFound)
		}, "redirect")(w, r)
		return
	}

	v := rt.views[target]
	var h http.HandlerFunc
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h = v.get
	case http.MethodPost:
		h = v.post
	}
	if h == nil {
		h = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Allow", v.allow())
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	}
	middleware.MetricsMiddleware(h, target.String())(w, r)
}

// navigate redirects to another view. Every programmatic view switch goes
// through here.
func (rt *Router) navigate(w http.ResponseWriter, r *http.Request, from string, to route.Route, status int) {
	metrics.RecordNavigation(from, to.String())
	rt.log.Debug(r.Context(), "navigate",
		logger.String("from", from),
		logger.String("to", to.String()),
		logger.String("path", r.URL.Path),
	)
	http.Redirect(w, r, to.Path(), status)
}

// render executes the page for target into a buffer first so a template
// failure still yields a clean 500.
func (rt *Router) render(w http.ResponseWriter, r *http.Request, target route.Route, status int, state string, data page) {
	data.Nav = navigation(target)
	data.View = target.String()
	if data.Flash == "" {
		data.Flash = takeFlash(w, r)
	}

	var buf bytes.Buffer
	if err := rt.pages[target].execute(&buf, data); err != nil {
		err = WrapKind("render "+target.String(), ErrRender, err)
		rt.log.Error(r.Context(), "render failed", logger.Error(err))
		metrics.RecordViewRender(target.String(), "error")
		metrics.RecordErrorByComponent("site", "render")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
	metrics.RecordViewRender(target.String(), state)
}

// page is the data every template receives. Body holds the view specific
// part.
type page struct {
	Title string
	View  string
	Nav   []navLink
	Flash string
	Error string
	Body  any
}

type navLink struct {
	Label  string
	Path   string
	Active bool
}

var navLabels = map[route.Route]string{
	route.Landing: "Home",
	route.Upload:  "Upload",
	route.Results: "Results",
	route.History: "History",
}

func navigation(active route.Route) []navLink {
	all := route.All()
	links := make([]navLink, 0, len(all))
	for _, r := range all {
		links = append(links, navLink{Label: navLabels[r], Path: r.Path(), Active: r == active})
	}
	return links
}
