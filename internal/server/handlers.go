package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MembersResponse lists the members of a type
type MembersResponse struct {
	Type    string       `json:"type"`
	Members []MemberView `json:"members"`
}

type handler struct {
	ctx    typesystem.ResolveContext
	logger *zap.Logger
}

// HandlerOption configures NewHandler
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	events *Events
	auth   *TokenAuth
}

// WithEvents serves change notifications from events at /events
func WithEvents(events *Events) HandlerOption {
	return func(o *handlerOptions) { o.events = events }
}

// WithTokenAuth requires a bearer token issued by auth on every route except
// /healthz
func WithTokenAuth(auth *TokenAuth) HandlerOption {
	return func(o *handlerOptions) { o.auth = auth }
}

// NewHandler returns the query API over ctx
func NewHandler(ctx typesystem.ResolveContext, logger *zap.Logger, opts ...HandlerOption) http.Handler {
	if ctx == nil {
		panic("server: nil ResolveContext")
	}
	var options handlerOptions
	for _, opt := range opts {
		opt(&options)
	}
	logger = logging.OrNop(logger)
	h := &handler{ctx: ctx, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if options.auth != nil {
		r.Use(requireToken(options.auth))
	}

	r.Get("/healthz", h.health)
	r.Get("/namespaces", h.namespaces)
	if options.events != nil {
		r.Get("/events", options.events.ServeHTTP)
	}
	r.Route("/types", func(r chi.Router) {
		r.Get("/", h.listTypes)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.getType)
			r.Get("/bases", h.bases)
			r.Get("/nested", h.nested)
			r.Get("/members", h.members)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, http.StatusNotFound, "not_found", fmt.Errorf("no route for %s", r.URL.Path), "")
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) namespaces(w http.ResponseWriter, r *http.Request) {
	ns := h.ctx.Namespaces()
	if ns == nil {
		ns = []string{}
	}
	render(w, http.StatusOK, ns)
}

func (h *handler) listTypes(w http.ResponseWriter, r *http.Request) {
	namespace, filter := r.URL.Query().Get("namespace"), r.URL.Query().Has("namespace")

	views := []TypeView{}
	for def := range h.ctx.TypeDefinitions() {
		if filter && def.Namespace() != namespace {
			continue
		}
		views = append(views, DescribeType(h.ctx, def))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ReflectionName < views[j].ReflectionName })
	render(w, http.StatusOK, views)
}

func (h *handler) getType(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, http.StatusOK, DescribeType(h.ctx, t))
}

func (h *handler) bases(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var types []typesystem.Type
	if r.URL.Query().Get("all") == "true" {
		types = typesystem.AllBaseTypes(h.ctx, t)
	} else {
		types = typesystem.Collect(t.BaseTypes(h.ctx))
	}
	render(w, http.StatusOK, DescribeTypes(h.ctx, types))
}

func (h *handler) nested(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, http.StatusOK, DescribeTypes(h.ctx, typesystem.Collect(t.NestedTypes(h.ctx, nil))))
}

func (h *handler) members(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var members []typesystem.Member
	switch kind := r.URL.Query().Get("kind"); kind {
	case "":
		members = typesystem.Collect(t.Members(h.ctx, nil))
	case "constructor":
		members = asMembers(t.Constructors(h.ctx, nil))
	case "method":
		members = asMembers(t.Methods(h.ctx, nil))
	case "property":
		members = asMembers(t.Properties(h.ctx, nil))
	case "field":
		members = asMembers(t.Fields(h.ctx, nil))
	case "event":
		members = asMembers(t.Events(h.ctx, nil))
	default:
		renderError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("unknown member kind %q", kind), "")
		return
	}

	views := make([]MemberView, len(members))
	for i, m := range members {
		views[i] = DescribeMember(h.ctx, m)
	}
	render(w, http.StatusOK, MembersResponse{Type: t.ReflectionName(), Members: views})
}

// lookup resolves the {name} path parameter. It answers 400 for malformed
// names and 404 for names that do not resolve.
func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (typesystem.Type, bool) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		renderError(w, http.StatusBadRequest, "bad_request", err, "")
		return nil, false
	}

	t, err := Resolve(h.ctx, name)
	var rne *typesystem.ReflectionNameError
	switch {
	case errors.As(err, &rne):
		renderError(w, http.StatusBadRequest, "invalid_type_name", err, string(rne.Code))
		return nil, false
	case err != nil:
		h.logger.Debug("type not found", zap.String("name", name))
		renderError(w, http.StatusNotFound, "not_found", err, "")
		return nil, false
	}
	return t, true
}

func asMembers[M typesystem.Member](seq iter.Seq[M]) []typesystem.Member {
	out := []typesystem.Member{}
	for m := range seq {
		out = append(out, m)
	}
	return out
}

func render(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func renderError(w http.ResponseWriter, status int, kind string, err error, code string) {
	render(w, status, ErrorResponse{Error: kind, Message: err.Error(), Code: code})
}
