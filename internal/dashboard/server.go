// Package dashboard serves the upload-and-chart web front-end. Every request
// re-runs the whole cycle (parse, clean, classify, resolve, render) from the
// session's uploaded bytes.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uday-t-s/car-brand-sales/internal/chart"
	"github.com/uday-t-s/car-brand-sales/internal/config"
	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
	"github.com/uday-t-s/car-brand-sales/internal/table"
)

//go:embed templates/index.html
var templatesFS embed.FS

var allowedExt = map[string]bool{".csv": true, ".tsv": true, ".xlsx": true}

// Server is the dashboard HTTP front-end.
type Server struct {
	addr      string
	maxUpload int64
	logger    *zap.Logger
	pipe      pipeline.CleaningPipeline
	renderer  *chart.Renderer
	store     *Store
	page      *template.Template
}

// New builds a server from configuration. A nil logger disables logging.
func New(cfg *config.Global, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 32
	}
	return &Server{
		addr:      cfg.ListenAddr,
		maxUpload: int64(maxMB) << 20,
		logger:    logger,
		pipe:      pipeline.New(logger.Named("pipeline")),
		renderer:  chart.NewRenderer(cfg.ChartWidth, cfg.ChartHeight),
		store:     NewStore(cfg.MaxSessions),
		page:      page,
	}, nil
}

// Handler returns the routed, logged and panic-safe handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /chart/{session}", s.handleChart)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok\n")
	})
	return s.recoverer(s.logRequests(mux))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.logger.Info("dashboard listening", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

// selection is the control state carried in the query string.
type selection struct {
	Session string
	Kind    chart.Kind
	X       string
	Y       string
	Color   string
}

func parseSelection(q url.Values) selection {
	sel := selection{
		Session: q.Get("session"),
		Kind:    chart.Bar,
		X:       q.Get("x"),
		Y:       q.Get("y"),
		Color:   q.Get("color"),
	}
	if k, err := chart.ParseKind(q.Get("kind")); err == nil {
		sel.Kind = k
	}
	return sel
}

func (sel selection) request() chart.Request {
	return chart.Request{Kind: sel.Kind, X: sel.X, Y: sel.Y, Color: sel.Color}
}

func (sel selection) chartURL() string {
	q := url.Values{}
	q.Set("kind", sel.Kind.Slug())
	q.Set("x", sel.X)
	if sel.Y != "" {
		q.Set("y", sel.Y)
	}
	if sel.Color != "" {
		q.Set("color", sel.Color)
	}
	q.Set("format", "svg")
	return "/chart/" + url.PathEscape(sel.Session) + "?" + q.Encode()
}

// cycle is one parse/clean/classify pass over an upload.
type cycle struct {
	cleaned *table.Table
	cols    pipeline.Columns
	status  string
}

func (s *Server) runCycle(u *Upload) (*cycle, error) {
	tbl, err := table.Read(u.Filename, bytes.NewReader(u.Data), table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	cleaned := s.pipe.Clean(tbl)
	return &cycle{
		cleaned: cleaned,
		cols:    s.pipe.Classify(cleaned),
		status:  pipeline.StatusLine(u.Filename, cleaned.NumRows()),
	}, nil
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

func options(values []string, selected string) []option {
	out := make([]option, len(values))
	for i, v := range values {
		out[i] = option{Value: v, Label: v, Selected: v == selected}
	}
	return out
}

type pageData struct {
	Session    string
	Status     string
	Error      string
	Kinds      []option
	Kind       string
	XLabel     string
	XOptions   []option
	YOptions   []option
	ColorOpts  []option
	ShowY      bool
	ShowColor  bool
	ChartURL   string
	ChartTitle string
	Message    string
	Reason     string
}

func kindOptions(selected chart.Kind) []option {
	out := make([]option, 0, len(chart.Kinds()))
	for _, k := range chart.Kinds() {
		out = append(out, option{Value: k.Slug(), Label: k.String(), Selected: k == selected})
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sel := parseSelection(r.URL.Query())
	data := pageData{
		Kinds:   kindOptions(sel.Kind),
		Kind:    sel.Kind.Slug(),
		XLabel:  "X-axis",
		ShowY:   sel.Kind != chart.Pie,
		Message: chart.Placeholder,
	}
	if sel.Kind == chart.Pie {
		data.XLabel = "Names"
	}
	data.ShowColor = sel.Kind == chart.Scatter

	if sel.Session == "" {
		s.render(w, http.StatusOK, data)
		return
	}
	u, ok := s.store.Get(sel.Session)
	if !ok {
		data.Error = "Upload expired. Please upload the file again."
		s.render(w, http.StatusNotFound, data)
		return
	}
	data.Session = u.ID

	c, err := s.runCycle(u)
	if err != nil {
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}
	data.Status = c.status
	data.XOptions = options(c.cols.All(), sel.X)
	data.YOptions = options(c.cols.Numeric, sel.Y)
	data.ColorOpts = options(c.cols.All(), sel.Color)

	if sel.X == "" {
		s.render(w, http.StatusOK, data)
		return
	}
	spec, err := chart.Resolve(sel.request(), c.cols)
	if err != nil {
		var verr *chart.ValidationError
		if errors.As(err, &verr) {
			data.Reason = verr.Error()
		}
		s.render(w, http.StatusOK, data)
		return
	}
	if c.cleaned.NumRows() == 0 {
		data.Reason = chart.ErrNoData.Error()
		s.render(w, http.StatusOK, data)
		return
	}
	data.Message = ""
	data.ChartURL = sel.chartURL()
	data.ChartTitle = spec.Title
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Kinds:   kindOptions(chart.Bar),
		Kind:    chart.Bar.Slug(),
		XLabel:  "X-axis",
		ShowY:   true,
		Message: chart.Placeholder,
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		data.Error = "Upload too large or malformed."
		s.render(w, http.StatusBadRequest, data)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		data.Error = "Choose a CSV file to upload."
		s.render(w, http.StatusBadRequest, data)
		return
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	if !allowedExt[strings.ToLower(filepath.Ext(name))] {
		data.Error = fmt.Sprintf("Unsupported file type %q. Upload a .csv, .tsv or .xlsx file.", name)
		s.render(w, http.StatusBadRequest, data)
		return
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		data.Error = "Could not read the upload."
		s.render(w, http.StatusBadRequest, data)
		return
	}
	// Reject undecodable files now instead of on every later render.
	if _, err := table.Read(name, bytes.NewReader(raw), table.ReadOptions{}); err != nil {
		s.logger.Info("upload rejected", zap.String("filename", name), zap.Error(err))
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}

	u := s.store.Put(name, raw)
	s.logger.Info("upload stored",
		zap.String("session", u.ID),
		zap.String("filename", name),
		zap.Int("bytes", len(raw)),
	)
	http.Redirect(w, r, "/?session="+url.QueryEscape(u.ID), http.StatusSeeOther)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := parseSelection(q)
	sel.Session = r.PathValue("session")

	format := chart.SVG
	if v := q.Get("format"); v != "" {
		f, err := chart.ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	u, ok := s.store.Get(sel.Session)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	c, err := s.runCycle(u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	spec, err := chart.Resolve(sel.request(), c.cols)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, spec, c.cleaned, format); err != nil {
		var verr *chart.ValidationError
		switch {
		case errors.Is(err, chart.ErrNoData), errors.As(err, &verr):
			http.Error(w, chart.Placeholder, http.StatusUnprocessableEntity)
		default:
			s.logger.Error("chart render failed", zap.String("session", u.ID), zap.Error(err))
			http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
