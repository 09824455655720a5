package httpx

import (
	"log/slog"
	"net/http"
)

// UIHandlers serves the pages and the HTMX fragments that fill them in.
type UIHandlers struct {
	T      *TemplateRenderer
	IsDev  bool // show template errors in the response
	Logger *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// renderPage renders the full layout, or only the content area for HTMX swaps.
func renderPage(w http.ResponseWriter, r *http.Request, p pageRender) {
	out := withStatus(w, p.Status)
	var err error
	if WantsPartial(r) {
		err = p.T.RenderPartial(out, r, p.Data)
	} else {
		err = p.T.RenderFull(out, r, p.Data)
	}
	if err != nil {
		logAndRenderTemplateError(w, templateFailure{Logger: p.Logger, Err: err, Where: "page render", IsDev: p.IsDev})
	}
}

type pageRender struct {
	T      *TemplateRenderer
	Data   map[string]any
	Status int
	IsDev  bool
	Logger *slog.Logger
}

// renderFragment renders one named partial with the given status.
func renderFragment(w http.ResponseWriter, f fragmentRender) {
	if err := f.T.RenderFragment(withStatus(w, f.Status), f.Name, f.Data); err != nil {
		logAndRenderTemplateError(w, templateFailure{Logger: f.Logger, Err: err, Where: f.Name, IsDev: f.IsDev})
	}
}

type fragmentRender struct {
	T      *TemplateRenderer
	Name   string
	Data   map[string]any
	Status int
	IsDev  bool
	Logger *slog.Logger
}

type templateFailure struct {
	Logger *slog.Logger
	Err    error
	Where  string
	IsDev  bool
}

// logAndRenderTemplateError answers 500; details are only shown in dev mode.
func logAndRenderTemplateError(w http.ResponseWriter, f templateFailure) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("template render failed", "where", f.Where, "error", f.Err)

	msg := "Internal Server Error"
	if f.IsDev {
		msg = "template error (" + f.Where + "): " + f.Err.Error()
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// statusWriter holds WriteHeader back until the first body write. The
// renderer only writes after a successful execution, so a failed render can
// still answer 500.
type statusWriter struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func withStatus(w http.ResponseWriter, code int) http.ResponseWriter {
	if code == 0 || code == http.StatusOK {
		return w
	}
	return &statusWriter{ResponseWriter: w, code: code}
}

func (s *statusWriter) WriteHeader(code int) {
	if s.wrote {
		return
	}
	s.wrote = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if !s.wrote {
		s.WriteHeader(s.code)
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusWriter) Unwrap() http.ResponseWriter { return s.ResponseWriter }
