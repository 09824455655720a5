package httpx

import (
	"errors"
	"net/http"
)

// NotFound renders an HTML 404 for browsers and JSON otherwise.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) || h.T == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}

	data := NewTemplateData(r, PageMeta{Title: "Page Not Found"}).
		With("Code", "404").
		WithError("The page you're looking for doesn't exist.").
		Build()
	if err := h.T.RenderError(withStatus(w, http.StatusNotFound), r, data); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}
