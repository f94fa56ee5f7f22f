// Package handler contains HTTP request handlers for the task list.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the submitted form into an explicit request struct
//  2. Call the item service
//  3. Redirect (writes) or render the page (reads)
//
// Handlers hold no item state between requests; every request re-reads or
// re-writes through the service.
package handler

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/csrf"
	"github.com/sakif/tasklist/internal/model"
)

// ListPath is where every write redirects to.
const ListPath = "/"

// ItemService is the subset of service.ItemService the handlers need.
type ItemService interface {
	ListAll(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, text string) (*model.Item, error)
	Update(ctx context.Context, id string, newText *string, markCompleted bool) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

// ItemHandler serves the list page and the three form endpoints.
// Templates are parsed once in NewItemHandler and reused for every request.
type ItemHandler struct {
	items     ItemService
	templates *template.Template
	logger    *slog.Logger
}

// NewItemHandler parses base.html and index.html from templates. base.html
// defines the page shell with a {{template "content" .}} slot that
// index.html fills.
func NewItemHandler(items ItemService, templates fs.FS, logger *slog.Logger) (*ItemHandler, error) {
	tmpl, err := template.ParseFS(templates, "base.html", "index.html")
	if err != nil {
		return nil, err
	}
	return &ItemHandler{
		items:     items,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// pageData is everything index.html reads.
type pageData struct {
	Title         string
	Items         []model.Item
	CSRFToken     string
	MaxTextLength int
}

// =========================================================================
// REQUEST STRUCTS
// =========================================================================

type createRequest struct {
	Text string
}

// updateRequest carries the checkbox-presence rule: Completed is whether the
// "completed" key was submitted at all. Browsers omit unchecked checkboxes,
// so absence means false, never "unchanged". Text is nil when the field was
// not submitted.
type updateRequest struct {
	ID        string
	Text      *string
	Completed bool
}

type deleteRequest struct {
	ID string
}

func parseCreateRequest(r *http.Request) (createRequest, error) {
	if err := r.ParseForm(); err != nil {
		return createRequest{}, apperror.ValidationFailed("", "malformed form submission")
	}
	values, ok := r.PostForm["text"]
	if !ok {
		return createRequest{}, apperror.ValidationFailed("text", "text field is required")
	}
	return createRequest{Text: values[0]}, nil
}

func parseUpdateRequest(r *http.Request) (updateRequest, error) {
	if err := r.ParseForm(); err != nil {
		return updateRequest{}, apperror.ValidationFailed("", "malformed form submission")
	}
	ids, ok := r.PostForm["id"]
	if !ok {
		return updateRequest{}, apperror.ValidationFailed("id", "id field is required")
	}

	req := updateRequest{ID: ids[0]}
	if texts, ok := r.PostForm["text"]; ok {
		req.Text = &texts[0]
	}
	_, req.Completed = r.PostForm["completed"]
	return req, nil
}

func parseDeleteRequest(r *http.Request) (deleteRequest, error) {
	if err := r.ParseForm(); err != nil {
		return deleteRequest{}, apperror.ValidationFailed("", "malformed form submission")
	}
	ids, ok := r.PostForm["id"]
	if !ok {
		return deleteRequest{}, apperror.ValidationFailed("id", "id field is required")
	}
	return deleteRequest{ID: ids[0]}, nil
}

// =========================================================================
// HANDLERS
// =========================================================================

// HandleList renders every item, newest first.
//
// HTTP: GET /
//
// The page is rendered into a buffer first so a template error can still
// produce a clean 500 instead of a half-written page.
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListAll(r.Context())
	if err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	data := pageData{
		Title:         "To-Do List",
		Items:         items,
		CSRFToken:     csrf.TokenFromContext(r.Context()),
		MaxTextLength: model.MaxTextLength,
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("client went away during render", slog.String("error", err.Error()))
	}
}

// HandleCreate adds a new item.
//
// HTTP: POST /create  (form: text)
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateRequest(r)
	if err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	if _, err := h.items.Create(r.Context(), req.Text); err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	redirectToList(w, r)
}

// HandleUpdate edits an item's text and completion flag.
//
// HTTP: POST /update  (form: id, text?, completed?)
func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := parseUpdateRequest(r)
	if err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	if _, err := h.items.Update(r.Context(), req.ID, req.Text, req.Completed); err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	redirectToList(w, r)
}

// HandleDelete removes an item. An unknown id still redirects.
//
// HTTP: POST /delete  (form: id)
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := parseDeleteRequest(r)
	if err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	if err := h.items.Delete(r.Context(), req.ID); err != nil {
		writeFormError(w, r, h.logger, err)
		return
	}

	redirectToList(w, r)
}

// redirectToList answers a successful write with 302 Found → /.
func redirectToList(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, ListPath, http.StatusFound)
}
