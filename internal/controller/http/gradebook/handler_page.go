package gradebook

import (
	"bytes"
	"net/http"

	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// pageData feeds templates/page.html.
type pageData struct {
	View        roster.View
	Draft       roster.FormDraft
	Editing     bool
	SubmitLabel string
	Revision    string
	Placeholder string
	Error       string
	FieldErrors map[string]string
}

// confirmData feeds templates/confirm.html.
type confirmData struct {
	Index    int
	Student  roster.Student
	Prompt   string
	Revision string
}

func (h *Handler) pageData() pageData {
	_, editing := h.ctrl.EditingIndex()
	return pageData{
		View:        h.ctrl.View(),
		Draft:       h.ctrl.Draft(),
		Editing:     editing,
		SubmitLabel: h.ctrl.SubmitLabel(),
		Revision:    h.ctrl.Store().Revision(),
		Placeholder: roster.EmptyPlaceholder,
	}
}

func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("render %s: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "page.html", h.pageData())
}

// submitForm POST /form
// Every posted field goes through Controller.Change, so a text field with a
// digit is refused the same way a keystroke would be.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.Debug("submitForm: bad form: %v", err)
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	var rejected []roster.FieldError
	for _, f := range roster.Fields {
		if !h.ctrl.Change(f, r.PostForm.Get(string(f))) {
			rejected = append(rejected, roster.FieldError{Field: f, Error: string(f) + " must not contain digits"})
		}
	}
	if len(rejected) > 0 {
		logger.Debug("submitForm: rejected %d fields", len(rejected))
		h.renderInvalid(w, roster.NewValidationError(rejected...))
		return
	}

	st, err := h.ctrl.Submit(r.Context())
	if err != nil {
		if errors.Is(err, roster.ErrInvalidDraft) {
			h.renderInvalid(w, err)
			return
		}
		logger.Error("submit: %v", err)
		http.Error(w, "failed to save student", http.StatusInternalServerError)
		return
	}
	logger.Debug("submitForm: saved %s %s", st.Name, st.LastName)
	redirectHome(w, r)
}

func (h *Handler) renderInvalid(w http.ResponseWriter, err error) {
	data := h.pageData()
	data.Error = roster.InvalidDraftMessage
	var verr *roster.ValidationError
	if errors.As(err, &verr) {
		data.FieldErrors = verr.FieldMap()
	}
	render(w, http.StatusUnprocessableEntity, "page.html", data)
}

// cancelForm POST /form/cancel
func (h *Handler) cancelForm(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Cancel()
	redirectHome(w, r)
}

// editStudent POST /students/{index}/edit
func (h *Handler) editStudent(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err == nil {
		_ = r.ParseForm()
		err = h.ctrl.Edit(i, roster.IfRevision(r.PostForm.Get("rev")))
	}
	if err != nil {
		status := statusFor(err)
		logger.Debug("editStudent: %v", err)
		http.Error(w, errorText(err, status), status)
		return
	}
	redirectHome(w, r)
}

// confirmDelete GET /students/{index}/delete renders the yes/no prompt.
func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	var st roster.Student
	if err == nil {
		st, err = h.ctrl.Store().At(i)
	}
	if err != nil {
		status := statusFor(err)
		logger.Debug("confirmDelete: %v", err)
		http.Error(w, errorText(err, status), status)
		return
	}
	render(w, http.StatusOK, "confirm.html", confirmData{
		Index:    i,
		Student:  st,
		Prompt:   roster.DeletePrompt,
		Revision: h.ctrl.Store().Revision(),
	})
}

// deleteStudent POST /students/{index}/delete with confirm=yes|no.
func (h *Handler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err == nil {
		_ = r.ParseForm()
		answer := r.PostForm.Get("confirm") == "yes"
		var deleted bool
		deleted, err = h.ctrl.Delete(r.Context(), i,
			roster.ConfirmFunc(func(string) bool { return answer }),
			roster.IfRevision(r.PostForm.Get("rev")))
		if err == nil {
			logger.Debug("deleteStudent: index=%d deleted=%t", i, deleted)
		}
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("delete student: %v", err)
		}
		http.Error(w, errorText(err, status), status)
		return
	}
	redirectHome(w, r)
}
