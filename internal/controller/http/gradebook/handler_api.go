package gradebook

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// studentJSON is one roster row on the wire.
type studentJSON struct {
	Index int `json:"index"`
	roster.Student
	Appreciation roster.Appreciation `json:"appreciation"`
}

func newStudentJSON(i int, st roster.Student) studentJSON {
	return studentJSON{Index: i, Student: st, Appreciation: roster.AppreciationFor(st.Grade)}
}

type studentListJSON struct {
	Revision string        `json:"revision"`
	Students []studentJSON `json:"students"`
}

type statsJSON struct {
	Average roster.Average `json:"average"`
	roster.Counts
}

// studentRequest accepts grade as a JSON number or a numeric string.
type studentRequest struct {
	Name     string          `json:"name"`
	LastName string          `json:"lastName"`
	Subject  string          `json:"subject"`
	Grade    json.RawMessage `json:"grade"`
}

func (req studentRequest) draft() (roster.FormDraft, error) {
	d := roster.FormDraft{Name: req.Name, LastName: req.LastName, Subject: req.Subject}
	raw := bytes.TrimSpace(req.Grade)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &d.Grade); err != nil {
			return d, err
		}
	default:
		d.Grade = string(raw)
	}
	return d, nil
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError answers with {error, fields}. Validation errors are 400 on
// the API; the page uses 422 for the same condition.
func writeAPIError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	body := apiError{Error: errorText(err, status)}
	var verr *roster.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.FieldMap()
	}
	if status == http.StatusInternalServerError {
		logger.Error("api: %v", err)
	}
	writeJSON(w, status, body)
}

// decodeStudent reads and validates the request body.
func decodeStudent(r *http.Request) (roster.Student, error) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return roster.Student{}, errInvalidJSON
	}
	d, err := req.draft()
	if err != nil {
		return roster.Student{}, errInvalidJSON
	}
	return roster.ParseDraft(d)
}

var errInvalidJSON = errors.New("invalidJson")

// apiListStudents GET /api/students
func (h *Handler) apiListStudents(w http.ResponseWriter, r *http.Request) {
	store := h.ctrl.Store()
	rev := store.Revision()
	students := store.Students()
	out := studentListJSON{Revision: rev, Students: make([]studentJSON, 0, len(students))}
	for i, st := range students {
		out.Students = append(out.Students, newStudentJSON(i, st))
	}
	logger.Debug("apiListStudents: returned %d items", len(out.Students))
	writeJSON(w, http.StatusOK, out)
}

// apiCreateStudent POST /api/students
func (h *Handler) apiCreateStudent(w http.ResponseWriter, r *http.Request) {
	st, err := decodeStudent(r)
	if errors.Is(err, errInvalidJSON) {
		http.Error(w, "invalidJson", http.StatusBadRequest)
		return
	}
	i := -1
	if err == nil {
		i, err = h.ctrl.Store().Append(r.Context(), st, roster.IfRevision(r.URL.Query().Get("rev")))
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}
	logger.Debug("apiCreateStudent: created index=%d", i)
	writeJSON(w, http.StatusCreated, newStudentJSON(i, st))
}

// apiReplaceStudent PUT /api/students/{index}
func (h *Handler) apiReplaceStudent(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	st, err := decodeStudent(r)
	if errors.Is(err, errInvalidJSON) {
		http.Error(w, "invalidJson", http.StatusBadRequest)
		return
	}
	if err == nil {
		err = h.ctrl.Store().Replace(r.Context(), i, st, roster.IfRevision(r.URL.Query().Get("rev")))
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}
	logger.Debug("apiReplaceStudent: replaced index=%d", i)
	writeJSON(w, http.StatusOK, newStudentJSON(i, st))
}

// apiDeleteStudent DELETE /api/students/{index}?confirm=true
// The confirmation query stands in for the interactive prompt.
func (h *Handler) apiDeleteStudent(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	q := r.URL.Query()
	if q.Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "confirmationRequired"})
		return
	}
	deleted, err := h.ctrl.Delete(r.Context(), i,
		roster.ConfirmFunc(func(string) bool { return true }),
		roster.IfRevision(q.Get("rev")))
	if err != nil {
		writeAPIError(w, err)
		return
	}
	logger.Debug("apiDeleteStudent: index=%d deleted=%t", i, deleted)
	w.WriteHeader(http.StatusNoContent)
}

// apiStats GET /api/stats
func (h *Handler) apiStats(w http.ResponseWriter, r *http.Request) {
	students := h.ctrl.Store().Students()
	writeJSON(w, http.StatusOK, statsJSON{
		Average: roster.ComputeAverage(students),
		Counts:  roster.CountsFor(students),
	})
}
