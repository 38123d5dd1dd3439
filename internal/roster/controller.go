package roster

import (
	"context"
	"sync"

	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// DeletePrompt is the question asked before a student is removed.
const DeletePrompt = "Are you sure you want to delete this student?"

// Submit button labels.
const (
	LabelSave   = "Save"
	LabelUpdate = "Update"
)

// Confirmer answers a blocking yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Controller drives the entry form: field edits, submit, edit and delete
// requests. It holds the only draft and serialises all events.
type Controller struct {
	mu      sync.Mutex
	store   *Store
	draft   FormDraft
	editing int // -1 when creating
}

func NewController(store *Store) *Controller {
	return &Controller{store: store, editing: -1}
}

func (c *Controller) Store() *Store { return c.store }

func (c *Controller) Draft() FormDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// EditingIndex returns the row the draft will overwrite, if any.
func (c *Controller) EditingIndex() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing, c.editing >= 0
}

func (c *Controller) SubmitLabel() string {
	if _, ok := c.EditingIndex(); ok {
		return LabelUpdate
	}
	return LabelSave
}

// Change applies one field edit. Text fields refuse values containing a
// digit and keep their prior value; the return value reports acceptance.
func (c *Controller) Change(f Field, raw string) bool {
	if f.IsText() && ContainsDigit(raw) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = c.draft.With(f, raw)
	return true
}

// Submit validates the draft and inserts or replaces the student. On a
// validation error nothing changes and a *ValidationError is returned.
func (c *Controller) Submit(ctx context.Context) (Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := ParseDraft(c.draft)
	if err != nil {
		logger.Debug("submit rejected: %v", err)
		return Student{}, err
	}
	if c.editing >= 0 {
		err = c.store.Replace(ctx, c.editing, st)
	} else {
		_, err = c.store.Append(ctx, st)
	}
	if err != nil {
		return Student{}, err
	}
	c.resetLocked()
	return st, nil
}

// Edit loads row i into the draft. The roster is not touched.
func (c *Controller) Edit(i int, opts ...MutationOption) error {
	m := applyOptions(opts)
	if err := c.store.CheckRevision(m.revision); err != nil {
		return err
	}
	st, err := c.store.At(i)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = DraftFromStudent(st)
	c.editing = i
	return nil
}

// Delete asks confirm and, on yes, removes row i. A declined prompt returns
// (false, nil). If the removed row was being edited the draft is reset; if it
// preceded the edited row the editing index follows its student down.
func (c *Controller) Delete(ctx context.Context, i int, confirm Confirmer, opts ...MutationOption) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := applyOptions(opts)
	if err := c.store.CheckRevision(m.revision); err != nil {
		return false, err
	}
	if _, err := c.store.At(i); err != nil {
		return false, err
	}
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		logger.Debug("delete of index %d cancelled", i)
		return false, nil
	}
	if _, err := c.store.Remove(ctx, i, opts...); err != nil {
		return false, err
	}
	switch {
	case c.editing == i:
		c.resetLocked()
	case c.editing > i:
		c.editing--
	}
	return true, nil
}

// Cancel drops the draft and leaves edit mode.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// View derives statistics and table rows from the current roster.
func (c *Controller) View() View {
	return BuildView(c.store.Students())
}

func (c *Controller) resetLocked() {
	c.draft = FormDraft{}
	c.editing = -1
}
