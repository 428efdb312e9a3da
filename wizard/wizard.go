// Package wizard implements the multi-step business registration flow:
// the draft being filled in, per-field validation, category selection rules,
// step gating and the final handoff to the registration backend.
//
// A Wizard is not safe for concurrent use. Callers serialize events for a
// single wizard (see the session package).
package wizard

import (
	"context"
	"errors"
	"slices"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
)

type Wizard struct {
	flow    Flow
	current Step
	draft   Draft

	submitted bool
	receipt   Receipt
}

func New(flow Flow) *Wizard {
	return &Wizard{
		flow:    flow,
		current: flow.FirstStep(),
		draft:   newDraft(),
	}
}

func (w *Wizard) Flow() Flow {
	return w.flow
}

func (w *Wizard) CurrentStep() Step {
	return w.current
}

// Draft returns a copy of the draft; mutating it has no effect on the wizard.
func (w *Wizard) Draft() Draft {
	return w.draft.clone()
}

func (w *Wizard) Validation(f Field) (ValidationResult, bool) {
	v, ok := w.draft.Validation[f]
	return v, ok
}

func (w *Wizard) Submitted() bool {
	return w.submitted
}

// Receipt is only meaningful once Submitted reports true.
func (w *Wizard) Receipt() Receipt {
	return w.receipt
}

// SetField overwrites a field and recomputes its validation. Changing the
// password also revalidates a non-empty confirmation against it.
func (w *Wizard) SetField(f Field, value string) {
	if w.submitted {
		return
	}

	w.draft.set(f, value)
	w.draft.Validation[f] = validateField(&w.draft, f)

	if f == PASSWORD && w.draft.ConfirmPassword != "" {
		w.draft.Validation[CONFIRM_PASSWORD] = validateField(&w.draft, CONFIRM_PASSWORD)
	}
}

// SetBusinessType always clears the category selection, even when the new
// type is the same as the old one.
func (w *Wizard) SetBusinessType(t catalog.BusinessType) {
	if w.submitted {
		return
	}

	w.draft.BusinessType = t
	w.draft.SelectedCategories = []string{}
	w.draft.CategoryDetails = []catalog.Detail{}
}

// ToggleCategory adds id to the selection or removes it if already selected.
// Ids that are not available for the current business type are ignored.
func (w *Wizard) ToggleCategory(id string) {
	if w.submitted || !catalog.IsAvailable(w.draft.BusinessType, id) {
		return
	}

	if i := slices.Index(w.draft.SelectedCategories, id); i >= 0 {
		w.draft.SelectedCategories = slices.Delete(w.draft.SelectedCategories, i, i+1)
	} else {
		w.draft.SelectedCategories = append(w.draft.SelectedCategories, id)
	}

	w.draft.CategoryDetails = catalog.Resolve(w.draft.SelectedCategories)
}

func (w *Wizard) IsStepComplete(s Step) bool {
	reqs, ok := w.flow.requirements(s)
	if !ok {
		return false
	}

	for _, req := range reqs {
		if !req(&w.draft) {
			return false
		}
	}

	return true
}

// Advance moves to the next step if the current one is complete.
func (w *Wizard) Advance() bool {
	if w.submitted || w.current >= w.flow.LastStep() || !w.IsStepComplete(w.current) {
		return false
	}

	w.current++
	return true
}

func (w *Wizard) Retreat() bool {
	if w.submitted || w.current <= w.flow.FirstStep() {
		return false
	}

	w.current--
	return true
}

// Submit hands the draft to submitter. It must be called from the last step
// with every step complete; fields may have been edited after navigating past
// an earlier step so all of them are re-checked.
func (w *Wizard) Submit(ctx context.Context, submitter Submitter) (Receipt, error) {
	if w.submitted {
		return Receipt{}, NewAlreadySubmittedError()
	}

	last := w.flow.LastStep()
	if w.current != last {
		return Receipt{}, NewNotOnLastStepError(w.current, last)
	}

	for s := w.flow.FirstStep(); s <= last; s++ {
		if !w.IsStepComplete(s) {
			return Receipt{}, NewStepIncompleteError(s)
		}
	}

	receipt, err := submitter.Submit(ctx, newPayload(&w.draft))
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			return Receipt{}, NewSubmissionInvalidError(subErr)
		}
		return Receipt{}, NewSubmissionFailedError(err)
	}

	w.submitted = true
	w.receipt = receipt

	return receipt, nil
}
