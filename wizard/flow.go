package wizard

import (
	"fmt"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
)

// Step is 1-based, matching what the user sees ("Step 2 of 4").
type Step int

type Flow int

const (
	// STANDARD splits business info and category selection into separate
	// steps: info, categories, contact, credentials.
	STANDARD Flow = iota
	// COMPACT folds category selection into the first step.
	COMPACT
)

func (f Flow) String() string {
	switch f {
	case STANDARD:
		return "standard"
	case COMPACT:
		return "compact"
	default:
		return fmt.Sprintf("Flow(%d)", int(f))
	}
}

func ParseFlow(s string) (Flow, error) {
	switch s {
	case "standard":
		return STANDARD, nil
	case "compact":
		return COMPACT, nil
	default:
		return Flow(-1), fmt.Errorf("unknown flow: %q", s)
	}
}

type requirement func(d *Draft) bool

var flowSteps = map[Flow][][]requirement{
	STANDARD: {
		{businessInfoComplete},
		{categoriesComplete},
		{contactComplete},
		{credentialsComplete},
	},
	COMPACT: {
		{businessInfoComplete, categoriesComplete},
		{contactComplete},
		{credentialsComplete},
	},
}

func (f Flow) NumSteps() int {
	return len(flowSteps[f])
}

func (f Flow) FirstStep() Step {
	return 1
}

func (f Flow) LastStep() Step {
	return Step(f.NumSteps())
}

func (f Flow) requirements(s Step) ([]requirement, bool) {
	steps := flowSteps[f]
	if s < 1 || int(s) > len(steps) {
		return nil, false
	}
	return steps[s-1], true
}

func businessInfoComplete(d *Draft) bool {
	return d.filledAndValid(BUSINESS_NAME) && d.filledAndValid(BUSINESS_EMAIL)
}

func categoriesComplete(d *Draft) bool {
	if d.BusinessType == catalog.UNSET || len(d.SelectedCategories) == 0 {
		return false
	}

	if d.BusinessType == catalog.BOTH {
		hasProduct, hasService := catalog.HasKinds(d.CategoryDetails)
		return hasProduct && hasService
	}

	return true
}

func contactComplete(d *Draft) bool {
	return d.filledAndValid(PHONE_NUMBER) &&
		d.StreetAddress != "" &&
		d.City != "" &&
		d.State != ""
}

func credentialsComplete(d *Draft) bool {
	return d.filledAndValid(PASSWORD) &&
		d.filledAndValid(CONFIRM_PASSWORD) &&
		len(d.Documents) > 0
}
