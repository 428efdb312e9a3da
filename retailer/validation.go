package retailer

import "github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"

const (
	invalidBusinessTypeMessage = "Invalid business type"
	noCategoriesMessage        = "At least one category must be selected"
	bothNeedsMixedMessage      = `When selecting "Both", you must choose categories from both products and services`
)

// ValidateCategories checks the category section of an application and
// returns one message per violated rule. All rules are evaluated.
func ValidateCategories(c Categories) []string {
	var errs []string

	switch c.Type {
	case catalog.PRODUCTS, catalog.SERVICES, catalog.BOTH:
	default:
		errs = append(errs, invalidBusinessTypeMessage)
	}

	if len(c.IDs) == 0 {
		errs = append(errs, noCategoriesMessage)
	}

	if c.Type == catalog.BOTH {
		hasProducts, hasServices := catalog.HasKinds(c.Details)
		if !hasProducts || !hasServices {
			errs = append(errs, bothNeedsMixedMessage)
		}
	}

	return errs
}
