package api

import (
	"net/http"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/slices"
)

type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
	Type        string   `json:"type"`
}

type CategoryDetail struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type GetCategoriesResponse struct {
	Data []Category `json:"data"`
}

// GetCategories lists what a business of the given type may pick from. With
// no businessType the list is empty, the same as a wizard that has not chosen
// one yet.
func (a *API) GetCategories(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	businessType := catalog.UNSET
	if raw := r.URL.Query().Get("businessType"); raw != "" {
		t, err := catalog.ParseBusinessType(raw)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, InvalidBody, "Unknown business type")
			return
		}
		businessType = t
	}

	writeJSON(w, logger, http.StatusOK, GetCategoriesResponse{
		Data: slices.Map(catalog.Available(businessType), entryToApiCategory),
	})
}

func entryToApiCategory(e catalog.Entry) Category {
	examples := e.Examples
	if examples == nil {
		examples = []string{}
	}

	return Category{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Examples:    examples,
		Type:        e.Kind.String(),
	}
}

func detailToApiCategoryDetail(d catalog.Detail) CategoryDetail {
	return CategoryDetail{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Kind.String(),
		Description: d.Description,
	}
}
