// Package catalog holds the fixed product and service category tables a
// business picks from during registration.
package catalog

import "slices"

type Category struct {
	ID          string
	Name        string
	Description string
	Examples    []string
}

// Detail is a category resolved against the catalog, tagged with the table
// it came from.
type Detail struct {
	Kind        Kind
	ID          string
	Name        string
	Description string
}

// Entry is an available category as shown to a business of a given type.
type Entry struct {
	Category
	Kind Kind
}

var productCategories = []Category{
	{
		ID:          "fashion",
		Name:        "Fashion & Apparel",
		Description: "Clothing, shoes, accessories, and fashion items",
		Examples:    []string{"Clothing stores", "Shoe shops", "Jewelry stores"},
	},
	{
		ID:          "electronics",
		Name:        "Electronics & Technology",
		Description: "Gadgets, computers, phones, and tech accessories",
		Examples:    []string{"Phone stores", "Computer shops", "Gaming stores"},
	},
	{
		ID:          "groceries",
		Name:        "Groceries & Food",
		Description: "Fresh produce, packaged foods, and beverages",
		Examples:    []string{"Grocery stores", "Specialty food shops", "Organic markets"},
	},
	{
		ID:          "automotive",
		Name:        "Automotive & Parts",
		Description: "Car parts, accessories, and automotive supplies",
		Examples:    []string{"Auto parts stores", "Car accessory shops", "Tire dealers"},
	},
	{
		ID:          "home-garden",
		Name:        "Home & Garden",
		Description: "Furniture, decor, gardening supplies, and home improvement",
		Examples:    []string{"Furniture stores", "Garden centers", "Home decor shops"},
	},
	{
		ID:          "health-beauty",
		Name:        "Health & Beauty",
		Description: "Cosmetics, skincare, wellness, and health products",
		Examples:    []string{"Beauty stores", "Pharmacies", "Wellness shops"},
	},
	{
		ID:          "sports-outdoors",
		Name:        "Sports & Outdoors",
		Description: "Sports equipment, outdoor gear, and fitness products",
		Examples:    []string{"Sports stores", "Outdoor gear shops", "Fitness equipment"},
	},
	{
		ID:          "books-media",
		Name:        "Books & Media",
		Description: "Books, magazines, music, movies, and educational materials",
		Examples:    []string{"Bookstores", "Music shops", "Educational suppliers"},
	},
	{
		ID:          "pets",
		Name:        "Pet Supplies",
		Description: "Pet food, toys, accessories, and care products",
		Examples:    []string{"Pet stores", "Aquarium shops", "Pet grooming supplies"},
	},
	{
		ID:          "office",
		Name:        "Office & Business",
		Description: "Office supplies, business equipment, and stationery",
		Examples:    []string{"Office supply stores", "Business equipment", "Stationery shops"},
	},
	{
		ID:          "arts-crafts",
		Name:        "Arts & Crafts",
		Description: "Art supplies, craft materials, and creative tools",
		Examples:    []string{"Art supply stores", "Craft shops", "Hobby stores"},
	},
}

var serviceCategories = []Category{
	{
		ID:          "delivery",
		Name:        "Delivery & Logistics",
		Description: "Package delivery, courier services, and logistics",
		Examples:    []string{"Courier services", "Package delivery", "Moving services"},
	},
	{
		ID:          "repairs",
		Name:        "Repair & Maintenance",
		Description: "Device repairs, maintenance, and technical services",
		Examples:    []string{"Phone repair", "Computer repair", "Appliance service"},
	},
	{
		ID:          "cleaning",
		Name:        "Cleaning Services",
		Description: "Home cleaning, commercial cleaning, and specialized cleaning",
		Examples:    []string{"House cleaning", "Office cleaning", "Carpet cleaning"},
	},
	{
		ID:          "education",
		Name:        "Education & Training",
		Description: "Tutoring, courses, workshops, and educational services",
		Examples:    []string{"Tutoring services", "Online courses", "Skill training"},
	},
	{
		ID:          "photography",
		Name:        "Photography & Media",
		Description: "Photography, videography, and media production services",
		Examples:    []string{"Wedding photography", "Video production", "Photo editing"},
	},
	{
		ID:          "personal-care",
		Name:        "Personal Care & Wellness",
		Description: "Hair, beauty, massage, and personal wellness services",
		Examples:    []string{"Hair salons", "Massage therapy", "Beauty treatments"},
	},
	{
		ID:          "consulting",
		Name:        "Consulting & Professional",
		Description: "Business consulting, legal, accounting, and professional services",
		Examples:    []string{"Business consulting", "Legal services", "Accounting"},
	},
	{
		ID:          "home-services",
		Name:        "Home Services",
		Description: "Home improvement, landscaping, and household services",
		Examples:    []string{"Plumbing", "Electrical work", "Landscaping"},
	},
	{
		ID:          "automotive-services",
		Name:        "Automotive Services",
		Description: "Car repair, maintenance, and automotive services",
		Examples:    []string{"Auto repair", "Car wash", "Oil change"},
	},
	{
		ID:          "health-services",
		Name:        "Health & Medical",
		Description: "Healthcare, therapy, and medical services",
		Examples:    []string{"Telehealth", "Physical therapy", "Medical consultations"},
	},
	{
		ID:          "entertainment",
		Name:        "Entertainment & Events",
		Description: "Entertainment services, event planning, and recreational activities",
		Examples:    []string{"Event planning", "DJ services", "Party entertainment", "Live performances"},
	},
}

// union is built once; every lookup goes through it so ids that survive a
// business type change still resolve.
var union = buildUnion()

func buildUnion() map[string]Entry {
	m := make(map[string]Entry, len(productCategories)+len(serviceCategories))
	for _, c := range productCategories {
		m[c.ID] = Entry{Category: c, Kind: PRODUCT}
	}
	for _, c := range serviceCategories {
		m[c.ID] = Entry{Category: c, Kind: SERVICE}
	}
	return m
}

func Products() []Category {
	return cloneCategories(productCategories)
}

func Services() []Category {
	return cloneCategories(serviceCategories)
}

// Available returns the categories a business of type t can choose from.
// BOTH yields the product table followed by the service table.
func Available(t BusinessType) []Entry {
	switch t {
	case PRODUCTS:
		return tag(productCategories, PRODUCT)
	case SERVICES:
		return tag(serviceCategories, SERVICE)
	case BOTH:
		return append(tag(productCategories, PRODUCT), tag(serviceCategories, SERVICE)...)
	default:
		return []Entry{}
	}
}

// IsAvailable reports whether id can be selected by a business of type t.
func IsAvailable(t BusinessType, id string) bool {
	e, ok := union[id]
	if !ok {
		return false
	}

	switch t {
	case PRODUCTS:
		return e.Kind == PRODUCT
	case SERVICES:
		return e.Kind == SERVICE
	case BOTH:
		return true
	default:
		return false
	}
}

func Lookup(id string) (Entry, bool) {
	e, ok := union[id]
	if !ok {
		return Entry{}, false
	}
	e.Examples = slices.Clone(e.Examples)
	return e, true
}

// Resolve maps ids to details in order, silently dropping unknown ids.
func Resolve(ids []string) []Detail {
	details := make([]Detail, 0, len(ids))
	for _, id := range ids {
		e, ok := union[id]
		if !ok {
			continue
		}
		details = append(details, e.Detail())
	}
	return details
}

func (e Entry) Detail() Detail {
	return Detail{
		Kind:        e.Kind,
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
	}
}

// HasKinds reports whether details contain at least one product and at least
// one service entry.
func HasKinds(details []Detail) (hasProduct bool, hasService bool) {
	for _, d := range details {
		switch d.Kind {
		case PRODUCT:
			hasProduct = true
		case SERVICE:
			hasService = true
		}
	}
	return hasProduct, hasService
}

func tag(categories []Category, kind Kind) []Entry {
	entries := make([]Entry, 0, len(categories))
	for _, c := range categories {
		c.Examples = slices.Clone(c.Examples)
		entries = append(entries, Entry{Category: c, Kind: kind})
	}
	return entries
}

func cloneCategories(categories []Category) []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Examples = slices.Clone(c.Examples)
		out[i] = c
	}
	return out
}
