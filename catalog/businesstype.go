package catalog

import "fmt"

type BusinessType int

const (
	UNSET BusinessType = iota
	PRODUCTS
	SERVICES
	BOTH
)

func (t BusinessType) String() string {
	switch t {
	case UNSET:
		return ""
	case PRODUCTS:
		return "products"
	case SERVICES:
		return "services"
	case BOTH:
		return "both"
	default:
		return fmt.Sprintf("BusinessType(%d)", int(t))
	}
}

// ParseBusinessType accepts the wire names "products", "services" and "both".
func ParseBusinessType(s string) (BusinessType, error) {
	switch s {
	case "products":
		return PRODUCTS, nil
	case "services":
		return SERVICES, nil
	case "both":
		return BOTH, nil
	default:
		return UNSET, fmt.Errorf("unknown business type: %q", s)
	}
}

type Kind int

const (
	PRODUCT Kind = iota
	SERVICE
)

func (k Kind) String() string {
	switch k {
	case PRODUCT:
		return "product"
	case SERVICE:
		return "service"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "product":
		return PRODUCT, nil
	case "service":
		return SERVICE, nil
	default:
		return Kind(-1), fmt.Errorf("unknown category kind: %q", s)
	}
}
