package wizard

import "fmt"

type Field int

const (
	BUSINESS_NAME Field = iota
	BUSINESS_EMAIL
	BUSINESS_DESCRIPTION
	PHONE_NUMBER
	STREET_ADDRESS
	CITY
	STATE
	ZIP_CODE
	COUNTRY
	PASSWORD
	CONFIRM_PASSWORD
)

var fieldNames = map[Field]string{
	BUSINESS_NAME:        "businessName",
	BUSINESS_EMAIL:       "businessEmail",
	BUSINESS_DESCRIPTION: "businessDescription",
	PHONE_NUMBER:         "phoneNumber",
	STREET_ADDRESS:       "streetAddress",
	CITY:                 "city",
	STATE:                "state",
	ZIP_CODE:             "zipCode",
	COUNTRY:              "country",
	PASSWORD:             "password",
	CONFIRM_PASSWORD:     "confirmPassword",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for f, name := range fieldNames {
		m[name] = f
	}
	return m
}()

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a wire name such as "businessEmail" to its Field.
func ParseField(name string) (Field, error) {
	f, ok := fieldsByName[name]
	if !ok {
		return Field(-1), fmt.Errorf("unknown field: %q", name)
	}
	return f, nil
}

// IsSecret reports whether the field holds a credential that must never be
// echoed back or logged.
func (f Field) IsSecret() bool {
	return f == PASSWORD || f == CONFIRM_PASSWORD
}
