package mapper

import "strings"

// DefaultCountry is assumed when a location does not name one.
const DefaultCountry = "India"

// Location is a city/state/country triple derived from the form.
type Location struct {
	City    string
	State   string
	Country string
}

// ParseLocation prefers explicit state and city values and otherwise splits a
// "city, state, country" string.
func ParseLocation(location, state, city string) Location {
	if state != "" && city != "" {
		return Location{City: city, State: state, Country: DefaultCountry}
	}
	if location == "" {
		return Location{}
	}

	parts := strings.Split(location, ",")
	part := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	loc := Location{City: part(0), State: part(1), Country: part(2)}
	if loc.Country == "" {
		loc.Country = DefaultCountry
	}
	return loc
}
