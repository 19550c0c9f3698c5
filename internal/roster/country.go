package roster

// Continent identifies the continent a country is filed under.
type Continent string

const (
	Asia         Continent = "asia"
	Europe       Continent = "europe"
	Africa       Continent = "africa"
	NorthAmerica Continent = "northAmerica"
	SouthAmerica Continent = "southAmerica"
	Oceania      Continent = "oceania"
	Antarctica   Continent = "antarctica"
)

// StudyContinents lists the continents that take part in memory training,
// in display order. Antarctica is deliberately absent.
var StudyContinents = []Continent{Asia, Europe, Africa, NorthAmerica, SouthAmerica, Oceania}

// Valid reports whether c is one of the known continents.
func (c Continent) Valid() bool {
	switch c {
	case Asia, Europe, Africa, NorthAmerica, SouthAmerica, Oceania, Antarctica:
		return true
	}
	return false
}

// Studied reports whether countries of this continent are categorised.
func (c Continent) Studied() bool {
	return c.Valid() && c != Antarctica
}

// Country is a read-only roster record.
type Country struct {
	Code          string    `json:"code"`
	NamePrimary   string    `json:"name_primary"`
	NameSecondary string    `json:"name_secondary"`
	Continent     Continent `json:"continent"`
	StyleTags     []string  `json:"style_tags,omitempty"`
}

// HasTag reports whether the country carries the given style tag.
func (c Country) HasTag(tag string) bool {
	for _, t := range c.StyleTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Provider supplies the full country roster. Countries may return an empty
// slice while the roster is still loading.
type Provider interface {
	Countries() []Country
}

// Static is a Provider over a fixed slice.
type Static []Country

// Countries returns the slice itself.
func (s Static) Countries() []Country { return s }

// Index maps country codes to records for fast lookup.
func Index(countries []Country) map[string]Country {
	idx := make(map[string]Country, len(countries))
	for _, c := range countries {
		idx[c.Code] = c
	}
	return idx
}
