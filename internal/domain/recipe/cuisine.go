package recipe

import "strings"

// CuisineType is a closed set of supported cuisines.
type CuisineType string

const (
	CuisineChinese       CuisineType = "CHINESE"
	CuisineJapanese      CuisineType = "JAPANESE"
	CuisineItalian       CuisineType = "ITALIAN"
	CuisineMexican       CuisineType = "MEXICAN"
	CuisineIndian        CuisineType = "INDIAN"
	CuisineThai          CuisineType = "THAI"
	CuisineKorean        CuisineType = "KOREAN"
	CuisineFrench        CuisineType = "FRENCH"
	CuisineAmerican      CuisineType = "AMERICAN"
	CuisineMediterranean CuisineType = "MEDITERRANEAN"
	CuisineMiddleEastern CuisineType = "MIDDLE_EASTERN"
	CuisineOther         CuisineType = "OTHER"
)

// AllCuisines lists every cuisine in display order.
var AllCuisines = []CuisineType{
	CuisineChinese,
	CuisineJapanese,
	CuisineItalian,
	CuisineMexican,
	CuisineIndian,
	CuisineThai,
	CuisineKorean,
	CuisineFrench,
	CuisineAmerican,
	CuisineMediterranean,
	CuisineMiddleEastern,
	CuisineOther,
}

var cuisineDisplayNames = map[CuisineType]string{
	CuisineChinese:       "Chinese",
	CuisineJapanese:      "Japanese",
	CuisineItalian:       "Italian",
	CuisineMexican:       "Mexican",
	CuisineIndian:        "Indian",
	CuisineThai:          "Thai",
	CuisineKorean:        "Korean",
	CuisineFrench:        "French",
	CuisineAmerican:      "American",
	CuisineMediterranean: "Mediterranean",
	CuisineMiddleEastern: "Middle Eastern",
	CuisineOther:         "Other",
}

// DisplayName returns the human-readable cuisine name.
func (c CuisineType) DisplayName() string {
	if name, ok := cuisineDisplayNames[c]; ok {
		return name
	}
	return cuisineDisplayNames[CuisineOther]
}

// IsValid reports whether c is a known cuisine.
func (c CuisineType) IsValid() bool {
	_, ok := cuisineDisplayNames[c]
	return ok
}

// ParseCuisine maps an arbitrary string to a cuisine, defaulting to OTHER.
func ParseCuisine(s string) CuisineType {
	c := CuisineType(strings.ToUpper(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return CuisineOther
}
