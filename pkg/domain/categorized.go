package domain

// CategorizedQuery is the structured decomposition of an image request.
// Absent attributes are nil pointers or empty slices, never missing keys.
type CategorizedQuery struct {
	CarName            *string  `json:"car_name"`
	DesignElements     []string `json:"design_elements"`
	Style              *string  `json:"style"`
	Color              *string  `json:"color"`
	Perspective        *string  `json:"perspective"`
	Background         *string  `json:"background"`
	AdditionalFeatures []string `json:"additional_features"`
}

// EmptyCategorizedQuery returns a record with every attribute absent.
func EmptyCategorizedQuery() CategorizedQuery {
	return CategorizedQuery{
		DesignElements:     []string{},
		AdditionalFeatures: []string{},
	}
}

// Normalize replaces nil slices with empty ones.
func (q CategorizedQuery) Normalize() CategorizedQuery {
	if q.DesignElements == nil {
		q.DesignElements = []string{}
	}
	if q.AdditionalFeatures == nil {
		q.AdditionalFeatures = []string{}
	}
	return q
}

// Clone returns a deep copy.
func (q CategorizedQuery) Clone() CategorizedQuery {
	c := CategorizedQuery{
		CarName:            clonePtr(q.CarName),
		Style:              clonePtr(q.Style),
		Color:              clonePtr(q.Color),
		Perspective:        clonePtr(q.Perspective),
		Background:         clonePtr(q.Background),
		DesignElements:     append([]string{}, q.DesignElements...),
		AdditionalFeatures: append([]string{}, q.AdditionalFeatures...),
	}
	return c
}

// CarNameOr returns the car name, or def when absent or blank.
func (q CategorizedQuery) CarNameOr(def string) string {
	return valueOr(q.CarName, def)
}

// StyleOr returns the style, or def when absent or blank.
func (q CategorizedQuery) StyleOr(def string) string {
	return valueOr(q.Style, def)
}

// AsMap returns the seven-key map view used by transports.
func (q CategorizedQuery) AsMap() map[string]any {
	n := q.Normalize()
	return map[string]any{
		"car_name":            ptrValue(n.CarName),
		"design_elements":     n.DesignElements,
		"style":               ptrValue(n.Style),
		"color":               ptrValue(n.Color),
		"perspective":         ptrValue(n.Perspective),
		"background":          ptrValue(n.Background),
		"additional_features": n.AdditionalFeatures,
	}
}

// StringPtr is a helper for optional attributes.
func StringPtr(s string) *string {
	return &s
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func valueOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func ptrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
