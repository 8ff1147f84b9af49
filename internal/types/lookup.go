package types

// Lookup is a row from one of the static reference tables
// (category, condition, type).
type Lookup struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
