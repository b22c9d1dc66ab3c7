package domain

// Macrogroup is the top-level organizational grouping of practices.
type Macrogroup struct {
	ID   int64
	Name string
}

// Practice is a monitored site. Every practice belongs to exactly one
// macrogroup; its name is unique across the whole installation.
type Practice struct {
	ID           int64
	Name         string
	Description  string
	Latitude     float64
	Longitude    float64
	MacrogroupID int64
}

// PracticeWithMacrogroup is a practice row joined with the name of its
// macrogroup, as produced by the accessible-practices listing.
type PracticeWithMacrogroup struct {
	Practice
	MacrogroupName string
}
