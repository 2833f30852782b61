package models

// Amenity is a named feature (e.g. "WiFi") that listings can declare.
type Amenity struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Icon string `db:"icon" json:"icon"`
}

func (a Amenity) String() string {
	return a.Name
}
