package models

import "sort"

// MarinaFacilities lists the services a marina advertises
type MarinaFacilities struct {
	Fuel        bool `json:"fuel"`
	Water       bool `json:"water"`
	Electricity bool `json:"electricity"`
	Pumpout     bool `json:"pumpout"`
	Repairs     bool `json:"repairs"`
	Moorings    bool `json:"moorings"`
	Showers     bool `json:"showers"`
}

// Labels returns human-readable names for the facilities that are present.
func (f MarinaFacilities) Labels() []string {
	var out []string
	add := func(ok bool, label string) {
		if ok {
			out = append(out, label)
		}
	}
	add(f.Fuel, "Fuel")
	add(f.Water, "Water")
	add(f.Electricity, "Electricity")
	add(f.Pumpout, "Pump-out")
	add(f.Repairs, "Repairs")
	add(f.Moorings, "Moorings")
	add(f.Showers, "Showers")
	return out
}

// Covers reports whether f offers every facility requested in want.
func (f MarinaFacilities) Covers(want MarinaFacilities) bool {
	return (!want.Fuel || f.Fuel) &&
		(!want.Water || f.Water) &&
		(!want.Electricity || f.Electricity) &&
		(!want.Pumpout || f.Pumpout) &&
		(!want.Repairs || f.Repairs) &&
		(!want.Moorings || f.Moorings) &&
		(!want.Showers || f.Showers)
}

// Marina is a coastal facility found near a position.
// Distance and Bearing are relative to the search origin.
type Marina struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	Distance   float64          `json:"distance"` // nautical miles
	Bearing    float64          `json:"bearing"`
	Amenities  []string         `json:"amenities"`
	Facilities MarinaFacilities `json:"facilities"`
	Phone      string           `json:"phone,omitempty"`
	Website    string           `json:"website,omitempty"`
	VHFChannel string           `json:"vhf_channel,omitempty"`
	IsFavorite bool             `json:"is_favorite"`
}

// SortByDistance orders marinas nearest first.
func SortByDistance(marinas []Marina) {
	sort.SliceStable(marinas, func(i, j int) bool {
		return marinas[i].Distance < marinas[j].Distance
	})
}
