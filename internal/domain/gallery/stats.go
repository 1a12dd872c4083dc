package gallery

import "time"

// Totals are the gallery-wide counters shown on the home page.
type Totals struct {
	Downloads      int64     `json:"downloads"`
	UniquePackages int       `json:"uniquePackages"`
	TotalPackages  int       `json:"totalPackages"`
	LastUpdated    time.Time `json:"lastUpdated"`
}
