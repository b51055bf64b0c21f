package domain

import "strings"

// LocationCandidate is a place returned by a geocoding provider.
// Two candidates are the same place when their coordinates match.
type LocationCandidate struct {
	DisplayName string  `json:"name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Country     string  `json:"country"`
	Region      string  `json:"state,omitempty"`
}

// Coordinates is the identity of a LocationCandidate.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Identity returns the (latitude, longitude) pair identifying the candidate.
func (c LocationCandidate) Identity() Coordinates {
	return Coordinates{Lat: c.Latitude, Lon: c.Longitude}
}

// FullName renders "Name, Region, Country", omitting empty parts.
func (c LocationCandidate) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.DisplayName, c.Region, c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// DedupeCandidates drops candidates whose identity already appeared earlier
// in the slice, preserving provider ranking.
func DedupeCandidates(in []LocationCandidate) []LocationCandidate {
	seen := make(map[Coordinates]struct{}, len(in))
	out := make([]LocationCandidate, 0, len(in))
	for _, c := range in {
		id := c.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, c)
	}
	return out
}
