package domain

// LocationReport is an AI-written briefing for one place: recent heat and
// climate news plus nearby places to shelter during a heatwave.
type LocationReport struct {
	Location      string   `json:"location"`
	Language      Language `json:"language"`
	NewsSummary   string   `json:"newsSummary"`
	ReliefCenters string   `json:"reliefCenters"`
}
