// Package models defines core data structures for sites, documents, and risk flags.
package models

import "encoding/json"

// SiteRecord describes one remediation activity as read from the remote record system.
type SiteRecord struct {
	DSN             string `json:"dsn"`
	ActivityNumber  string `json:"activity_number,omitempty"`
	Status          string `json:"status,omitempty"`
	ActivityType    string `json:"activity_type,omitempty"`
	LocationName    string `json:"location_name,omitempty"`
	Address         string `json:"address,omitempty"`
	Municipality    string `json:"municipality,omitempty"`
	County          string `json:"county,omitempty"`
	Region          string `json:"region,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Jurisdiction    string `json:"jurisdiction,omitempty"`
	PLSSDescription string `json:"plss_description,omitempty"`
	Latitude        string `json:"latitude,omitempty"`
	Longitude       string `json:"longitude,omitempty"`
	Acres           string `json:"acres,omitempty"`
	FacilityID      string `json:"facility_id,omitempty"`
	PECFANumber     string `json:"pecfa_number,omitempty"`
	EPAID           string `json:"epa_id,omitempty"`

	// Characteristics holds the yes/no site characteristics (underground_tank, pfas, ...).
	Characteristics map[string]bool `json:"characteristics,omitempty"`
}

// UnmarshalJSON accepts "dnr_region" as an alias for "region".
func (s *SiteRecord) UnmarshalJSON(data []byte) error {
	type plain SiteRecord
	aux := struct {
		*plain
		DNRRegion string `json:"dnr_region"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.Region == "" {
		s.Region = aux.DNRRegion
	}
	return nil
}

// Field returns a pointer to the string field named by its JSON key, or nil for unknown keys.
func (s *SiteRecord) Field(key string) *string {
	switch key {
	case "dsn":
		return &s.DSN
	case "activity_number":
		return &s.ActivityNumber
	case "status":
		return &s.Status
	case "activity_type":
		return &s.ActivityType
	case "location_name":
		return &s.LocationName
	case "address":
		return &s.Address
	case "municipality":
		return &s.Municipality
	case "county":
		return &s.County
	case "region", "dnr_region":
		return &s.Region
	case "start_date":
		return &s.StartDate
	case "end_date":
		return &s.EndDate
	case "jurisdiction":
		return &s.Jurisdiction
	case "plss_description":
		return &s.PLSSDescription
	case "latitude":
		return &s.Latitude
	case "longitude":
		return &s.Longitude
	case "acres":
		return &s.Acres
	case "facility_id":
		return &s.FacilityID
	case "pecfa_number":
		return &s.PECFANumber
	case "epa_id":
		return &s.EPAID
	}
	return nil
}

// Fill sets the field named key to value only when the field is still empty.
// Returns true when the value was stored. Empty values and unknown keys are ignored.
func (s *SiteRecord) Fill(key, value string) bool {
	if value == "" {
		return false
	}
	f := s.Field(key)
	if f == nil || *f != "" {
		return false
	}
	*f = value
	return true
}

// SetCharacteristic records a yes/no site characteristic.
func (s *SiteRecord) SetCharacteristic(name string, value bool) {
	if s.Characteristics == nil {
		s.Characteristics = make(map[string]bool)
	}
	s.Characteristics[name] = value
}

// DiscoveryResult is the consolidated output of site and document discovery.
type DiscoveryResult struct {
	SiteInfo  SiteRecord    `json:"site_info"`
	RiskFlags RiskFlags     `json:"risk_flags"`
	Documents []DocumentRef `json:"documents"`
	Summary   string        `json:"summary"`
	// Source names the path that produced the result: rendered, plain, unavailable, or none.
	Source string `json:"source"`
	Note   string `json:"note,omitempty"`
}

// Discovery sources.
const (
	SourceRendered    = "rendered"
	SourcePlain       = "plain"
	SourceUnavailable = "unavailable"
	SourceNone        = "none"
)
