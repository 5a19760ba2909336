// Package model defines the call-sheet domain types produced by the parser
// and consumed by enrichment and access control.
package model

import (
	"strings"
)

// Person is one crew or cast table row, keyed by the table's column headers.
// Conventional keys are "Name", "Phone", "Call Time" and either "Role" (crew)
// or "Character" (cast), but the key set follows whatever headers the table has.
type Person map[string]string

// Scene is one scene table row, keyed by the table's column headers.
type Scene map[string]string

// Location is a shooting location parsed from a call sheet. Data holds the
// address/unit-base/script-location fields; GemData holds the externally
// sourced enrichment fields under their GEM-prefixed keys.
type Location struct {
	// Index is 1-based, in discovery order across the whole document.
	Index int `json:"index"`
	// TableID identifies the persisted table backing this location, used for
	// enrichment write-back. Empty when the location has no backing table.
	TableID string            `json:"table_id,omitempty"`
	Data    map[string]string `json:"data"`
	GemData map[string]string `json:"gem_data"`
}

// Production is one shoot day's worth of call-sheet data for a title.
type Production struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Properties map[string]any `json:"properties"`
	Crew       []Person       `json:"crew"`
	Cast       []Person       `json:"cast"`
	Locations  []Location     `json:"locations"`
	Scenes     []Scene        `json:"scenes"`
}

// UserKind distinguishes which list an authenticated caller was matched in.
type UserKind string

const (
	UserKindCrew UserKind = "crew"
	UserKindCast UserKind = "cast"
)

// UserInfo is the matched caller returned by authentication.
type UserInfo struct {
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	CallTime string   `json:"call_time"`
	Kind     UserKind `json:"kind"`
}

// Address returns the location's street address, or "" when absent.
func (l Location) Address() string {
	return strings.TrimSpace(l.Data["Location Address"])
}

// IsClosedSet reports whether the production's closed_set property is set.
func (p *Production) IsClosedSet() bool {
	v, ok := p.Properties["closed_set"]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}

// ShootDate returns the production's date property as a string, or "" when
// the production has none.
func (p *Production) ShootDate() string {
	v, ok := p.Properties["date"]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// ShootDay returns the shoot-day number property, or 0 when absent.
func (p *Production) ShootDay() int {
	switch t := p.Properties["shoot_day"].(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		return 0
	}
}
