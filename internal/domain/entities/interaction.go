package entities

import (
	"encoding/json"
	"time"
)

// InteractionType identifies a recorded user action.
type InteractionType string

const (
	InteractionServiceSearch       InteractionType = "service_search"
	InteractionFilterApplied       InteractionType = "filter_applied"
	InteractionServiceClick        InteractionType = "service_click"
	InteractionPopularServiceClick InteractionType = "popular_service_click"
	InteractionCentreView          InteractionType = "center_view"
	InteractionCentreClick         InteractionType = "center_click"
	InteractionCentreContact       InteractionType = "center_contact"
)

// InteractionWeights maps each interaction type to its fixed score multiplier.
// A contact is worth three plain clicks; a click from the popular-services
// panel is worth half a click more than one from the homepage.
var InteractionWeights = map[InteractionType]float64{
	InteractionServiceSearch:       1.0,
	InteractionFilterApplied:       2.0,
	InteractionServiceClick:        1.0,
	InteractionPopularServiceClick: 1.5,
	InteractionCentreView:          0.5,
	InteractionCentreClick:         1.0,
	InteractionCentreContact:       3.0,
}

// IsValidInteractionType reports whether t is a known interaction type.
func IsValidInteractionType(t InteractionType) bool {
	_, ok := InteractionWeights[t]
	return ok
}

// InteractionEvent is a single append-only tracking record.
type InteractionEvent struct {
	ID          string          `json:"id" db:"id"`
	Type        InteractionType `json:"type" db:"type"`
	ServiceName string          `json:"service_name,omitempty" db:"service_name"`
	CentreType  string          `json:"center_type,omitempty" db:"centre_type"`
	CentreID    string          `json:"center_id,omitempty" db:"centre_id"`
	SearchTerm  string          `json:"search_term,omitempty" db:"search_term"`
	Filters     json.RawMessage `json:"filters,omitempty" db:"filters"`
	SessionID   string          `json:"session_id,omitempty" db:"session_id"`
	UserID      string          `json:"user_id,omitempty" db:"user_id"`
	// Value scales the type weight; defaults to 1 when unset.
	Value     float64   `json:"interaction_value" db:"interaction_value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ServicePopularity is the derived per-service aggregate, computed on read.
type ServicePopularity struct {
	ServiceName string  `json:"service_name"`
	Searches    int     `json:"searches"`
	Clicks      int     `json:"clicks"`
	Contacts    int     `json:"contacts"`
	Views       int     `json:"views"`
	Score       float64 `json:"score"`
	// Fallback marks entries padded from the static default list.
	Fallback bool `json:"fallback,omitempty"`
}

// InteractionCount is a per-type event count over an aggregation window.
type InteractionCount struct {
	Type        InteractionType `json:"type"`
	ServiceName string          `json:"service_name"`
	Count       int             `json:"count"`
	ValueSum    float64         `json:"value_sum"`
}

// SearchTermCount is a per-term search count over an aggregation window.
type SearchTermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
