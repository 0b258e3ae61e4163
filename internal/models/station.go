package models

import (
	"strings"
	"time"
)

// Station is a kitchen display screen, optionally limited to some dining modes
type Station struct {
	Name        string       `json:"name"`
	Modes       []DiningMode `json:"modes,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	LastSeen    time.Time    `json:"last_seen"`
	TicketsSeen int          `json:"tickets_seen"`
}

// ParseDiningModes parses a comma-separated list such as "dine_in,delivery"
func ParseDiningModes(s string) []DiningMode {
	if s == "" {
		return nil
	}

	var modes []DiningMode
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "dine_in", "dinein", "dine in":
			modes = append(modes, DineIn)
		case "take_away", "takeaway", "take away", "takeout":
			modes = append(modes, TakeAway)
		case "delivery":
			modes = append(modes, Delivery)
		}
	}
	return modes
}

// Accepts checks if the station shows orders of the given dining mode
func (s *Station) Accepts(mode DiningMode) bool {
	// No modes configured means every ticket is shown
	if len(s.Modes) == 0 {
		return true
	}
	for _, m := range s.Modes {
		if m == mode {
			return true
		}
	}
	return false
}
