package model

import "time"

// Entry categories. Navigation is the default for automatic entries.
const (
	CategoryNavigation  = "navigation"
	CategoryEngine      = "engine"
	CategoryRadio       = "radio"
	CategoryMaintenance = "maintenance"
)

// Position is a geographic coordinate with an optional fix source.
// Consumers treat a missing source as "GPS".
type Position struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Source    string  `yaml:"source,omitempty" json:"source,omitempty"`
}

// Speed holds vessel speeds in knots, one decimal.
type Speed struct {
	STW *float64 `yaml:"stw,omitempty" json:"stw,omitempty"`
	SOG *float64 `yaml:"sog,omitempty" json:"sog,omitempty"`
}

// Wind holds observed wind: speed in knots, direction in degrees true.
type Wind struct {
	Speed     *float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
	Direction *int     `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// Observations holds coded weather observations: Douglas sea state
// (0-10), cloud coverage in oktas (0-8) and a visibility code (0-10).
type Observations struct {
	SeaState      *int `yaml:"seaState,omitempty" json:"seaState,omitempty"`
	CloudCoverage *int `yaml:"cloudCoverage,omitempty" json:"cloudCoverage,omitempty"`
	Visibility    *int `yaml:"visibility,omitempty" json:"visibility,omitempty"`
}

// Engine holds cumulative engine hours, one decimal.
type Engine struct {
	Hours float64 `yaml:"hours" json:"hours"`
}

// Entry is one persisted logbook record. Within a date-file the datetime
// is the unique key and entries are kept sorted ascending by it.
type Entry struct {
	Datetime     time.Time     `yaml:"datetime" json:"datetime"`
	Text         string        `yaml:"text" json:"text"`
	Author       string        `yaml:"author,omitempty" json:"author,omitempty"`
	Category     string        `yaml:"category,omitempty" json:"category,omitempty"`
	Position     *Position     `yaml:"position,omitempty" json:"position,omitempty"`
	Heading      *int          `yaml:"heading,omitempty" json:"heading,omitempty"`
	Course       *int          `yaml:"course,omitempty" json:"course,omitempty"`
	Speed        *Speed        `yaml:"speed,omitempty" json:"speed,omitempty"`
	Log          *float64      `yaml:"log,omitempty" json:"log,omitempty"`
	Waypoint     *Position     `yaml:"waypoint,omitempty" json:"waypoint,omitempty"`
	Barometer    *float64      `yaml:"barometer,omitempty" json:"barometer,omitempty"`
	Wind         *Wind         `yaml:"wind,omitempty" json:"wind,omitempty"`
	Observations *Observations `yaml:"observations,omitempty" json:"observations,omitempty"`
	Engine       *Engine       `yaml:"engine,omitempty" json:"engine,omitempty"`
	VHF          string        `yaml:"vhf,omitempty" json:"vhf,omitempty"`
	CrewNames    []string      `yaml:"crewNames,omitempty" json:"crewNames,omitempty"`
	End          bool          `yaml:"end,omitempty" json:"end,omitempty"`
}

// DateString returns the UTC calendar date the entry falls on, in the
// YYYY-MM-DD form used for date-file names.
func (e Entry) DateString() string {
	return e.Datetime.UTC().Format("2006-01-02")
}
