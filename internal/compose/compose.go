// Package compose turns a state snapshot into a logbook entry. Compose
// performs no I/O and is deterministic for any snapshot that carries a
// datetime field.
package compose

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

const (
	metersPerNauticalMile = 1852.0
	knotsPerMetersPerSec  = 1.94384
)

var engineRunTimeRe = regexp.MustCompile(`^propulsion\.([A-Za-z0-9]+)\.runTime$`)

// Compose maps the snapshot's known paths into a structured entry.
// Absent or non-numeric source values leave the corresponding entry
// fields unset; they are never zeroed.
func Compose(state model.Snapshot, text, author string) model.Entry {
	entry := model.Entry{
		Datetime: entryTime(state),
		Text:     text,
		Author:   author,
	}

	if pos, ok := position(state["navigation.position"]); ok {
		if src, ok := state.Text("navigation.gnss.type"); ok {
			pos.Source = src
		}
		entry.Position = pos
	}
	if deg, ok := degrees(state, "navigation.headingTrue"); ok {
		entry.Heading = &deg
	}
	if deg, ok := degrees(state, "navigation.courseOverGroundTrue"); ok {
		entry.Course = &deg
	}

	speed := model.Speed{}
	if kt, ok := knots(state, "navigation.speedThroughWater"); ok {
		speed.STW = &kt
	}
	if kt, ok := knots(state, "navigation.speedOverGround"); ok {
		speed.SOG = &kt
	}
	if speed.STW != nil || speed.SOG != nil {
		entry.Speed = &speed
	}

	if m, ok := state.Float("navigation.trip.log"); ok {
		nm := round1(m / metersPerNauticalMile)
		entry.Log = &nm
	}
	if wp, ok := position(state["navigation.courseRhumbline.nextPoint.position"]); ok {
		entry.Waypoint = wp
	}
	if pa, ok := state.Float("environment.outside.pressure"); ok {
		hpa := round2(pa / 100)
		entry.Barometer = &hpa
	}

	wind := model.Wind{}
	if kt, ok := knots(state, "environment.wind.speedOverGround"); ok {
		wind.Speed = &kt
	}
	if deg, ok := degrees(state, "environment.wind.directionTrue"); ok {
		wind.Direction = &deg
	}
	if wind.Speed != nil || wind.Direction != nil {
		entry.Wind = &wind
	}

	obs := model.Observations{}
	if code, ok := observationCode(state, "environment.water.swell.state"); ok {
		obs.SeaState = &code
	}
	if code, ok := observationCode(state, "environment.outside.cloudCoverage"); ok {
		obs.CloudCoverage = &code
	}
	if code, ok := observationCode(state, "environment.outside.visibility"); ok {
		obs.Visibility = &code
	}
	if obs.SeaState != nil || obs.CloudCoverage != nil || obs.Visibility != nil {
		entry.Observations = &obs
	}

	if hours, ok := engineHours(state); ok {
		entry.Engine = &model.Engine{Hours: hours}
	}
	if channel, ok := vhfChannel(state); ok {
		entry.VHF = channel
	}
	if crew, ok := state["communication.crewNames"]; ok {
		if names, ok := crew.StringList(); ok && len(names) > 0 {
			entry.CrewNames = names
		}
	}

	return entry
}

// entryTime uses the snapshot's nominal timestamp when present and
// parseable, falling back to the current time.
func entryTime(state model.Snapshot) time.Time {
	if s, ok := state.Text(model.DatetimeKey); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// position extracts a coordinate from an object value with numeric
// latitude and longitude.
func position(v model.Value) (*model.Position, bool) {
	latField, ok := v.Field("latitude")
	if !ok {
		return nil, false
	}
	lat, ok := latField.Float()
	if !ok {
		return nil, false
	}
	lonField, ok := v.Field("longitude")
	if !ok {
		return nil, false
	}
	lon, ok := lonField.Float()
	if !ok {
		return nil, false
	}
	pos := &model.Position{Latitude: lat, Longitude: lon}
	if srcField, ok := v.Field("source"); ok {
		if src, ok := srcField.Text(); ok {
			pos.Source = src
		}
	}
	return pos, true
}

// degrees converts a radian path value to integer degrees in [0, 359].
func degrees(state model.Snapshot, path string) (int, bool) {
	rad, ok := state.Float(path)
	if !ok {
		return 0, false
	}
	deg := int(math.Round(rad * 180 / math.Pi))
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg, true
}

// knots converts a m/s path value to knots, one decimal.
func knots(state model.Snapshot, path string) (float64, bool) {
	ms, ok := state.Float(path)
	if !ok {
		return 0, false
	}
	return round1(ms * knotsPerMetersPerSec), true
}

// observationCode copies a coded observation value when numeric.
func observationCode(state model.Snapshot, path string) (int, bool) {
	f, ok := state.Float(path)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// engineHours converts per-engine run time from seconds to hours, one
// decimal. Paths are scanned in sorted order, so when several engines
// report, the last one by name wins deterministically.
func engineHours(state model.Snapshot) (float64, bool) {
	paths := []string{}
	for path := range state {
		if engineRunTimeRe.MatchString(path) {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return 0, false
	}
	sort.Strings(paths)
	hours := 0.0
	found := false
	for _, path := range paths {
		if secs, ok := state.Float(path); ok {
			hours = round1(secs / 3600)
			found = true
		}
	}
	return hours, found
}

// vhfChannel copies the working channel verbatim, whether the feed
// delivers it as a string or a number.
func vhfChannel(state model.Snapshot) (string, bool) {
	v, ok := state["communication.vhf.channel"]
	if !ok {
		return "", false
	}
	if s, ok := v.Text(); ok && s != "" {
		return s, true
	}
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
