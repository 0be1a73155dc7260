package compose

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

func baseState() model.Snapshot {
	return model.Snapshot{
		"datetime": model.Str("2024-07-12T10:30:00Z"),
	}
}

func TestComposeDatetime(t *testing.T) {
	entry := Compose(baseState(), "Test", "Skipper")

	want := time.Date(2024, 7, 12, 10, 30, 0, 0, time.UTC)
	if !entry.Datetime.Equal(want) {
		t.Errorf("expected %v, got %v", want, entry.Datetime)
	}
	if entry.Text != "Test" {
		t.Errorf("expected text Test, got %q", entry.Text)
	}
	if entry.Author != "Skipper" {
		t.Errorf("expected author Skipper, got %q", entry.Author)
	}
}

func TestComposeDeterministic(t *testing.T) {
	state := baseState()
	state["navigation.headingTrue"] = model.Num(1.2)
	state["navigation.speedOverGround"] = model.Num(3.1)
	state["navigation.position"] = model.Obj(map[string]model.Value{
		"latitude":  model.Num(60.1),
		"longitude": model.Num(24.9),
	})

	first := Compose(state, "entry", "")
	second := Compose(state, "entry", "")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestComposeHeading(t *testing.T) {
	state := baseState()
	state["navigation.headingTrue"] = model.Num(math.Pi / 2)

	entry := Compose(state, "", "")
	if entry.Heading == nil {
		t.Fatal("expected heading to be set")
	}
	if *entry.Heading != 90 {
		t.Errorf("expected 90 degrees, got %d", *entry.Heading)
	}
}

func TestComposeHeadingAbsent(t *testing.T) {
	// A non-numeric source value leaves the field unset, not zero.
	state := baseState()
	state["navigation.headingTrue"] = model.Str("n/a")

	entry := Compose(state, "", "")
	if entry.Heading != nil {
		t.Errorf("expected no heading, got %d", *entry.Heading)
	}
}

func TestComposeSpeed(t *testing.T) {
	state := baseState()
	state["navigation.speedOverGround"] = model.Num(5.14)

	entry := Compose(state, "", "")
	if entry.Speed == nil || entry.Speed.SOG == nil {
		t.Fatal("expected speed.sog to be set")
	}
	if *entry.Speed.SOG != 10.0 {
		t.Errorf("expected 10.0 knots, got %v", *entry.Speed.SOG)
	}
	if entry.Speed.STW != nil {
		t.Error("expected speed.stw to stay unset")
	}
}

func TestComposePosition(t *testing.T) {
	state := baseState()
	state["navigation.position"] = model.Obj(map[string]model.Value{
		"latitude":  model.Num(59.44),
		"longitude": model.Num(24.75),
	})
	state["navigation.gnss.type"] = model.Str("DGPS")

	entry := Compose(state, "", "")
	if entry.Position == nil {
		t.Fatal("expected position to be set")
	}
	if entry.Position.Latitude != 59.44 || entry.Position.Longitude != 24.75 {
		t.Errorf("unexpected position %+v", entry.Position)
	}
	if entry.Position.Source != "DGPS" {
		t.Errorf("expected source DGPS, got %q", entry.Position.Source)
	}
}

func TestComposeBarometerAndLog(t *testing.T) {
	state := baseState()
	state["environment.outside.pressure"] = model.Num(101325)
	state["navigation.trip.log"] = model.Num(9260)

	entry := Compose(state, "", "")
	if entry.Barometer == nil || *entry.Barometer != 1013.25 {
		t.Errorf("expected barometer 1013.25, got %v", entry.Barometer)
	}
	if entry.Log == nil || *entry.Log != 5.0 {
		t.Errorf("expected log 5.0 NM, got %v", entry.Log)
	}
}

func TestComposeWindPartial(t *testing.T) {
	// Direction may be present without speed.
	state := baseState()
	state["environment.wind.directionTrue"] = model.Num(math.Pi)

	entry := Compose(state, "", "")
	if entry.Wind == nil || entry.Wind.Direction == nil {
		t.Fatal("expected wind direction to be set")
	}
	if *entry.Wind.Direction != 180 {
		t.Errorf("expected 180 degrees, got %d", *entry.Wind.Direction)
	}
	if entry.Wind.Speed != nil {
		t.Error("expected wind speed to stay unset")
	}
}

func TestComposeEngineHours(t *testing.T) {
	state := baseState()
	state["propulsion.main.runTime"] = model.Num(7200)

	entry := Compose(state, "", "")
	if entry.Engine == nil {
		t.Fatal("expected engine hours to be set")
	}
	if entry.Engine.Hours != 2.0 {
		t.Errorf("expected 2.0 hours, got %v", entry.Engine.Hours)
	}
}

func TestComposeEngineHoursLastWins(t *testing.T) {
	// With several engines the last one in sorted path order wins.
	state := baseState()
	state["propulsion.port.runTime"] = model.Num(3600)
	state["propulsion.starboard.runTime"] = model.Num(10800)

	entry := Compose(state, "", "")
	if entry.Engine == nil {
		t.Fatal("expected engine hours to be set")
	}
	if entry.Engine.Hours != 3.0 {
		t.Errorf("expected starboard's 3.0 hours, got %v", entry.Engine.Hours)
	}
}

func TestComposeObservationsAndCrew(t *testing.T) {
	state := baseState()
	state["environment.water.swell.state"] = model.Num(3)
	state["communication.crewNames"] = model.Arr([]model.Value{
		model.Str("Alice"), model.Str("Bob"),
	})
	state["communication.vhf.channel"] = model.Num(16)

	entry := Compose(state, "", "")
	if entry.Observations == nil || entry.Observations.SeaState == nil {
		t.Fatal("expected seaState to be set")
	}
	if *entry.Observations.SeaState != 3 {
		t.Errorf("expected sea state 3, got %d", *entry.Observations.SeaState)
	}
	if !reflect.DeepEqual(entry.CrewNames, []string{"Alice", "Bob"}) {
		t.Errorf("unexpected crew %v", entry.CrewNames)
	}
	if entry.VHF != "16" {
		t.Errorf("expected VHF channel 16, got %q", entry.VHF)
	}
}

func TestComposeWaypoint(t *testing.T) {
	state := baseState()
	state["navigation.courseRhumbline.nextPoint.position"] = model.Obj(map[string]model.Value{
		"latitude":  model.Num(59.5),
		"longitude": model.Num(24.0),
	})

	entry := Compose(state, "", "")
	if entry.Waypoint == nil {
		t.Fatal("expected waypoint to be set")
	}
	if entry.Waypoint.Latitude != 59.5 {
		t.Errorf("unexpected waypoint %+v", entry.Waypoint)
	}
}

func TestComposeEmptyState(t *testing.T) {
	entry := Compose(model.Snapshot{}, "manual", "me")
	if entry.Datetime.IsZero() {
		t.Error("expected fallback datetime")
	}
	if entry.Position != nil || entry.Speed != nil || entry.Wind != nil {
		t.Error("expected optional fields to stay unset")
	}
}
