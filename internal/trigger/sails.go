package trigger

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

// SailSummary renders the currently active sails as a human-readable
// list: sail name, with the reef ordinal or furled percentage when
// reduced. Inventory paths are walked in sorted order so the result is
// stable for a given snapshot.
func SailSummary(snap model.Snapshot) string {
	paths := []string{}
	for path := range snap {
		if sailInventoryRe.MatchString(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	parts := []string{}
	for _, path := range paths {
		sail := snap[path]
		if !sailActive(sail) {
			continue
		}
		name := sailName(sail, path)
		if reefs, ok := sailReefs(sail); ok {
			parts = append(parts, name+" ("+humanize.Ordinal(reefs)+" reef)")
			continue
		}
		if ratio, ok := sailFurledRatio(sail); ok {
			// Round to whole percent; furling ratios are coarse anyway.
			percent := strconv.FormatFloat(math.Round(ratio*100), 'f', -1, 64)
			parts = append(parts, name+" ("+percent+"% furled)")
			continue
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

func sailActive(sail model.Value) bool {
	active, ok := sail.Field("active")
	if !ok {
		return false
	}
	flag, ok := active.Flag()
	return ok && flag
}

func sailName(sail model.Value, path string) string {
	if nameField, ok := sail.Field("name"); ok {
		if name, ok := nameField.Text(); ok && name != "" {
			return name
		}
	}
	// Fall back to the inventory id.
	return sailInventoryRe.FindStringSubmatch(path)[1]
}

func sailReefs(sail model.Value) (int, bool) {
	reduced, ok := sail.Field("reducedState")
	if !ok {
		return 0, false
	}
	reefsField, ok := reduced.Field("reefs")
	if !ok {
		return 0, false
	}
	reefs, ok := reefsField.Float()
	if !ok || reefs < 1 {
		return 0, false
	}
	return int(reefs), true
}

func sailFurledRatio(sail model.Value) (float64, bool) {
	reduced, ok := sail.Field("reducedState")
	if !ok {
		return 0, false
	}
	ratioField, ok := reduced.Field("furledRatio")
	if !ok {
		return 0, false
	}
	ratio, ok := ratioField.Float()
	if !ok || ratio <= 0 {
		return 0, false
	}
	return ratio, true
}
