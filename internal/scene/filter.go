package scene

import (
	"fmt"
	"strings"
)

// Mode selects which object classes are shown.
type Mode int

const (
	ModeBoth Mode = iota
	ModeSatellites
	ModeDebris
)

func (m Mode) String() string {
	switch m {
	case ModeBoth:
		return "both"
	case ModeSatellites:
		return "satellites"
	case ModeDebris:
		return "debris"
	default:
		return "unknown"
	}
}

// Next cycles both → satellites → debris → both.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return ModeBoth, nil
	case "satellites", "sats", "satellite":
		return ModeSatellites, nil
	case "debris":
		return ModeDebris, nil
	default:
		return ModeBoth, fmt.Errorf("unknown view mode %q", s)
	}
}

// ViewFilter decides object visibility. Forced, when non-zero, always wins
// for that one object.
type ViewFilter struct {
	Mode   Mode
	Forced ObjectID
}

// Visible reports whether o passes the filter. Scenery and markers that are
// not mode-controlled are always visible.
func (f ViewFilter) Visible(o *Object) bool {
	if f.Forced != 0 && o.ID == f.Forced {
		return true
	}
	switch o.Kind {
	case KindSatellite:
		return f.Mode != ModeDebris
	case KindDebris, KindDebrisCloud:
		return f.Mode != ModeSatellites
	default:
		return true
	}
}

// DebrisCloudVisible reports whether the debris point batch is shown.
func (f ViewFilter) DebrisCloudVisible() bool {
	return f.Mode == ModeDebris || f.Mode == ModeBoth
}
