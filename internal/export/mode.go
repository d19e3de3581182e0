package export

import "fmt"

// Mode selects how aggressively the merge treats geometry replaced by
// bakes.
type Mode int

const (
	// ModeDefault keeps baked items, visibility forced off.
	ModeDefault Mode = iota
	// ModeHide is an alias spelling of the default behavior.
	ModeHide
	// ModeRemove drops baked items without physics. Their textures are
	// kept.
	ModeRemove
	// ModeRemoveAll additionally drops textures referenced only by
	// removed items.
	ModeRemoveAll
)

var modeNames = map[Mode]string{
	ModeDefault:   "default",
	ModeHide:      "hide",
	ModeRemove:    "remove",
	ModeRemoveAll: "remove-all",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// removesItems reports whether baked non-physics items are dropped.
func (m Mode) removesItems() bool {
	return m == ModeRemove || m == ModeRemoveAll
}

// ParseMode parses the configuration spelling of a mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return ModeDefault, fmt.Errorf("unknown export mode %q", s)
}
