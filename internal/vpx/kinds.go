package vpx

// ItemKind is the type code stored as the leading u32 of a GameItem stream.
type ItemKind int32

const (
	KindWall ItemKind = iota
	KindFlipper
	KindTimer
	KindPlunger
	KindText
	KindBumper
	KindTrigger
	KindLight
	KindKicker
	KindDecal
	KindGate
	KindSpinner
	KindRamp
	KindTable
	KindLightCenter
	KindDragPoint
	KindCollection
	KindDispReel
	KindLightSeq
	KindPrimitive
	KindFlasher
	KindRubber
	KindHitTarget

	kindCount
)

var kindNames = [...]string{
	"Wall", "Flipper", "Timer", "Plunger", "Text", "Bumper", "Trigger",
	"Light", "Kicker", "Decal", "Gate", "Spinner", "Ramp", "Table",
	"LightCenter", "DragPoint", "Collection", "DispReel", "LightSeq",
	"Primitive", "Flasher", "Rubber", "HitTarget",
}

// Known reports whether the kind code is part of the closed variant set.
// Unknown kinds are copied through unmodified rather than rejected.
func (k ItemKind) Known() bool { return k >= 0 && k < kindCount }

func (k ItemKind) String() string {
	if !k.Known() {
		return "Unknown"
	}
	return kindNames[k]
}

// Bumper sub-part names used to gate per-part visibility tags.
const (
	PartBase    = "Base"
	PartRing    = "Ring"
	PartSocket  = "Socket"
	PartCap     = "Cap"
	PartBracket = "Bracket"
)

// VisibilityTag reports whether tag is a visibility field for items of this
// kind that bakes replace. Trigger visibility is deliberately excluded
// (triggers stay movable in-engine), as is kicker invisibility.
func (k ItemKind) VisibilityTag(tag string) bool {
	switch k {
	case KindWall:
		return tag == "VSBL" || tag == "SVBL"
	case KindRamp, KindRubber:
		return tag == "RVIS"
	case KindPrimitive, KindHitTarget:
		return tag == "TVIS"
	case KindFlasher:
		return tag == "FVIS"
	}
	return false
}

// BumperPartTag maps a bumper visibility tag to the sub-part it controls.
func BumperPartTag(tag string) (string, bool) {
	switch tag {
	case "BSVS":
		return PartBase, true
	case "RIVS":
		return PartRing, true
	case "SKVS":
		return PartSocket, true
	case "CAVI":
		return PartCap, true
	}
	return "", false
}
