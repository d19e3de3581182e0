package vpx

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// SyncKind says how a synthesized lightmap is driven at runtime.
type SyncKind int

const (
	// SyncLight drives the lightmap from a table light.
	SyncLight SyncKind = iota
	// SyncFlasher drives the lightmap from a flasher.
	SyncFlasher
	// SyncHide hides a lightmap whose driving entity could not be
	// resolved.
	SyncHide
)

// SyncUpdate is one managed statement of the timer routine, keyed by the
// source entity it synchronizes.
type SyncUpdate struct {
	Driver    string // element reference of the driving light/flasher, empty for SyncHide
	Target    string // element reference of the lightmap primitive
	Kind      SyncKind
	SyncColor bool
	Intensity float64 // computed intensity scale for the statement
}

// intensityTolerance is how far a user-edited intensity may drift from the
// computed one before a mismatch is logged. The user value is kept either
// way.
const intensityTolerance = 0.1

// ScriptPatch rewrites the automation-script routines that keep in-engine
// effects synchronized with baked results. The patch is text-pattern based:
// routines are located by literal markers, managed statements are diffed by
// driver reference, and user-authored lines are preserved.
type ScriptPatch struct {
	Updates   []SyncUpdate
	Lightmaps []string // element references for the lamp helper routine
	Movables  []string // element references for the movable helper routine
	Logger    *slog.Logger
}

const (
	syncRoutine    = "Sub VLMTimer_Timer"
	lampzRoutine   = "Sub VLMLampzHelper"
	movableRoutine = "Sub VLMMovableHelper"
)

var managedStatementRe = regexp.MustCompile(`^UpdateLightMapFrom(Light|Flasher)\s+([^,]+),\s*([^,]+),\s*([0-9.Ee+-]+),\s*(True|False)\s*$`)

var hideStatementRe = regexp.MustCompile(`^(.+?)\.Visible\s*=\s*False\s*$`)

// ExportName maps an entity name to a script-safe identifier.
func ExportName(name string) string {
	replacer := strings.NewReplacer(".", "_", " ", "_", "-", "_")
	return replacer.Replace(name)
}

// ElementRef renders a table element reference for use in script text.
// Names that are not plain identifiers go through GetElementByName.
func ElementRef(name string) string {
	if len(name) > 31 {
		name = name[:31]
	}
	if strings.ContainsAny(name, " .") {
		return `GetElementByName("` + name + `")`
	}
	return name
}

func (u SyncUpdate) statement(intensity string) string {
	syncColor := "False"
	if u.SyncColor {
		syncColor = "True"
	}
	switch u.Kind {
	case SyncLight:
		return "\tUpdateLightMapFromLight " + u.Driver + ", " + u.Target + ", " + intensity + ", " + syncColor + "\n"
	case SyncFlasher:
		return "\tUpdateLightMapFromFlasher " + u.Driver + ", " + u.Target + ", " + intensity + ", " + syncColor + "\n"
	default:
		return "\t" + u.Target + ".Visible = False\n"
	}
}

func (u SyncUpdate) computedIntensity() string {
	return strconv.FormatFloat(u.Intensity, 'f', -1, 64)
}

// Apply patches the decoded script and returns the new text. Line endings
// are normalized to LF, as the routines are rebuilt line by line.
func (p *ScriptPatch) Apply(code string) string {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pending := append([]SyncUpdate(nil), p.Updates...)

	const (
		stateNone = iota
		stateSync
		stateLampz
		stateMovable
	)
	state := stateNone
	syncSeen, lampzSeen, movableSeen := false, false, false

	var out strings.Builder
	for _, line := range splitLines(code) {
		stripped := strings.TrimSpace(line)
		switch state {
		case stateNone:
			switch {
			case strings.HasPrefix(stripped, syncRoutine):
				if syncSeen {
					// Conflicting managed blocks are logged, never
					// resolved.
					logger.Warn("duplicate sync routine in script", "routine", syncRoutine)
				}
				syncSeen = true
				state = stateSync
				out.WriteString(line + "\n")
			case strings.HasPrefix(stripped, lampzRoutine):
				lampzSeen = true
				state = stateLampz
				out.WriteString(line + "\n")
			case strings.HasPrefix(stripped, movableRoutine):
				movableSeen = true
				state = stateMovable
				out.WriteString(line + "\n")
			default:
				out.WriteString(line + "\n")
			}
		case stateSync:
			if strings.HasPrefix(stripped, "End Sub") {
				for _, u := range pending {
					out.WriteString(u.statement(u.computedIntensity()))
				}
				pending = pending[:0]
				out.WriteString("End Sub\n")
				state = stateNone
				continue
			}
			if m := managedStatementRe.FindStringSubmatch(stripped); m != nil {
				driver, target, intensity := strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), m[4]
				idx := findUpdate(pending, driver)
				if idx < 0 {
					out.WriteString("  ' " + stripped + "\n")
					continue
				}
				u := pending[idx]
				pending = append(pending[:idx], pending[idx+1:]...)
				if u.Target != target {
					logger.Warn("lightmap changed for driver", "driver", driver, "from", target, "to", u.Target)
				}
				userValue, err := strconv.ParseFloat(intensity, 64)
				if err != nil || abs(userValue-u.Intensity) > intensityTolerance {
					logger.Warn("custom intensity does not match computed value",
						"driver", driver, "custom", intensity, "computed", u.computedIntensity())
				}
				out.WriteString(u.statement(intensity))
				continue
			}
			if m := hideStatementRe.FindStringSubmatch(stripped); m != nil {
				if idx := findHide(pending, strings.TrimSpace(m[1])); idx >= 0 {
					u := pending[idx]
					pending = append(pending[:idx], pending[idx+1:]...)
					out.WriteString(u.statement(""))
					continue
				}
			}
			out.WriteString(line + "\n")
		case stateLampz:
			if strings.HasPrefix(stripped, "End Sub") {
				for _, ref := range p.Lightmaps {
					out.WriteString("\tLampz.Callback(0) = \"UpdateLightMap " + ref + ", 100, \"\n")
				}
				out.WriteString("End Sub\n")
				state = stateNone
			}
		case stateMovable:
			if strings.HasPrefix(stripped, "End Sub") {
				for _, ref := range p.Movables {
					out.WriteString("\t" + ref + ".RotZ = 0\n")
				}
				out.WriteString("End Sub\n")
				state = stateNone
			}
		}
	}

	if !syncSeen {
		out.WriteString(p.syncBoilerplate(pending))
		pending = nil
	}
	if !lampzSeen {
		out.WriteString("\n\n" + lampzRoutine + "\n")
		for _, ref := range p.Lightmaps {
			out.WriteString("\tLampz.Callback(0) = \"UpdateLightMap " + ref + ", 100, \"\n")
		}
		out.WriteString("End Sub\n")
	}
	if !movableSeen {
		out.WriteString("\n\n" + movableRoutine + "\n")
		for _, ref := range p.Movables {
			out.WriteString("\t" + ref + ".RotZ = 0\n")
		}
		out.WriteString("End Sub\n")
	}
	return out.String()
}

func (p *ScriptPatch) syncBoilerplate(pending []SyncUpdate) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString("' ===============================================================\n")
	b.WriteString("' ZVLM       Virtual Pinball X Light Mapper generated code\n")
	b.WriteString("' ===============================================================\n")
	b.WriteString("' Warning: Only intensity will be preserved if edited and re-exported\n")
	b.WriteString("Sub VLMTimer_Timer\n")
	for _, u := range pending {
		b.WriteString(u.statement(u.computedIntensity()))
	}
	b.WriteString("End Sub\n\n")
	b.WriteString("Function LightTemperature(light, is_on, percent)\n")
	b.WriteString("\tIf is_on Then\n")
	b.WriteString("\t\tLightTemperature = percent*percent*(3 - 2*percent) ' Smoothstep\n")
	b.WriteString("\tElse\n")
	b.WriteString("\t\tLightTemperature = 1 - Sqr(1 - percent*percent) '\n")
	b.WriteString("\tEnd If\n")
	b.WriteString("End Function\n\n")
	b.WriteString("Sub UpdateLightMapFromFlasher(flasher, lightmap, intensity_scale, sync_color)\n")
	b.WriteString("\tIf flasher.Visible Then\n")
	b.WriteString("\t\tIf sync_color Then lightmap.Color = flasher.Color\n")
	b.WriteString("\t\tlightmap.Opacity = intensity_scale * flasher.IntensityScale * flasher.Opacity / 1000.0\n")
	b.WriteString("\t\tlightmap.Visible = lightmap.Opacity > 0.1\n")
	b.WriteString("\tElse\n")
	b.WriteString("\t\tlightmap.Opacity = 0\n")
	b.WriteString("\t\tlightmap.Visible = False\n")
	b.WriteString("\tEnd If\n")
	b.WriteString("End Sub\n\n")
	b.WriteString("Sub UpdateLightMapFromLight(light, lightmap, intensity_scale, sync_color)\n")
	b.WriteString("\tlight.FadeSpeedUp = light.Intensity / 50\n")
	b.WriteString("\tlight.FadeSpeedDown = light.Intensity / 200\n")
	b.WriteString("\tIf sync_color Then lightmap.Color = light.Colorfull\n")
	b.WriteString("\tDim t: t = LightTemperature(light, light.GetInPlayStateBool(), light.GetInPlayIntensity() / light.Intensity)\n")
	b.WriteString("\tlightmap.Opacity = intensity_scale * light.IntensityScale * t\n")
	b.WriteString("\tlightmap.Visible = lightmap.Opacity > 0.1\n")
	b.WriteString("End Sub\n\n")
	return b.String()
}

func findUpdate(updates []SyncUpdate, driver string) int {
	for i, u := range updates {
		if u.Kind != SyncHide && u.Driver == driver {
			return i
		}
	}
	return -1
}

func findHide(updates []SyncUpdate, target string) int {
	for i, u := range updates {
		if u.Kind == SyncHide && u.Target == target {
			return i
		}
	}
	return -1
}

func splitLines(code string) []string {
	lines := strings.Split(code, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
