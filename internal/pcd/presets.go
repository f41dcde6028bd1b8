package pcd

import (
	"fmt"
	"sort"
)

// Preset is a named field layout for common sensor outputs.
type Preset struct {
	Name   string
	Fields []string
	Types  []ScalarType
	// Labeled presets end in a "label" field whose type the caller picks.
	Labeled bool
}

func preset(name string, labeled bool, fields []string, types ...ScalarType) Preset {
	return Preset{Name: name, Fields: fields, Types: types, Labeled: labeled}
}

const (
	f32 = Float32
	f64 = Float64
)

var presets = map[string]Preset{
	"xyz":      preset("xyz", false, []string{"x", "y", "z"}, f32, f32, f32),
	"xyzi":     preset("xyzi", false, []string{"x", "y", "z", "intensity"}, f32, f32, f32, f32),
	"xyzl":     preset("xyzl", true, []string{"x", "y", "z", "label"}, f32, f32, f32, f32),
	"xyzrgb":   preset("xyzrgb", false, []string{"x", "y", "z", "rgb"}, f32, f32, f32, f32),
	"xyzrgbl":  preset("xyzrgbl", true, []string{"x", "y", "z", "rgb", "label"}, f32, f32, f32, f32, f32),
	"xyzil":    preset("xyzil", true, []string{"x", "y", "z", "intensity", "label"}, f32, f32, f32, f32, f32),
	"xyzirgb":  preset("xyzirgb", false, []string{"x", "y", "z", "intensity", "rgb"}, f32, f32, f32, f32, f32),
	"xyzirgbl": preset("xyzirgbl", true, []string{"x", "y", "z", "intensity", "rgb", "label"}, f32, f32, f32, f32, f32, f32),
	"xyzt":     preset("xyzt", false, []string{"x", "y", "z", "sec", "nsec"}, f32, f32, f32, Uint32, Uint32),
	"xyzir":    preset("xyzir", false, []string{"x", "y", "z", "intensity", "ring"}, f32, f32, f32, f32, Uint16),
	"xyzirt":   preset("xyzirt", false, []string{"x", "y", "z", "intensity", "ring", "time"}, f32, f32, f32, f32, Uint16, f32),
	"xyzit":    preset("xyzit", false, []string{"x", "y", "z", "intensity", "timestamp"}, f32, f32, f32, f32, f64),
	"xyzis":    preset("xyzis", false, []string{"x", "y", "z", "intensity", "stamp"}, f32, f32, f32, f32, f64),
	"xyzisc": preset("xyzisc", false, []string{"x", "y", "z", "intensity", "stamp", "classification"},
		f32, f32, f32, f32, f64, Uint8),
	"xyzrgbs": preset("xyzrgbs", false, []string{"x", "y", "z", "rgb", "stamp"}, f32, f32, f32, f32, f64),
	"xyzirgbs": preset("xyzirgbs", false, []string{"x", "y", "z", "intensity", "rgb", "stamp"},
		f32, f32, f32, f32, f32, f64),
	"xyzirgbsc": preset("xyzirgbsc", false, []string{"x", "y", "z", "intensity", "rgb", "stamp", "classification"},
		f32, f32, f32, f32, f32, f64, Uint8),
	// return_type and time_stamp contain underscores, so a reader applying
	// the header underscore repair will see them renamed.
	"xyziradt": preset("xyziradt", false,
		[]string{"x", "y", "z", "intensity", "ring", "azimuth", "distance", "return_type", "time_stamp"},
		f32, f32, f32, f32, Uint16, f32, f32, Uint8, f64),
	"ouster": preset("ouster", false,
		[]string{"x", "y", "z", "intensity", "t", "reflectivity", "ring", "ambient", "range"},
		f32, f32, f32, f32, f32, Uint16, Uint8, Uint16, Uint32),
}

// LookupPreset returns a copy of the named preset.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, false
	}
	p.Fields = append([]string(nil), p.Fields...)
	p.Types = append([]ScalarType(nil), p.Types...)
	return p, true
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromPreset builds a cloud with a preset layout. labelType sets the type of
// the label field on labeled presets; Invalid keeps the float32 default.
// It is ignored for other presets.
func FromPreset(name string, points any, labelType ScalarType) (*PointCloud, error) {
	p, ok := LookupPreset(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidInput, name)
	}
	if p.Labeled && labelType != Invalid {
		if !labelType.Valid() {
			return nil, fmt.Errorf("%w: invalid label type %d", ErrSchema, labelType)
		}
		p.Types[len(p.Types)-1] = labelType
	}
	return FromPoints(points, p.Fields, p.Types, nil)
}
