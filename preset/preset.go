// Package preset loads saved answers for the interactive prompts.
//
// A preset is a small YAML document:
//
//	height: 40
//	colored: true
//	brightness: 20
//	saturation: 1.5
//	fps: 12
//	reverse: false
//	ramp: " .:-=+*#%@"
//
// Every field is optional. Present fields become the default answer of the
// matching prompt; absent ones keep the built-in defaults. Documents are
// validated against a JSON Schema derived from [Preset] before decoding, so
// typos and out-of-range values are reported with their location instead of
// silently ignored.
package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ArbuzKaktus/ascii-converter/glyph"
)

// ErrInvalidPreset indicates a preset that cannot be read, parsed, or fails
// schema validation.
var ErrInvalidPreset = errors.New("invalid preset")

// Preset holds optional defaults for the playback prompts.
type Preset struct {
	Height     *int     `json:"height,omitempty"     yaml:"height,omitempty"     jsonschema:"output height in text rows"`
	Colored    *bool    `json:"colored,omitempty"    yaml:"colored,omitempty"    jsonschema:"render with truecolor escapes"`
	Brightness *int     `json:"brightness,omitempty" yaml:"brightness,omitempty" jsonschema:"offset added after the fixed 1.3 gain"`
	Saturation *float64 `json:"saturation,omitempty" yaml:"saturation,omitempty" jsonschema:"HSV saturation multiplier"`
	FPS        *float64 `json:"fps,omitempty"        yaml:"fps,omitempty"        jsonschema:"target frame rate, 0 keeps the source rate"`
	Reverse    *bool    `json:"reverse,omitempty"    yaml:"reverse,omitempty"    jsonschema:"traverse the glyph ramp brightest first"`
	Chars      string   `json:"ramp,omitempty"       yaml:"ramp,omitempty"       jsonschema:"glyph ramp ordered darkest to brightest"`
}

var resolved = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}

	return s.Resolve(nil)
})

// Schema returns the JSON Schema that preset documents must satisfy.
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[Preset](nil)
	if err != nil {
		return nil, fmt.Errorf("building preset schema: %w", err)
	}

	s.Title = "ascii-converter preset"
	s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}

	bound := func(name string, minimum, maximum *float64) {
		p, ok := s.Properties[name]
		if !ok {
			return
		}

		p.Minimum = minimum
		p.Maximum = maximum
	}

	bound("height", jsonschema.Ptr(1.0), nil)
	bound("brightness", jsonschema.Ptr(-255.0), jsonschema.Ptr(255.0))
	bound("saturation", jsonschema.Ptr(0.0), nil)
	bound("fps", jsonschema.Ptr(0.0), nil)

	if p, ok := s.Properties["ramp"]; ok {
		p.MinLength = jsonschema.Ptr(2)
	}

	return s, nil
}

// Load reads and parses the preset at path.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is a CLI argument.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Parse validates and decodes a YAML preset. An empty document yields an
// empty [Preset].
func Parse(data []byte) (*Preset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Preset{}, nil
	}

	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	var instance any

	err = json.Unmarshal(js, &instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	schema, err := resolved()
	if err != nil {
		return nil, err
	}

	err = schema.Validate(instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	var p Preset

	err = yaml.Unmarshal(data, &p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	return &p, nil
}

// Ramp returns the preset's glyph ramp, or [glyph.Default] when none is set.
func (p *Preset) Ramp() (glyph.Ramp, error) {
	if p.Chars == "" {
		return glyph.Default(), nil
	}

	r, err := glyph.New(p.Chars)
	if err != nil {
		return glyph.Ramp{}, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	return r, nil
}
