// Package specfile implements the Spec Loader (spec §4.2): parsing the
// declarative YAML specification into the unvalidated raw model that the
// Validator/Normalizer consumes.
package specfile

import (
	"bytes"
	"fmt"

	"github.com/emergent-company/ecsgen/internal/model"
	"gopkg.in/yaml.v3"
)

// RawStateUse mirrors the `{ use, default, check, begin_phase, preflight,
// system, postflight, end_phase }` shape of a system state-use, before
// access-point defaulting.
type RawStateUse struct {
	Use        string `yaml:"use"`
	Default    string `yaml:"default"`
	Check      string `yaml:"check"`
	BeginPhase string `yaml:"begin_phase"`
	Preflight  string `yaml:"preflight"`
	System     string `yaml:"system"`
	Postflight string `yaml:"postflight"`
	EndPhase   string `yaml:"end_phase"`

	Pos model.Pos `yaml:"-"`
}

// RawPhaseStateUse mirrors `{ use, begin_phase, end_phase }`.
type RawPhaseStateUse struct {
	Use        string `yaml:"use"`
	BeginPhase string `yaml:"begin_phase"`
	EndPhase   string `yaml:"end_phase"`

	Pos model.Pos `yaml:"-"`
}

type RawComponent struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Pos model.Pos `yaml:"-"`
}

type RawState struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Pos model.Pos `yaml:"-"`
}

type RawArchetype struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Components  []string `yaml:"components"`
	Promotions  []string `yaml:"promotions"`

	Pos model.Pos `yaml:"-"`
}

type RawPhase struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Fixed       string             `yaml:"fixed"`
	Manual      bool               `yaml:"manual"`
	OnRequest   bool               `yaml:"on_request"`
	States      []RawPhaseStateUse `yaml:"states"`

	Pos model.Pos `yaml:"-"`
}

type RawSystem struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Phase       string        `yaml:"phase"`
	Context     bool          `yaml:"context"`
	Manual      bool          `yaml:"manual"`
	OnRequest   bool          `yaml:"on_request"`
	Preflight   bool          `yaml:"preflight"`
	Postflight  bool          `yaml:"postflight"`
	Entities    bool          `yaml:"entities"`
	RunAfter    []string      `yaml:"run_after"`
	Lookup      []string      `yaml:"lookup"`
	Inputs      []string      `yaml:"inputs"`
	Outputs     []string      `yaml:"outputs"`
	States      []RawStateUse `yaml:"states"`

	Pos model.Pos `yaml:"-"`
}

type RawWorld struct {
	Name       string   `yaml:"name"`
	Archetypes []string `yaml:"archetypes"`

	Pos model.Pos `yaml:"-"`
}

// RawSpec is the unvalidated model produced by Load.
type RawSpec struct {
	AllowUnsafe bool           `yaml:"allow_unsafe"`
	Components  []RawComponent `yaml:"components"`
	States      []RawState     `yaml:"states"`
	Archetypes  []RawArchetype `yaml:"archetypes"`
	Phases      []RawPhase     `yaml:"phases"`
	Systems     []RawSystem    `yaml:"systems"`
	Worlds      []RawWorld     `yaml:"worlds"`
}

// topLevelKeys lists the only keys Load accepts; anything else fails strict
// mode with MalformedSpec.
var topLevelKeys = map[string]bool{
	"allow_unsafe": true,
	"components":   true,
	"states":       true,
	"archetypes":   true,
	"phases":       true,
	"systems":      true,
	"worlds":       true,
}

// Load parses the declarative specification in data into a RawSpec. Unknown
// top-level keys and unknown fields within list entries are rejected (strict
// mode). Malformed YAML or schema violations fail with *model.MalformedSpec.
func Load(data []byte) (*RawSpec, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &model.MalformedSpec{Location: "document", Cause: err}
	}

	if err := checkKnownKeys(&doc); err != nil {
		return nil, err
	}

	strictDec := yaml.NewDecoder(bytes.NewReader(data))
	strictDec.KnownFields(true)

	var raw RawSpec
	if err := strictDec.Decode(&raw); err != nil {
		return nil, &model.MalformedSpec{Location: "document", Cause: err}
	}

	attachPositions(&doc, &raw)

	return &raw, nil
}

// checkKnownKeys walks the top-level mapping node and rejects any key not in
// topLevelKeys, independent of KnownFields (which only catches struct-field
// typos, not arbitrary extra top-level keys with a matching nested shape).
func checkKnownKeys(doc *yaml.Node) error {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return &model.MalformedSpec{Location: "document", Cause: fmt.Errorf("expected a mapping at the document root")}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if !topLevelKeys[key.Value] {
			loc := fmt.Sprintf("line %d, column %d", key.Line, key.Column)
			return &model.MalformedSpec{Location: loc, Cause: fmt.Errorf("unknown top-level key %q", key.Value)}
		}
	}
	return nil
}

// attachPositions re-walks the raw yaml.Node tree to recover line/column
// information for each declared entity, matching them up by list index
// (the two decode passes parse the same document, so indices line up).
func attachPositions(doc *yaml.Node, raw *RawSpec) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return
	}

	sections := map[string][]*yaml.Node{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		val := root.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			continue
		}
		sections[key.Value] = val.Content
	}

	setPos := func(nodes []*yaml.Node, i int, dst *model.Pos) {
		if i < len(nodes) {
			dst.Line = nodes[i].Line
			dst.Column = nodes[i].Column
		}
	}

	if nodes, ok := sections["components"]; ok {
		for i := range raw.Components {
			setPos(nodes, i, &raw.Components[i].Pos)
		}
	}
	if nodes, ok := sections["states"]; ok {
		for i := range raw.States {
			setPos(nodes, i, &raw.States[i].Pos)
		}
	}
	if nodes, ok := sections["archetypes"]; ok {
		for i := range raw.Archetypes {
			setPos(nodes, i, &raw.Archetypes[i].Pos)
		}
	}
	if nodes, ok := sections["phases"]; ok {
		for i := range raw.Phases {
			setPos(nodes, i, &raw.Phases[i].Pos)
		}
	}
	if nodes, ok := sections["systems"]; ok {
		for i := range raw.Systems {
			setPos(nodes, i, &raw.Systems[i].Pos)
		}
	}
	if nodes, ok := sections["worlds"]; ok {
		for i := range raw.Worlds {
			setPos(nodes, i, &raw.Worlds[i].Pos)
		}
	}
}
