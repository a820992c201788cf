// Package scenes holds the authored scene descriptions and the scripts
// attached to scene objects.
package scenes

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneSpec describes one scene: where the player starts and which objects
// it contains.
type SceneSpec struct {
	Name    string       `yaml:"name"`
	Player  PlayerSpec   `yaml:"player"`
	Objects []ObjectSpec `yaml:"objects"`
}

type PlayerSpec struct {
	Position   [3]float64 `yaml:"position"`
	Radius     float64    `yaml:"radius"`
	LayerIndex int        `yaml:"layer"`
	Speed      float64    `yaml:"speed"`
}

type BoundsSpec struct {
	Center [3]float64 `yaml:"center"`
	Size   [3]float64 `yaml:"size"`
}

type ObjectSpec struct {
	ID         string     `yaml:"id"`
	Type       string     `yaml:"type"`
	Name       string     `yaml:"name"`
	LayerIndex int        `yaml:"layer"`
	Position   [3]float64 `yaml:"position"`
	Yaw        float64    `yaml:"yaw"`
	// Model is the mesh bounds in object space. Objects without one cannot
	// carry a trigger volume.
	Model *BoundsSpec `yaml:"model"`
	// Times defaults to 1 when omitted.
	Times        *int   `yaml:"times"`
	SwitchState  int    `yaml:"switch_state"`
	LinkedObject string `yaml:"linked_object"`
	Script       string `yaml:"script"`
	// Active defaults to true; inactive objects wait for a linked activation.
	Active     *bool          `yaml:"active"`
	Components map[string]any `yaml:"components"`
}

// GateComponentSpec configures the "gate" component of an object.
type GateComponentSpec struct {
	OpenTicks int  `yaml:"open_ticks"`
	Open      bool `yaml:"open"`
}

func (o ObjectSpec) TimesOrDefault() int {
	if o.Times == nil {
		return 1
	}
	return *o.Times
}

func (o ObjectSpec) ActiveOrDefault() bool {
	if o.Active == nil {
		return true
	}
	return *o.Active
}

func (l Loader) LoadSceneSpec(name string) (SceneSpec, error) {
	data, err := l.Load(name)
	if err != nil {
		return SceneSpec{}, fmt.Errorf("scenes: load %s: %w", name, err)
	}
	spec, err := ParseSceneSpec(data)
	if err != nil {
		return SceneSpec{}, fmt.Errorf("scenes: %s: %w", name, err)
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(cleanScenePath(name), ".yaml")
	}
	return spec, nil
}

// LoadSceneSpec loads a scene through DefaultLoader.
func LoadSceneSpec(name string) (SceneSpec, error) {
	return DefaultLoader.LoadSceneSpec(name)
}

// ParseSceneSpec decodes and checks a scene document.
func ParseSceneSpec(data []byte) (SceneSpec, error) {
	var spec SceneSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return SceneSpec{}, fmt.Errorf("unmarshal: %w", err)
	}

	seen := make(map[string]struct{}, len(spec.Objects))
	for i, obj := range spec.Objects {
		if strings.TrimSpace(obj.ID) == "" {
			return SceneSpec{}, fmt.Errorf("object %d: id is required", i)
		}
		if _, dup := seen[obj.ID]; dup {
			return SceneSpec{}, fmt.Errorf("object %q: duplicate id", obj.ID)
		}
		seen[obj.ID] = struct{}{}
		if obj.Type == "" {
			return SceneSpec{}, fmt.Errorf("object %q: type is required", obj.ID)
		}
		if obj.SwitchState != 0 && obj.SwitchState != 1 {
			return SceneSpec{}, fmt.Errorf("object %q: switch_state must be 0 or 1", obj.ID)
		}
	}
	for _, obj := range spec.Objects {
		if obj.LinkedObject == "" {
			continue
		}
		if obj.LinkedObject == obj.ID {
			return SceneSpec{}, fmt.Errorf("object %q: linked to itself", obj.ID)
		}
	}
	return spec, nil
}

// DecodeComponentSpec re-decodes a raw YAML value into T.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
