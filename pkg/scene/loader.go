package scene

import (
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/openalign/openalign/pkg/geom"
	"github.com/openalign/openalign/pkg/solver"
)

// Scene is a loaded assembly document: a world plus the constraints
// authored against it.
type Scene struct {
	// Name identifies the assembly.
	Name string

	// World is the populated scene graph.
	World *World

	// Constraints are the authored constraints, in document order.
	Constraints []*solver.Constraint

	// Tolerance is the document's model tolerance.
	Tolerance float64

	// RotationGain is the document's solver gain, zero for the default.
	RotationGain float64
}

// Context builds a solve context for this scene.
func (s *Scene) Context(log zerolog.Logger) *solver.SolveContext {
	return &solver.SolveContext{
		Host:         s.World,
		Tolerance:    s.Tolerance,
		RotationGain: s.RotationGain,
		Log:          log,
	}
}

// Document schema. Rotations are authored as axis plus degrees; all
// geometry is component-local.

type rotationDoc struct {
	Axis    geom.Vec3 `yaml:"axis"`
	Degrees float64   `yaml:"degrees"`
}

type triangleDoc struct {
	A geom.Vec3 `yaml:"a"`
	B geom.Vec3 `yaml:"b"`
	C geom.Vec3 `yaml:"c"`
}

type faceDoc struct {
	Name      string        `yaml:"name" validate:"required"`
	Normal    *geom.Vec3    `yaml:"normal,omitempty"`
	Triangles []triangleDoc `yaml:"triangles,omitempty"`
}

type edgeDoc struct {
	Name   string      `yaml:"name" validate:"required"`
	Points []geom.Vec3 `yaml:"points" validate:"min=2"`
}

type pointDoc struct {
	Name      string     `yaml:"name" validate:"required"`
	At        geom.Vec3  `yaml:"at"`
	Direction *geom.Vec3 `yaml:"direction,omitempty"`
}

type componentDoc struct {
	Name     string       `yaml:"name" validate:"required"`
	Parent   string       `yaml:"parent,omitempty"`
	Fixed    bool         `yaml:"fixed,omitempty"`
	Position geom.Vec3    `yaml:"position,omitempty"`
	Rotation *rotationDoc `yaml:"rotation,omitempty"`
	Faces    []faceDoc    `yaml:"faces,omitempty" validate:"dive"`
	Edges    []edgeDoc    `yaml:"edges,omitempty" validate:"dive"`
	Points   []pointDoc   `yaml:"points,omitempty" validate:"dive"`
}

type constraintDoc struct {
	ID        string  `yaml:"id"`
	Kind      string  `yaml:"kind" validate:"required,oneof=parallel anti-parallel"`
	A         string  `yaml:"a" validate:"required"`
	B         string  `yaml:"b" validate:"required"`
	Tolerance float64 `yaml:"tolerance,omitempty" validate:"gte=0"`
}

type sceneDoc struct {
	Name         string          `yaml:"name"`
	Tolerance    float64         `yaml:"tolerance,omitempty" validate:"gte=0"`
	RotationGain float64         `yaml:"rotation_gain,omitempty" validate:"gte=0,lte=1"`
	Components   []componentDoc  `yaml:"components" validate:"min=1,dive"`
	Constraints  []constraintDoc `yaml:"constraints,omitempty" validate:"dive"`
}

// Loader parses assembly documents into populated scenes.
type Loader struct {
	log      zerolog.Logger
	validate *validator.Validate
}

// NewLoader creates a scene loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		log:      log.With().Str("component", "scene-loader").Logger(),
		validate: validator.New(),
	}
}

// LoadFile reads and builds a scene from a YAML file.
func (l *Loader) LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	scene, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	return scene, nil
}

// Load builds a scene from raw YAML.
func (l *Loader) Load(data []byte) (*Scene, error) {
	var doc sceneDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene YAML: %w", err)
	}
	if err := l.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid scene document: %w", err)
	}
	return l.build(&doc)
}

func (l *Loader) build(doc *sceneDoc) (*Scene, error) {
	world := NewWorld(l.log)

	for _, cd := range doc.Components {
		comp, err := world.AddComponent(cd.Name, cd.Parent)
		if err != nil {
			return nil, err
		}
		comp.SetFixed(cd.Fixed)

		rot := geom.IdentityQuat()
		if cd.Rotation != nil {
			axis, ok := cd.Rotation.Axis.Normalized()
			if !ok {
				return nil, fmt.Errorf("component %q: rotation axis must be non-zero", cd.Name)
			}
			rot = geom.QuatFromAxisAngle(axis, cd.Rotation.Degrees*math.Pi/180)
		}
		world.SetPose(comp, cd.Position, rot)

		for _, fd := range cd.Faces {
			tris := make([]geom.Triangle, len(fd.Triangles))
			for i, td := range fd.Triangles {
				tris[i] = geom.Triangle{A: td.A, B: td.B, C: td.C}
			}
			if _, err := world.AddFace(comp, fd.Name, fd.Normal, tris); err != nil {
				return nil, err
			}
		}
		for _, ed := range cd.Edges {
			if _, err := world.AddEdge(comp, ed.Name, ed.Points); err != nil {
				return nil, err
			}
		}
		for _, pd := range cd.Points {
			if _, err := world.AddPoint(comp, pd.Name, pd.At, pd.Direction); err != nil {
				return nil, err
			}
		}
	}

	scene := &Scene{
		Name:         doc.Name,
		World:        world,
		Tolerance:    doc.Tolerance,
		RotationGain: doc.RotationGain,
	}

	for i, cd := range doc.Constraints {
		selA, err := world.Select(cd.A)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: side a: %w", i, err)
		}
		selB, err := world.Select(cd.B)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: side b: %w", i, err)
		}
		id := cd.ID
		if id == "" {
			id = fmt.Sprintf("constraint-%d", i+1)
		}
		scene.Constraints = append(scene.Constraints, &solver.Constraint{
			ID:         id,
			Kind:       solver.ConstraintKind(cd.Kind),
			Selections: [2]solver.Selection{selA, selB},
			Tolerance:  cd.Tolerance,
		})
	}

	l.log.Info().
		Str("scene", scene.Name).
		Int("components", len(doc.Components)).
		Int("constraints", len(scene.Constraints)).
		Msg("scene loaded")
	return scene, nil
}
