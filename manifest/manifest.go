// Package manifest declares programs, their parameters and their constraints
// in HCL or YAML files and turns them into runnable params.Program values.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	params "github.com/goliatone/go-params"
)

var (
	// ErrUnsupportedType indicates a parameter type the manifest cannot map
	// to a Go type.
	ErrUnsupportedType = errors.New("manifest: unsupported parameter type")
	// ErrUnknownConstraint indicates a constraint kind that is not recognised.
	ErrUnknownConstraint = errors.New("manifest: unknown constraint kind")
	// ErrUnknownProgram indicates a lookup for a program that is not declared.
	ErrUnknownProgram = errors.New("manifest: unknown program")
	// ErrUnsupportedFormat indicates a file extension LoadFile cannot parse.
	ErrUnsupportedFormat = errors.New("manifest: unsupported file format")
)

// Constraint kinds accepted in manifests.
const (
	KindOnlyOne    = "only_one"
	KindAtLeastOne = "at_least_one"
	KindInSet      = "in_set"
	KindCheck      = "check"
	KindIgnored    = "ignored"
)

// Manifest is a set of program declarations.
type Manifest struct {
	Programs []ProgramSpec
}

// ProgramSpec declares one program.
type ProgramSpec struct {
	ID          string
	Description string
	Params      []ParamSpec
	Constraints []ConstraintSpec
}

// ParamSpec declares one parameter. Default already holds a value of the Go
// type named by Type.
type ParamSpec struct {
	Name        string
	Alias       string
	Type        string
	Description string
	Required    bool
	Output      bool
	Default     any
}

// ConstraintSpec declares one constraint. Groups (only_one, at_least_one)
// use Params; the remaining kinds name a single Param.
type ConstraintSpec struct {
	Kind       string
	Params     []string
	Param      string
	Values     []any
	Expr       string
	Engine     string
	Message    string
	Fatal      bool
	WhenPassed []string
	WhenAbsent []string
}

// Program returns the declaration for id.
func (m *Manifest) Program(id string) (*ProgramSpec, error) {
	if m != nil {
		for i := range m.Programs {
			if m.Programs[i].ID == id {
				return &m.Programs[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, id)
}

// IDs returns the declared program ids in file order.
func (m *Manifest) IDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.Programs))
	for i, p := range m.Programs {
		ids[i] = p.ID
	}
	return ids
}

// BuildOption customises the program built from a declaration.
type BuildOption func(*params.Program)

// WithRun sets the program body.
func WithRun(run func(ctx context.Context, s *params.Store) error) BuildOption {
	return func(p *params.Program) {
		p.Run = run
	}
}

// WithValidate sets a validation callback that runs after the declared
// constraints.
func WithValidate(validate func(*params.Checker) error) BuildOption {
	return func(p *params.Program) {
		p.Validate = validate
	}
}

// Program builds a params.Program from the declaration.
func (p *ProgramSpec) Program(opts ...BuildOption) (*params.Program, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	out := &params.Program{
		ID:          p.ID,
		Description: p.Description,
	}
	for _, spec := range p.Params {
		def, err := spec.Definition()
		if err != nil {
			return nil, fmt.Errorf("manifest: program %s: %w", p.ID, err)
		}
		out.Params = append(out.Params, def)
	}
	for i, spec := range p.Constraints {
		constraint, err := spec.Constraint()
		if err != nil {
			return nil, fmt.Errorf("manifest: program %s constraint %d: %w", p.ID, i, err)
		}
		out.Constraints = append(out.Constraints, constraint)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}
	return out, nil
}

// Definition converts the declaration into a params.Definition.
func (s ParamSpec) Definition() (params.Definition, error) {
	typ, err := goType(s.Type)
	if err != nil {
		return params.Definition{}, fmt.Errorf("param %s: %w", s.Name, err)
	}
	return params.Definition{
		Param: params.Param{
			Name:        s.Name,
			Alias:       s.Alias,
			Description: s.Description,
			Required:    s.Required,
			Output:      s.Output,
		},
		Type:    typ,
		Default: s.Default,
	}, nil
}

// Constraint converts the declaration into a params.Constraint.
func (s ConstraintSpec) Constraint() (params.Constraint, error) {
	switch s.Kind {
	case KindOnlyOne:
		return params.OnlyOne(s.Fatal, s.Message, s.Params...), nil
	case KindAtLeastOne:
		return params.AtLeastOne(s.Fatal, s.Message, s.Params...), nil
	case KindInSet:
		return params.InSetAny(s.Param, s.Values, s.Fatal, s.Message), nil
	case KindCheck:
		return params.Expr(s.Engine, s.Param, s.Expr, s.Fatal, s.Message), nil
	case KindIgnored:
		conditions := make([]params.Condition, 0, len(s.WhenPassed)+len(s.WhenAbsent))
		for _, name := range s.WhenPassed {
			conditions = append(conditions, params.WhenPassed(name))
		}
		for _, name := range s.WhenAbsent {
			conditions = append(conditions, params.WhenAbsent(name))
		}
		return params.Ignored(s.Param, conditions...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConstraint, s.Kind)
	}
}

// validate checks that every constraint names declared parameters.
func (p *ProgramSpec) validate() error {
	if p == nil {
		return errors.New("manifest: program is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("manifest: program id must be provided")
	}
	declared := make(map[string]bool, len(p.Params))
	for _, param := range p.Params {
		if declared[param.Name] {
			return fmt.Errorf("manifest: program %s declares %q twice", p.ID, param.Name)
		}
		declared[param.Name] = true
	}
	for i, c := range p.Constraints {
		names := append([]string(nil), c.Params...)
		if c.Param != "" {
			names = append(names, c.Param)
		}
		names = append(names, c.WhenPassed...)
		names = append(names, c.WhenAbsent...)
		if len(names) == 0 {
			return fmt.Errorf("manifest: program %s constraint %d (%s) names no parameters", p.ID, i, c.Kind)
		}
		for _, name := range names {
			if !declared[name] {
				return fmt.Errorf("manifest: program %s constraint %d (%s) references undeclared parameter %q", p.ID, i, c.Kind, name)
			}
		}
	}
	return nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Programs))
	for i := range m.Programs {
		p := &m.Programs[i]
		if seen[p.ID] {
			return fmt.Errorf("manifest: program %q declared twice", p.ID)
		}
		seen[p.ID] = true
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile parses path by extension: .hcl, .json (HCL JSON syntax), .yaml or
// .yml.
func LoadFile(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(src, path)
	case ".json":
		return ParseHCLJSON(src, path)
	case ".yaml", ".yml":
		return ParseYAML(src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
