package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Programs []yamlProgram `yaml:"programs"`
}

type yamlProgram struct {
	ID          string           `yaml:"id"`
	Description string           `yaml:"description"`
	Params      []yamlParam      `yaml:"params"`
	Constraints []yamlConstraint `yaml:"constraints"`
}

type yamlParam struct {
	Name        string `yaml:"name"`
	Alias       string `yaml:"alias"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Output      bool   `yaml:"output"`
	Default     any    `yaml:"default"`
}

type yamlConstraint struct {
	Kind       string   `yaml:"kind"`
	Params     []string `yaml:"params"`
	Param      string   `yaml:"param"`
	Values     []any    `yaml:"values"`
	Expr       string   `yaml:"expr"`
	Engine     string   `yaml:"engine"`
	Message    string   `yaml:"message"`
	Fatal      *bool    `yaml:"fatal"`
	WhenPassed []string `yaml:"when_passed"`
	WhenAbsent []string `yaml:"when_absent"`
}

// ParseYAML parses a YAML manifest. Constraints keep their declared order.
func ParseYAML(src []byte) (*Manifest, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("manifest: failed to decode yaml: %w", err)
	}

	m := &Manifest{Programs: make([]ProgramSpec, 0, len(doc.Programs))}
	for _, yp := range doc.Programs {
		program, err := yp.spec()
		if err != nil {
			return nil, fmt.Errorf("manifest: program %s: %w", yp.ID, err)
		}
		m.Programs = append(m.Programs, program)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (yp yamlProgram) spec() (ProgramSpec, error) {
	program := ProgramSpec{ID: yp.ID, Description: yp.Description}
	params := make(map[string]ParamSpec, len(yp.Params))

	for _, p := range yp.Params {
		typ, err := goType(p.Type)
		if err != nil {
			return ProgramSpec{}, fmt.Errorf("param %s: %w", p.Name, err)
		}
		def, err := coerce(p.Default, typ)
		if err != nil {
			return ProgramSpec{}, fmt.Errorf("param %s default: %w", p.Name, err)
		}
		spec := ParamSpec{
			Name:        p.Name,
			Alias:       p.Alias,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Output:      p.Output,
			Default:     def,
		}
		params[p.Name] = spec
		program.Params = append(program.Params, spec)
	}

	for i, c := range yp.Constraints {
		spec := ConstraintSpec{
			Kind:       c.Kind,
			Params:     c.Params,
			Param:      c.Param,
			Expr:       c.Expr,
			Engine:     c.Engine,
			Message:    c.Message,
			Fatal:      fatalOrDefault(c.Fatal),
			WhenPassed: c.WhenPassed,
			WhenAbsent: c.WhenAbsent,
		}
		switch c.Kind {
		case KindOnlyOne, KindAtLeastOne, KindCheck:
		case KindIgnored:
			spec.Fatal = false
		case KindInSet:
			param, ok := params[c.Param]
			if !ok {
				return ProgramSpec{}, fmt.Errorf("constraint %d: in_set references undeclared parameter %q", i, c.Param)
			}
			typ, _ := goType(param.Type)
			for j, raw := range c.Values {
				v, err := coerce(raw, typ)
				if err != nil {
					return ProgramSpec{}, fmt.Errorf("constraint %d value %d: %w", i, j, err)
				}
				spec.Values = append(spec.Values, v)
			}
		default:
			return ProgramSpec{}, fmt.Errorf("constraint %d: %w: %q", i, ErrUnknownConstraint, c.Kind)
		}
		program.Constraints = append(program.Constraints, spec)
	}
	return program, nil
}
