package manifest

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

type hclDocument struct {
	Programs []*hclProgram `hcl:"program,block"`
}

type hclProgram struct {
	ID          string        `hcl:"id,label"`
	Description string        `hcl:"description,optional"`
	Params      []*hclParam   `hcl:"param,block"`
	OnlyOne     []*hclGroup   `hcl:"only_one,block"`
	AtLeastOne  []*hclGroup   `hcl:"at_least_one,block"`
	InSet       []*hclInSet   `hcl:"in_set,block"`
	Checks      []*hclCheck   `hcl:"check,block"`
	Ignored     []*hclIgnored `hcl:"ignored,block"`
}

type hclParam struct {
	Name        string         `hcl:"name,label"`
	Alias       string         `hcl:"alias,optional"`
	Type        string         `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Required    bool           `hcl:"required,optional"`
	Output      bool           `hcl:"output,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

type hclGroup struct {
	Params  []string `hcl:"params"`
	Message string   `hcl:"message,optional"`
	Fatal   *bool    `hcl:"fatal,optional"`
}

type hclInSet struct {
	Param   string         `hcl:"param,label"`
	Values  hcl.Expression `hcl:"values"`
	Message string         `hcl:"message"`
	Fatal   *bool          `hcl:"fatal,optional"`
}

type hclCheck struct {
	Param   string `hcl:"param,label"`
	Expr    string `hcl:"expr"`
	Engine  string `hcl:"engine,optional"`
	Message string `hcl:"message"`
	Fatal   *bool  `hcl:"fatal,optional"`
}

type hclIgnored struct {
	Param      string   `hcl:"param,label"`
	WhenPassed []string `hcl:"when_passed,optional"`
	WhenAbsent []string `hcl:"when_absent,optional"`
}

// ParseHCL parses a manifest in HCL native syntax. filename is only used in
// diagnostics. Constraints are grouped by block type and run in the order
// only_one, at_least_one, in_set, check, ignored.
func ParseHCL(src []byte, filename string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to parse %s: %w", filename, diags)
	}
	return decodeHCL(file, filename)
}

// ParseHCLJSON parses a manifest in HCL JSON syntax.
func ParseHCLJSON(src []byte, filename string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseJSON(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to parse %s: %w", filename, diags)
	}
	return decodeHCL(file, filename)
}

func decodeHCL(file *hcl.File, filename string) (*Manifest, error) {
	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to decode %s: %w", filename, diags)
	}

	m := &Manifest{Programs: make([]ProgramSpec, 0, len(doc.Programs))}
	for _, hp := range doc.Programs {
		program, diags := hp.spec()
		if diags.HasErrors() {
			return nil, fmt.Errorf("manifest: program %s in %s: %w", hp.ID, filename, diags)
		}
		m.Programs = append(m.Programs, program)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (hp *hclProgram) spec() (ProgramSpec, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	program := ProgramSpec{ID: hp.ID, Description: hp.Description}
	types := map[string]reflect.Type{}

	for _, p := range hp.Params {
		spec := ParamSpec{
			Name:        p.Name,
			Alias:       p.Alias,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Output:      p.Output,
		}
		typ, err := goType(p.Type)
		if err != nil {
			diags = append(diags, errorDiag("Unsupported parameter type", err, p.Default.Range()))
			continue
		}
		types[p.Name] = typ
		value, valDiags := p.Default.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		if !value.IsNull() {
			def, err := ctyToGo(value, typ)
			if err != nil {
				diags = append(diags, errorDiag("Invalid default value", fmt.Errorf("param %s: %w", p.Name, err), p.Default.Range()))
				continue
			}
			spec.Default = def
		}
		program.Params = append(program.Params, spec)
	}

	for _, g := range hp.OnlyOne {
		program.Constraints = append(program.Constraints, ConstraintSpec{
			Kind: KindOnlyOne, Params: g.Params, Message: g.Message, Fatal: fatalOrDefault(g.Fatal),
		})
	}
	for _, g := range hp.AtLeastOne {
		program.Constraints = append(program.Constraints, ConstraintSpec{
			Kind: KindAtLeastOne, Params: g.Params, Message: g.Message, Fatal: fatalOrDefault(g.Fatal),
		})
	}
	for _, s := range hp.InSet {
		typ, ok := types[s.Param]
		if !ok {
			diags = append(diags, errorDiag("Undeclared parameter", fmt.Errorf("in_set references %q", s.Param), s.Values.Range()))
			continue
		}
		values, err := ctyList(s.Values, typ)
		if err != nil {
			diags = append(diags, errorDiag("Invalid set values", fmt.Errorf("in_set %s: %w", s.Param, err), s.Values.Range()))
			continue
		}
		program.Constraints = append(program.Constraints, ConstraintSpec{
			Kind: KindInSet, Param: s.Param, Values: values, Message: s.Message, Fatal: fatalOrDefault(s.Fatal),
		})
	}
	for _, c := range hp.Checks {
		program.Constraints = append(program.Constraints, ConstraintSpec{
			Kind: KindCheck, Param: c.Param, Expr: c.Expr, Engine: c.Engine, Message: c.Message, Fatal: fatalOrDefault(c.Fatal),
		})
	}
	for _, ig := range hp.Ignored {
		program.Constraints = append(program.Constraints, ConstraintSpec{
			Kind: KindIgnored, Param: ig.Param, WhenPassed: ig.WhenPassed, WhenAbsent: ig.WhenAbsent,
		})
	}
	return program, diags
}

// ctyToGo decodes val into a new value of typ, converting between compatible
// cty types first (tuples to lists, numbers to ints).
func ctyToGo(val cty.Value, typ reflect.Type) (any, error) {
	target := reflect.New(typ)
	implied, err := gocty.ImpliedType(target.Elem().Interface())
	if err != nil {
		return nil, err
	}
	converted, err := convert.Convert(val, implied)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), implied.FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(converted, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

func ctyList(expr hcl.Expression, typ reflect.Type) ([]any, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, fmt.Errorf("expected a list, got %s", val.Type().FriendlyName())
	}
	out := make([]any, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		v, err := ctyToGo(elem, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func fatalOrDefault(fatal *bool) bool {
	if fatal == nil {
		return true
	}
	return *fatal
}

func errorDiag(summary string, err error, subject hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   err.Error(),
		Subject:  subject.Ptr(),
	}
}
