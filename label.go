package params

import (
	"strings"

	"github.com/stoewer/go-strcase"
)

// BindingStyle identifies the invocation convention a program is exposed
// under. It only affects how parameter names are rendered in diagnostics.
type BindingStyle int

const (
	// StyleFlag renders command-line flags: --reference_file (-r).
	StyleFlag BindingStyle = iota
	// StyleKeyword renders keyword arguments: reference_file.
	StyleKeyword
	// StyleField renders struct fields: ReferenceFile.
	StyleField
)

func (s BindingStyle) String() string {
	switch s {
	case StyleFlag:
		return "flag"
	case StyleKeyword:
		return "keyword"
	case StyleField:
		return "field"
	default:
		return "unknown"
	}
}

// ParseBindingStyle converts a textual style into a BindingStyle. Unrecognised
// values fall back to StyleFlag and report false.
func ParseBindingStyle(value string) (BindingStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "flag", "cli":
		return StyleFlag, true
	case "keyword", "kwarg", "python":
		return StyleKeyword, true
	case "field", "struct", "go":
		return StyleField, true
	default:
		return StyleFlag, false
	}
}

// skipsOutputs reports whether the style always hands every output back to the
// caller, which makes "was passed" meaningless for output parameters.
func (s BindingStyle) skipsOutputs() bool {
	return s == StyleKeyword || s == StyleField
}

// Label renders name for the store's active binding style.
func (s *Store) Label(name string) string {
	return s.LabelFor(s.BindingStyle(), name)
}

// LabelFor renders name for style. Names that are not registered are rendered
// from the raw name alone.
func (s *Store) LabelFor(style BindingStyle, name string) string {
	var p Param
	if s != nil {
		if entry, ok := s.entries[name]; ok {
			p = entry.Param
		}
	}
	if p.Name == "" {
		p.Name = name
	}
	return renderLabel(style, p)
}

func renderLabel(style BindingStyle, p Param) string {
	if label := strings.TrimSpace(p.Labels[style]); label != "" {
		return label
	}
	switch style {
	case StyleKeyword:
		return p.Name
	case StyleField:
		return strcase.UpperCamelCase(p.Name)
	default:
		if p.Alias != "" {
			return "--" + p.Name + " (-" + p.Alias + ")"
		}
		return "--" + p.Name
	}
}

func quote(text string) string {
	return "'" + text + "'"
}
