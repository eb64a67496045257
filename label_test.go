package params

import "testing"

func TestLabelRendering(t *testing.T) {
	store := NewStore(StyleFlag)
	params := []Param{
		{Name: "reference_file", Alias: "r"},
		{Name: "leaf_size"},
		{Name: "k", Labels: map[BindingStyle]string{StyleField: "NumNeighbors"}},
	}
	for _, p := range params {
		if err := Add(store, p, ""); err != nil {
			t.Fatalf("add %s: %v", p.Name, err)
		}
	}

	cases := []struct {
		style BindingStyle
		name  string
		want  string
	}{
		{StyleFlag, "reference_file", "--reference_file (-r)"},
		{StyleFlag, "leaf_size", "--leaf_size"},
		{StyleKeyword, "reference_file", "reference_file"},
		{StyleField, "reference_file", "ReferenceFile"},
		{StyleField, "k", "NumNeighbors"},
		{StyleKeyword, "k", "k"},
		{StyleFlag, "unregistered", "--unregistered"},
	}
	for _, tc := range cases {
		if got := store.LabelFor(tc.style, tc.name); got != tc.want {
			t.Fatalf("LabelFor(%s, %s) = %q, want %q", tc.style, tc.name, got, tc.want)
		}
	}

	store.SetBindingStyle(StyleKeyword)
	if got := store.Label("reference_file"); got != "reference_file" {
		t.Fatalf("expected Label to follow the active style, got %q", got)
	}
}

func TestParseBindingStyle(t *testing.T) {
	cases := map[string]BindingStyle{
		"flag":     StyleFlag,
		"CLI":      StyleFlag,
		"keyword":  StyleKeyword,
		" python ": StyleKeyword,
		"field":    StyleField,
		"go":       StyleField,
	}
	for input, want := range cases {
		got, ok := ParseBindingStyle(input)
		if !ok || got != want {
			t.Fatalf("ParseBindingStyle(%q) = %s %v, want %s", input, got, ok, want)
		}
	}
	if got, ok := ParseBindingStyle("julia"); ok || got != StyleFlag {
		t.Fatalf("expected unknown style to fall back to flag, got %s %v", got, ok)
	}
	if StyleField.String() != "field" || BindingStyle(42).String() != "unknown" {
		t.Fatalf("unexpected style names")
	}
}
