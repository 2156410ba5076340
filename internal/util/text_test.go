package util

import "testing"

func TestCellText(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{name: "trim", input: "  K65 ", want: "K65"},
		{name: "nil", input: nil, want: ""},
		{name: "nan", input: "NaN", want: ""},
		{name: "integral float", input: 2.0, want: "2"},
		{name: "fraction", input: 2.5, want: "2.5"},
		{name: "int", input: 12, want: "12"},
		{name: "unsupported", input: []int{1}, want: ""},
		{name: "decomposed vietnamese", input: "Pho\u0300ng", want: "Ph\u00f2ng"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CellText(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestCellTextUnsupportedTypes(t *testing.T) {
	for _, v := range []any{struct{}{}, []int{1}, map[string]int{}} {
		if got := CellText(v); got != "" {
			t.Fatalf("CellText(%T)=%q", v, got)
		}
	}
}

func TestHasMarker(t *testing.T) {
	cases := []struct {
		input any
		want  bool
	}{
		{input: "x", want: true},
		{input: "X ", want: true},
		{input: " xx", want: true},
		{input: "-", want: false},
		{input: "", want: false},
		{input: nil, want: false},
		{input: 1.0, want: false},
	}

	for _, tc := range cases {
		if got := HasMarker(tc.input); got != tc.want {
			t.Fatalf("HasMarker(%#v)=%v want %v", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  Tên môn học/\n học phần "); got != "Tên môn học/ học phần" {
		t.Fatalf("got %q", got)
	}
}
