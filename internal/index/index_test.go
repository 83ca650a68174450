package index

import (
	"errors"
	"testing"
)

const sample = "1 SetA 100\n2 SetB 1\n"

func TestParseAndGet(t *testing.T) {
	idx, err := Parse(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 headers, got %d", idx.Len())
	}

	h, err := idx.Get("SetA")
	if err != nil {
		t.Fatalf("get SetA: %v", err)
	}
	if h != (Header{ID: 1, Name: "SetA", Members: 100}) {
		t.Fatalf("unexpected header %+v", h)
	}
	if h.Identifier() != "SetA:1" {
		t.Fatalf("unexpected identifier %s", h.Identifier())
	}

	_, err = idx.Get("Set.*")
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) || ambiguous.Count != 2 {
		t.Fatalf("expected ambiguity with count 2, got %v", err)
	}

	_, err = idx.Get("NoSuch")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestGetIsAnchored(t *testing.T) {
	idx, err := Parse("0 CT18NNLO 59\n1 CT18NNLO_as_0116 1\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h, err := idx.Get("CT18NNLO")
	if err != nil {
		t.Fatalf("exact name should be unique: %v", err)
	}
	if h.ID != 0 {
		t.Fatalf("unexpected header %+v", h)
	}
	if _, err := idx.Get("NNLO"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("substring must not match, got %v", err)
	}
	// alternation stays inside the anchors
	if _, err := idx.Get("CT18NNLO|XYZ"); err != nil {
		t.Fatalf("alternation should resolve uniquely: %v", err)
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	idx, err := Parse("\n  \n3 Foo 2\n\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if idx.Len() != 1 || idx.At(0).Name != "Foo" {
		t.Fatalf("unexpected headers %+v", idx.Headers())
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		text string
		line int
	}{
		{"too few fields", "1 SetA 100\n2 SetB\n", 2},
		{"too many fields", "1 SetA 100 extra\n", 1},
		{"bad id", "x SetA 100\n", 1},
		{"negative members", "1 SetA -4\n", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Line != tc.line {
				t.Fatalf("expected line %d, got %d", tc.line, parseErr.Line)
			}
		})
	}
}

func TestGetInvalidPattern(t *testing.T) {
	idx, _ := Parse(sample)
	if _, err := idx.Get("("); err == nil {
		t.Fatalf("expected regexp compile error")
	}
}
