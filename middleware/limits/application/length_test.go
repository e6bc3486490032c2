package application

import (
	"testing"

	"limits-gateway/middleware/limits/domain"
)

func TestUnescapeData(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"plain":                   "plain",
		"q=%48%49%50%51%52%53%54": "q=HIPQRST",
		"a%2Fb":                   "a/b",
		"100%":                    "100%",
		"%zz":                     "%zz",
		"%4":                      "%4",
		"a+b":                     "a+b",
		"%C3%A9":                  "é",
		"%FF":                     "%FF",
		"%C3":                     "%C3",
		"a%C3%A9%FFb":             "aé%FFb",
		"%E2%82":                  "%E2%82",
		"%EF%BF%BD":               "\uFFFD",
	}
	for in, want := range cases {
		if got := UnescapeData(in); got != want {
			t.Fatalf("UnescapeData(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckLength_MeasuresDecodedCharacters(t *testing.T) {
	v := CheckLength("%48%49%50%51%52%53%54", 10)
	if !v.Allowed() {
		t.Fatalf("expected escaped query of decoded length 7 to pass, got status %d", v.Status)
	}
	if v.Length != 7 {
		t.Fatalf("expected length 7, got %d", v.Length)
	}

	// "é" são 2 bytes e 1 caractere
	if v := CheckLength("%C3%A9", 1); !v.Allowed() {
		t.Fatalf("expected multi-byte rune to count as one character")
	}
}

func TestCheckLength_RejectsAboveLimit(t *testing.T) {
	v := CheckLength("q=123456789", 10)
	if v.Status != domain.StatusURITooLong {
		t.Fatalf("expected 414, got %d", v.Status)
	}
	if v.Length != 11 || v.Limit != 10 {
		t.Fatalf("expected length 11 / limit 10, got %d / %d", v.Length, v.Limit)
	}

	if v := CheckLength("q=12345678", 10); !v.Allowed() {
		t.Fatalf("expected length equal to limit to pass")
	}

	// bytes que não formam UTF-8 contam como o texto escapado
	v = CheckLength("%FF%FF%FF%FF", 5)
	if v.Status != domain.StatusURITooLong {
		t.Fatalf("expected 414 for invalid UTF-8 escapes, got %d", v.Status)
	}
	if v.Length != 12 {
		t.Fatalf("expected length 12, got %d", v.Length)
	}
}
