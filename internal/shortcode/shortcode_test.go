package shortcode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/marcus-grant/depo/internal/apperr"
)

func TestHashFullKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", []byte{}, "PZDRE6BC90T0BS0FGG0ZM7Y9"},
		{"hello world", []byte("Hello, World!"), "D7GS0E632ZGYMQAVRXHYZ315"},
		{"single 0xff", []byte{0xff}, "N07C0CD6R447SA6JT1CEVAWW"},
		{"five zero bytes", []byte{0, 0, 0, 0, 0}, "DGGXXPQBAP0A56H3CJKG23P6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashFull(tt.data)
			if got != tt.want {
				t.Errorf("HashFull = %q, want %q", got, tt.want)
			}
			if len(got) != FullLength {
				t.Errorf("length = %d, want %d", len(got), FullLength)
			}
		})
	}
}

func TestHashFullDeterministic(t *testing.T) {
	data := []byte("same input")
	if HashFull(data) != HashFull(data) {
		t.Error("identical input produced different hashes")
	}
}

func TestHashFullDistinct(t *testing.T) {
	a := HashFull([]byte("one"))
	b := HashFull([]byte("two"))
	if a == b {
		t.Errorf("distinct inputs collided: %q", a)
	}
}

func TestEncodeCrockford(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"zero byte", []byte{0x00}, "00"},
		{"0x1f", []byte{0x1f}, "0Z"},
		{"0xff", []byte{0xff}, "7Z"},
		{"two bytes low", []byte{0x00, 0x01}, "0001"},
		{"two bytes pattern", []byte{0x84, 0x21}, "1111"},
		{"five zeros", bytes.Repeat([]byte{0x00}, 5), "00000000"},
		{"five 0xff", bytes.Repeat([]byte{0xff}, 5), "ZZZZZZZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeCrockford(tt.data); got != tt.want {
				t.Errorf("encodeCrockford(% x) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestEncodeCrockfordAlphabetOnly(t *testing.T) {
	out := HashFull([]byte("alphabet check"))
	for _, r := range out {
		if !bytes.ContainsRune([]byte(Alphabet), r) {
			t.Errorf("character %q not in alphabet", r)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "ABCD1234", "ABCD1234"},
		{"lowercase", "abcd1234", "ABCD1234"},
		{"surrounding space", "  ABCD1234  ", "ABCD1234"},
		{"hyphens stripped", "AB-CD-12", "ABCD12"},
		{"inner spaces stripped", "AB CD 12", "ABCD12"},
		{"O folds to zero", "OOOO", "0000"},
		{"I and L fold to one", "IlIl", "1111"},
		{"U folds to V", "uu", "VV"},
		{"mixed sloppy input", " o-i l u ", "011V"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.in)
			if err != nil {
				t.Fatalf("Canonicalize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"only separators", " -- "},
		{"underscore", "AB_CD"},
		{"unicode", "ABCÉ"},
		{"punctuation", "AB!CD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Canonicalize(%q) err = %v, want ErrValidation", tt.in, err)
			}
		})
	}
}

func TestCanonicalizeRoundTrip(t *testing.T) {
	// A canonical hash must survive its own canonicalization unchanged.
	h := HashFull([]byte("round trip"))
	got, err := Canonicalize(h)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got != h {
		t.Errorf("canonical form changed: %q -> %q", h, got)
	}
}
