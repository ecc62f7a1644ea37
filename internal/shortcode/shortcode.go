// Package shortcode derives the content identity of an item: a BLAKE2b
// 120-bit digest rendered as Crockford Base32. The digest length and
// alphabet are a wire-level contract with anything that constructs or
// guesses codes, so they must not change.
package shortcode

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/marcus-grant/depo/internal/apperr"
)

// Alphabet is the Crockford Base32 alphabet: uppercase, with the
// visually ambiguous I, L, O and U excluded.
const Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	// DigestSize is the raw BLAKE2b digest length in bytes (120 bits).
	DigestSize = 15
	// FullLength is the encoded digest length: 120 bits / 5 bits per char.
	FullLength = 24
)

// Ambiguous characters fold onto their canonical counterpart so that
// hand-typed codes survive the usual misreadings.
var ambiguous = map[rune]rune{
	'O': '0',
	'I': '1',
	'L': '1',
	'U': 'V',
}

// HashFull computes the canonical identity string for payload bytes.
// Deterministic and content-only: no salt, no timestamp. Accepts any
// byte sequence including empty; emptiness is rejected by size
// validation one layer up.
func HashFull(data []byte) string {
	h, err := blake2b.New(DigestSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key; ours are constant.
		panic(fmt.Sprintf("shortcode: blake2b init: %v", err))
	}
	h.Write(data)
	return encodeCrockford(h.Sum(nil))
}

// encodeCrockford encodes data as Crockford Base32, treating the input
// as one big-endian number. Output length is ceil(len(data)*8 / 5).
func encodeCrockford(data []byte) string {
	n := (len(data)*8 + 4) / 5
	out := make([]byte, n)
	var acc uint
	var bits int
	pos := n - 1
	for i := len(data) - 1; i >= 0; i-- {
		acc |= uint(data[i]) << bits
		bits += 8
		for bits >= 5 {
			out[pos] = Alphabet[acc&0x1f]
			pos--
			acc >>= 5
			bits -= 5
		}
	}
	if pos == 0 {
		out[0] = Alphabet[acc&0x1f]
	}
	return string(out)
}

// Canonicalize normalizes a user-supplied code for lookup: trims,
// uppercases, strips hyphens and spaces, and folds ambiguous characters.
// Tolerant input, strict output: only the canonical form is ever stored
// or compared.
func Canonicalize(code string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.NewReplacer("-", "", " ", "").Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := ambiguous[r]; ok {
			r = c
		}
		if !strings.ContainsRune(Alphabet, r) {
			return "", fmt.Errorf("shortcode: invalid character %q in code: %w", r, apperr.ErrValidation)
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("shortcode: empty code: %w", apperr.ErrValidation)
	}
	return b.String(), nil
}
