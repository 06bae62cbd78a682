// Package decode implements the bitstring-pattern matcher (C4): given a
// 32-bit guest instruction word, find the first matching handler
// descriptor in declaration order, extracting its named fields.
package decode

import "fmt"

// Field is one named, contiguous run of bits extracted from a matched
// word, e.g. the "nnnn" run in "cccc0000101Snnnnddddvvvvvrr0mmmm".
type Field struct {
	Name  byte
	Shift uint8
	Width uint8
}

// Pattern is a compiled "bits, mask" matcher plus its field list. An
// instruction x matches iff x&Mask == Bits.
type Pattern struct {
	Source string
	Bits   uint32
	Mask   uint32
	Fields []Field
}

// Compile turns a 32-character bitstring of '0', '1', and field letters
// (bit index 31 leftmost) into a Pattern. '0'/'1' are fixed bits; any
// other character starts or continues a named field for contiguous runs
// of the same letter.
func Compile(bitstring string) (Pattern, error) {
	if len(bitstring) != 32 {
		return Pattern{}, fmt.Errorf("decode: pattern %q has length %d, want 32", bitstring, len(bitstring))
	}

	p := Pattern{Source: bitstring}
	var curName byte
	var curWidth uint8
	haveField := false

	flush := func(afterIdx int) {
		if !haveField {
			return
		}
		// afterIdx is the string index just past the run; bit 31 is index
		// 0 of the string, so the run's low bit (shift amount) is
		// 31-(afterIdx-1) = 32-afterIdx.
		p.Fields = append(p.Fields, Field{Name: curName, Shift: uint8(32 - afterIdx), Width: curWidth})
		haveField = false
		curWidth = 0
	}

	for i := 0; i < 32; i++ {
		c := bitstring[i]
		bitPos := uint(31 - i)
		switch c {
		case '0':
			flush(i)
			p.Mask |= 1 << bitPos
		case '1':
			flush(i)
			p.Mask |= 1 << bitPos
			p.Bits |= 1 << bitPos
		default:
			if haveField && c == curName {
				curWidth++
				continue
			}
			flush(i)
			curName = c
			curWidth = 1
			haveField = true
		}
	}
	flush(32)

	return p, nil
}

// Matches reports whether word satisfies the pattern's fixed bits.
func (p Pattern) Matches(word uint32) bool {
	return word&p.Mask == p.Bits
}

// Fields extracted from a matched word: up to 26 lowercase letters, found
// by linear scan of the small Fields slice (patterns have at most a
// handful of named fields, so this beats map allocation per match).
type Extracted struct {
	pattern Pattern
	word    uint32
}

// Get returns the value of the named field, or 0 if the pattern has no
// field with that name.
func (e Extracted) Get(name byte) uint32 {
	for _, f := range e.pattern.Fields {
		if f.Name == name {
			return (e.word >> f.Shift) & ((1 << f.Width) - 1)
		}
	}
	return 0
}

// Extract binds word's field values to p without yet knowing whether it
// matched; callers check Pattern.Matches first.
func (p Pattern) Extract(word uint32) Extracted {
	return Extracted{pattern: p, word: word}
}
