// Package otpcode generates fixed-length numeric one-time passcodes.
package otpcode

import (
	"crypto/rand"
	"io"
)

// Length is the number of decimal digits in a generated code.
const Length = 6

// Generator produces codes from an injected random source. The source is
// wired explicitly at construction rather than hidden in package state; in
// production it is crypto/rand.Reader.
type Generator struct {
	src io.Reader
}

// New returns a Generator reading from src. A nil src falls back to
// crypto/rand.Reader.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// Generate returns a string of exactly Length decimal digits, each drawn
// independently and uniformly from the random source. An unreadable secure
// random source is a fatal process condition, not a per-call error, so
// Generate panics rather than returning one.
func (g *Generator) Generate() string {
	code := make([]byte, Length)
	buf := make([]byte, 1)
	for i := 0; i < Length; i++ {
		// Rejection sampling: a plain mod 10 over 0..255 would skew
		// digits 0-5.
		for {
			if _, err := io.ReadFull(g.src, buf); err != nil {
				panic("otpcode: secure random source unavailable: " + err.Error())
			}
			if buf[0] < 250 {
				code[i] = '0' + buf[0]%10
				break
			}
		}
	}
	return string(code)
}
