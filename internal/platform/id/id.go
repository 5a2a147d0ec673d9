package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Prefixed tags identifiers from Base, e.g. "run-3f2a...".
type Prefixed struct {
	Prefix string
	Base   Generator
}

func (p Prefixed) New() string {
	base := p.Base
	if base == nil {
		base = RandomHex{}
	}
	return p.Prefix + base.New()
}
