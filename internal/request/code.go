package request

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Suffix alphabet excludes characters that read ambiguously in chat (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeSuffixLength = 4

// Generator produces human-readable request codes of the form
// PREFIX-YYYYMMDD-RRRR. Codes are collision-resistant, not unique by
// construction; callers must verify against the store and regenerate on a hit.
type Generator struct {
	prefix string
	now    func() time.Time
}

// NewGenerator builds a code generator for the given prefix.
func NewGenerator(prefix string) *Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "EXP"
	}
	return &Generator{prefix: prefix, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate returns a fresh request code.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, codeSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code suffix: %w", err)
	}
	suffix := make([]byte, codeSuffixLength)
	for i, b := range buf {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", g.prefix, g.now().UTC().Format("20060102"), suffix), nil
}
