// Package corpus generates random ProtoN values for round-trip testing.
package corpus

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	proton "github.com/starfederation/proton-go"
)

const (
	DefaultMaxRootSize  = 500
	DefaultMaxChildSize = 5
	DefaultMaxDepth     = 4
	DefaultMaxString    = 50
	DefaultMaxKey       = 10
)

const (
	asciiChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	wideChars  = "äöüßéçñøåæ€漢字かなカナ한글ёжщ🙂🚀"
)

// Generator produces random list and object roots. Output is deterministic
// for a given seed.
type Generator struct {
	MaxRootSize  int
	MaxChildSize int
	MaxDepth     int
	MaxString    int
	MaxKey       int

	rng  *rand.Rand
	wide []rune
}

// New returns a generator with default bounds seeded by seed.
func New(seed uint64) *Generator {
	return &Generator{
		MaxRootSize:  DefaultMaxRootSize,
		MaxChildSize: DefaultMaxChildSize,
		MaxDepth:     DefaultMaxDepth,
		MaxString:    DefaultMaxString,
		MaxKey:       DefaultMaxKey,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		wide:         []rune(wideChars),
	}
}

// Root returns a random list or object.
func (g *Generator) Root() proton.Value {
	if g.rng.IntN(2) == 0 {
		return g.list(g.MaxRootSize, 1)
	}
	return g.object(g.MaxRootSize, 1)
}

// Value returns a random value of any type at the given depth.
func (g *Generator) Value(depth int) proton.Value {
	n := 7
	if depth >= g.MaxDepth {
		n = 5
	}
	switch g.rng.IntN(n) {
	case 0:
		return proton.Null()
	case 1:
		return proton.Bool(g.rng.IntN(2) == 1)
	case 2:
		return proton.Int(g.Int())
	case 3:
		return proton.Float(g.Float())
	case 4:
		return proton.String(g.String(g.MaxString))
	case 5:
		return g.list(g.MaxChildSize, depth+1)
	default:
		return g.object(g.MaxChildSize, depth+1)
	}
}

func (g *Generator) list(size, depth int) proton.Value {
	n := g.size(size)
	elems := make([]proton.Value, n)
	for i := range elems {
		elems[i] = g.Value(depth)
	}
	return proton.List(elems...)
}

func (g *Generator) object(size, depth int) proton.Value {
	n := g.size(size)
	members := make([]proton.Member, 0, n)
	seen := make(map[string]struct{}, n)
	for len(members) < n {
		key := g.key()
		if _, dup := seen[key]; dup {
			key += strconv.Itoa(len(members))
			if _, dup := seen[key]; dup {
				continue
			}
		}
		seen[key] = struct{}{}
		members = append(members, proton.Pair(key, g.Value(depth)))
	}
	return proton.Object(members...)
}

func (g *Generator) size(max int) int {
	if max <= 0 {
		return 0
	}
	return g.rng.IntN(max)
}

// Int returns an integer drawn evenly from the four wire widths.
func (g *Generator) Int() int64 {
	switch g.rng.IntN(4) {
	case 0:
		return int64(g.rng.IntN(256)) - 128
	case 1:
		return int64(g.rng.IntN(1<<16)) - 1<<15
	case 2:
		return int64(g.rng.Int32()) - int64(g.rng.Int32())
	default:
		return int64(g.rng.Uint64())
	}
}

// Float returns a mix of short decimal and full precision floats.
func (g *Generator) Float() float64 {
	switch g.rng.IntN(3) {
	case 0:
		return float64(g.rng.IntN(2000)-1000) / 4
	case 1:
		return (g.rng.Float64()*2 - 1) * 999
	default:
		return math.Float64frombits(g.rng.Uint64()&^(0x7FF<<52) | uint64(g.rng.IntN(0x7FE)+1)<<52)
	}
}

// String returns a string of up to max characters, sometimes containing
// multi-byte runes.
func (g *Generator) String(max int) string {
	n := g.size(max + 1)
	var sb strings.Builder
	wide := g.rng.IntN(3) == 0
	for i := 0; i < n; i++ {
		if wide && g.rng.IntN(2) == 0 {
			sb.WriteRune(g.wide[g.rng.IntN(len(g.wide))])
			continue
		}
		sb.WriteByte(asciiChars[g.rng.IntN(len(asciiChars))])
	}
	return sb.String()
}

func (g *Generator) key() string {
	return g.String(g.MaxKey-1) + string(asciiChars[g.rng.IntN(len(asciiChars))])
}
