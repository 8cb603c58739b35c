package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// SeedFor returns a deterministic seed for key using HMAC(salt, key).
// The same salt and game id always reproduce the same deal.
func SeedFor(salt, key string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// newRand builds the game's generator. The second PCG word is derived from the
// seed so a single uint64 describes the whole stream.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns a uniform int in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// dealStats draws the fixed stats for one card.
func dealStats(r *rand.Rand, rules Rules) Stats {
	return Stats{
		Name:      fmt.Sprintf("Creature %d", r.IntN(rules.NameSpace)),
		Cost:      between(r, rules.Cost.Min, rules.Cost.Max),
		Power:     between(r, rules.Power.Min, rules.Power.Max),
		Toughness: between(r, rules.Toughness.Min, rules.Toughness.Max),
	}
}
