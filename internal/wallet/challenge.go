package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownChallenge = errors.New("wallet: unknown or used challenge")
	ErrChallengeExpired = errors.New("wallet: challenge expired")
)

// Challenge is a one-time sign-in message issued to an address.
type Challenge struct {
	Address   Address   `json:"address"`
	ChainID   int64     `json:"chainId"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Challenges keeps pending sign-in challenges in memory, keyed by nonce.
type Challenges struct {
	mu      sync.Mutex
	ttl     time.Duration
	app     string
	now     func() time.Time
	pending map[string]Challenge
}

// NewChallenges returns a store whose challenges live for ttl.
func NewChallenges(app string, ttl time.Duration) *Challenges {
	return &Challenges{
		ttl:     ttl,
		app:     app,
		now:     time.Now,
		pending: make(map[string]Challenge),
	}
}

// Issue creates a challenge for addr on chainID.
func (c *Challenges) Issue(addr Address, chainID int64) Challenge {
	now := c.now().UTC()
	ch := Challenge{
		Address:   addr,
		ChainID:   chainID,
		Nonce:     uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	ch.Message = fmt.Sprintf("%s wants you to sign in with your wallet.\n\nAddress: %s\nChain ID: %d\nNonce: %s\nIssued At: %s",
		c.app, addr.Hex(), chainID, ch.Nonce, now.Format(time.RFC3339))

	c.mu.Lock()
	c.pending[ch.Nonce] = ch
	c.mu.Unlock()
	return ch
}

// Consume removes and returns the challenge for nonce if it belongs to addr
// and has not expired. A nonce can be consumed at most once.
func (c *Challenges) Consume(addr Address, nonce string) (Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[nonce]
	if !ok || ch.Address != addr {
		return Challenge{}, ErrUnknownChallenge
	}
	delete(c.pending, nonce)
	if c.now().After(ch.ExpiresAt) {
		return Challenge{}, ErrChallengeExpired
	}
	return ch, nil
}

// Sweep drops expired challenges and returns how many were removed.
func (c *Challenges) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, ch := range c.pending {
		if now.After(ch.ExpiresAt) {
			delete(c.pending, k)
			n++
		}
	}
	return n
}
