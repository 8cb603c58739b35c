package view

import (
	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/wallet"
)

// Wallet is the connected-wallet card.
type Wallet struct {
	Address string `json:"address"` // EIP-55 checksummed
	Display string `json:"display"` // 0x1234...abcd
	ChainID int64  `json:"chainId"`
}

// NewWallet renders a wallet summary.
func NewWallet(addr wallet.Address, chainID int64) *Wallet {
	return &Wallet{Address: addr.Hex(), Display: addr.Short(), ChainID: chainID}
}

// Shell is the page shell: the connect prompt, or the board once a wallet is
// connected.
type Shell struct {
	Connected bool    `json:"connected"`
	Wallet    *Wallet `json:"wallet,omitempty"`
	Board     *Board  `json:"board,omitempty"`
}

// Disconnected is the shell shown before any wallet connects.
func Disconnected() Shell { return Shell{} }

// NewShell renders the shell for a wallet and its game. The board is included
// only while the game is connected.
func NewShell(w *Wallet, g *game.Game) Shell {
	s := Shell{Wallet: w}
	if g != nil && g.Connected {
		b := NewBoard(g)
		s.Connected = true
		s.Board = &b
	}
	return s
}
