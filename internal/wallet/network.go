package wallet

import (
	"errors"
	"strings"
)

// ErrWrongNetwork is returned when a wallet is on an unsupported chain.
var ErrWrongNetwork = errors.New("wallet: wrong network")

// Network is the static chain configuration handed to the client's wallet
// widget. Contract addresses are empty until contracts are deployed.
type Network struct {
	ChainID                int64  `json:"chainId"`
	Name                   string `json:"name"`
	RPCURL                 string `json:"rpcUrl"`
	AltRPCURL              string `json:"alternativeRpcUrl"`
	WalletConnectProjectID string `json:"walletConnectProjectId"`
	GameContract           string `json:"gameContractAddress"`
	FHEContract            string `json:"fheContractAddress"`
}

// Sepolia returns the default testnet configuration with placeholder keys.
func Sepolia() Network {
	return Network{
		ChainID:                11155111,
		Name:                   "Sepolia",
		RPCURL:                 "https://sepolia.infura.io/v3/YOUR_INFURA_API_KEY",
		AltRPCURL:              "https://1rpc.io/sepolia",
		WalletConnectProjectID: "YOUR_WALLET_CONNECT_PROJECT_ID",
	}
}

// CheckChain rejects any chain other than the configured one.
func (n Network) CheckChain(chainID int64) error {
	if chainID != n.ChainID {
		return ErrWrongNetwork
	}
	return nil
}

// Placeholders lists the fields still holding "YOUR_..." placeholder values.
func (n Network) Placeholders() []string {
	var out []string
	if strings.Contains(n.RPCURL, "YOUR_") {
		out = append(out, "rpcUrl")
	}
	if strings.Contains(n.WalletConnectProjectID, "YOUR_") {
		out = append(out, "walletConnectProjectId")
	}
	return out
}
