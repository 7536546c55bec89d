// Package fetcch provides the building blocks of a storefront that accepts
// cross-chain payments through the Fetcch payment request API: a static
// catalog of payable chains, conversion of reference prices into token base
// units, and the wire types and errors shared by the client, poller and
// checkout packages.
package fetcch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// ChainType is the account model of a payable chain.
type ChainType int

const (
	// ChainTypeUnknown represents an unrecognized chain type.
	ChainTypeUnknown ChainType = iota
	// ChainTypeEVM represents Ethereum Virtual Machine chains.
	ChainTypeEVM
	// ChainTypeSolana represents the Solana account model.
	ChainTypeSolana
	// ChainTypeAptos represents the Aptos (Move) account model.
	ChainTypeAptos
)

// String returns the label used by the request API and the storefront UI.
func (t ChainType) String() string {
	switch t {
	case ChainTypeEVM:
		return "EVM"
	case ChainTypeSolana:
		return "SOLANA"
	case ChainTypeAptos:
		return "APTOS"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ChainType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ChainType) UnmarshalText(text []byte) error {
	parsed, err := ParseChainType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseChainType parses a chain type label, case-insensitively.
func ParseChainType(s string) (ChainType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EVM":
		return ChainTypeEVM, nil
	case "SOLANA":
		return ChainTypeSolana, nil
	case "APTOS":
		return ChainTypeAptos, nil
	default:
		return ChainTypeUnknown, fmt.Errorf("chainType: unsupported type %q", s)
	}
}

// Native token sentinels understood by the request API.
const (
	// NativeEVMToken identifies the gas token of an EVM chain.
	NativeEVMToken = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

	// NativeSolanaToken identifies SOL.
	NativeSolanaToken = "11111111111111111111111111111111111111111111"

	// NativeAptosToken identifies APT.
	NativeAptosToken = "0x1::aptos_coin::AptosCoin"
)

// ChainDescriptor describes a payable network and its settlement asset.
type ChainDescriptor struct {
	// ID is the request API chain identifier. It is not the network's own chain id.
	ID int `json:"id"`

	// ChainID is the network chain id (EIP-155 for EVM chains).
	ChainID int64 `json:"chainId"`

	// Name is the display name (e.g., "Ethereum Mainnet").
	Name string `json:"name"`

	// Token is the token contract, mint or Move type, or a native sentinel.
	Token string `json:"token"`

	// Symbol is the token symbol (e.g., "ETH").
	Symbol string `json:"tokenName"`

	// Decimals is the token's decimal precision.
	Decimals uint8 `json:"decimals"`

	// BlockExplorer is the base URL of the chain's block explorer.
	BlockExplorer string `json:"blockExplorer"`

	// Type is the account model of the chain.
	Type ChainType `json:"type"`
}

// Mainnet chains accepted by the storefront.
var (
	EthereumMainnet = ChainDescriptor{
		ID:            1,
		ChainID:       1,
		Name:          "Ethereum Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "ETH",
		Decimals:      18,
		BlockExplorer: "https://etherscan.io",
		Type:          ChainTypeEVM,
	}

	PolygonMainnet = ChainDescriptor{
		ID:            2,
		ChainID:       137,
		Name:          "Polygon Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "MATIC",
		Decimals:      18,
		BlockExplorer: "https://polygonscan.io",
		Type:          ChainTypeEVM,
	}

	BSCMainnet = ChainDescriptor{
		ID:            3,
		ChainID:       56,
		Name:          "BSC Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "BNB",
		Decimals:      18,
		BlockExplorer: "https://bscscan.io",
		Type:          ChainTypeEVM,
	}

	AvalancheMainnet = ChainDescriptor{
		ID:            4,
		ChainID:       43114,
		Name:          "Avalanche C-Chain Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "AVAX",
		Decimals:      18,
		BlockExplorer: "https://snowtrace.io",
		Type:          ChainTypeEVM,
	}

	OptimismMainnet = ChainDescriptor{
		ID:            5,
		ChainID:       10,
		Name:          "Optimism Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "ETH",
		Decimals:      18,
		BlockExplorer: "https://optimistic.etherscan.io",
		Type:          ChainTypeEVM,
	}

	ArbitrumMainnet = ChainDescriptor{
		ID:            6,
		ChainID:       42161,
		Name:          "Arbitrum Mainnet",
		Token:         NativeEVMToken,
		Symbol:        "ETH",
		Decimals:      18,
		BlockExplorer: "https://arbiscan.io",
		Type:          ChainTypeEVM,
	}

	SolanaMainnet = ChainDescriptor{
		ID:            7,
		ChainID:       7,
		Name:          "Solana Mainnet",
		Token:         NativeSolanaToken,
		Symbol:        "SOL",
		Decimals:      9,
		BlockExplorer: "https://solana.fm",
		Type:          ChainTypeSolana,
	}

	AptosMainnet = ChainDescriptor{
		ID:            8,
		ChainID:       8,
		Name:          "Aptos Mainnet",
		Token:         NativeAptosToken,
		Symbol:        "APT",
		Decimals:      8,
		BlockExplorer: "https://aptoscan.io",
		Type:          ChainTypeAptos,
	}
)

// registry is ordered; the first entry is the default selection.
var registry = []ChainDescriptor{
	EthereumMainnet,
	PolygonMainnet,
	BSCMainnet,
	AvalancheMainnet,
	OptimismMainnet,
	ArbitrumMainnet,
	SolanaMainnet,
	AptosMainnet,
}

// Chains returns the supported chains in display order.
// The returned slice is a copy and may be modified by the caller.
func Chains() []ChainDescriptor {
	out := make([]ChainDescriptor, len(registry))
	copy(out, registry)
	return out
}

// DefaultChain returns the chain selected when a buyer has not picked one.
func DefaultChain() ChainDescriptor {
	return registry[0]
}

// ChainByID looks up a chain by its request API id.
func ChainByID(id int) (ChainDescriptor, error) {
	return FindChain(registry, id)
}

// FindChain looks up a chain by id within an arbitrary catalog.
func FindChain(chains []ChainDescriptor, id int) (ChainDescriptor, error) {
	for _, c := range chains {
		if c.ID == id {
			return c, nil
		}
	}
	return ChainDescriptor{}, fmt.Errorf("%w: id %d", ErrUnknownChain, id)
}

// IsNativeToken reports whether the descriptor settles in the chain's gas token.
func (c ChainDescriptor) IsNativeToken() bool {
	switch c.Type {
	case ChainTypeEVM:
		return strings.EqualFold(c.Token, NativeEVMToken)
	case ChainTypeSolana:
		return c.Token == NativeSolanaToken
	case ChainTypeAptos:
		return c.Token == NativeAptosToken
	}
	return false
}

// TransactionURL returns the explorer link for a settlement transaction.
// Returns an empty string when the hash is empty.
func (c ChainDescriptor) TransactionURL(hash string) string {
	if hash == "" {
		return ""
	}
	return strings.TrimRight(c.BlockExplorer, "/") + "/tx/" + hash
}

// moveTypeRegex matches fully qualified Move struct tags (address::module::name).
var moveTypeRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{1,64}::[A-Za-z_][A-Za-z0-9_]*::[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateToken checks that the token identifier is well formed for the
// chain's account model. Native sentinels are always accepted.
//
// For EVM chains the token must be a 0x-prefixed 20-byte hex address.
// For Solana the token must be a base58 encoded 32-byte mint.
// For Aptos the token must be a Move struct tag such as 0x1::aptos_coin::AptosCoin.
func (c ChainDescriptor) ValidateToken() error {
	if c.Token == "" {
		return fmt.Errorf("%w: token cannot be empty", ErrInvalidToken)
	}
	if c.IsNativeToken() {
		return nil
	}

	switch c.Type {
	case ChainTypeEVM:
		if !common.IsHexAddress(c.Token) || !strings.HasPrefix(strings.ToLower(c.Token), "0x") {
			return fmt.Errorf("%w: '%s' is not a hex address on %s", ErrInvalidToken, c.Token, c.Name)
		}
	case ChainTypeSolana:
		if _, err := solana.PublicKeyFromBase58(c.Token); err != nil {
			return fmt.Errorf("%w: '%s' is not a mint address on %s: %v", ErrInvalidToken, c.Token, c.Name, err)
		}
	case ChainTypeAptos:
		if !moveTypeRegex.MatchString(c.Token) {
			return fmt.Errorf("%w: '%s' is not a Move type on %s", ErrInvalidToken, c.Token, c.Name)
		}
	default:
		return fmt.Errorf("%w: unsupported chain type %s", ErrInvalidToken, c.Type)
	}
	return nil
}

// DisplayToken returns the token identifier in its canonical display form.
// EVM contract addresses are EIP-55 checksummed.
func (c ChainDescriptor) DisplayToken() string {
	if c.Type == ChainTypeEVM && !c.IsNativeToken() && common.IsHexAddress(c.Token) {
		return common.HexToAddress(c.Token).Hex()
	}
	return c.Token
}
