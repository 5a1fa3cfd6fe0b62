package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrTokenNotActive means the contract has no live booking for the token: the
// call reverted (burned or never minted) or returned nothing.
var ErrTokenNotActive = errors.New("booking token is not active on-chain")

// contractABI covers the read-only SlotChain calls the gate makes.
const contractABI = `[
	{"type":"function","name":"ownerOf","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"bookings","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[
		{"name":"creator","type":"address"},
		{"name":"startsAt","type":"uint256"},
		{"name":"expiresAt","type":"uint256"},
		{"name":"amount","type":"uint256"}]}
]`

// ContractCaller is the slice of ethclient.Client the reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client reads token ownership and expiry from the SlotChain contract.
type Client struct {
	caller   ContractCaller
	contract common.Address
	abi      abi.ABI
	closer   func()
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL, contractAddress string) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}
	c, err := NewClient(ec, contractAddress)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closer = ec.Close
	return c, nil
}

func NewClient(caller ContractCaller, contractAddress string) (*Client, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}
	return &Client{
		caller:   caller,
		contract: common.HexToAddress(contractAddress),
		abi:      parsed,
	}, nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// OwnerOf returns the checksummed address holding tokenID.
func (c *Client) OwnerOf(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := c.call(ctx, "ownerOf", tokenID)
	if err != nil {
		return "", err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("ownerOf returned %T", out[0])
	}
	return owner.Hex(), nil
}

// BookingExpiry returns the booking's expiresAt in unix seconds. Zero means
// the contract holds no booking for the token.
func (c *Client) BookingExpiry(ctx context.Context, tokenID *big.Int) (uint64, error) {
	out, err := c.call(ctx, "bookings", tokenID)
	if err != nil {
		return 0, err
	}
	expiresAt, ok := out[2].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("bookings returned %T for expiresAt", out[2])
	}
	if !expiresAt.IsUint64() {
		return 0, fmt.Errorf("expiresAt %s overflows uint64", expiresAt)
	}
	return expiresAt.Uint64(), nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrTokenNotActive, method, err)
		}
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data", ErrTokenNotActive, method)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}

// Solidity Error(string) and Panic(uint256) selectors.
var revertSelectors = []string{"0x08c379a0", "0x4e487b71"}

// isRevert reports whether err is the contract rejecting the call. Other
// JSON-RPC errors (rate limits, missing headers) are node failures.
func isRevert(err error) bool {
	if strings.Contains(err.Error(), "execution reverted") {
		return true
	}
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return false
	}
	data, ok := dataErr.ErrorData().(string)
	if !ok {
		return false
	}
	for _, sel := range revertSelectors {
		if strings.HasPrefix(strings.ToLower(data), sel) {
			return true
		}
	}
	return false
}
