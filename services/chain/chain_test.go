package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = "0x00000000000000000000000000000000000000A1"

type fakeCaller struct {
	respond func(method string, tokenID *big.Int) ([]byte, error)
	c       *Client
	lastTo  *common.Address
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastTo = msg.To
	method, err := f.c.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	return f.respond(method.Name, args[0].(*big.Int))
}

func newFakeClient(t *testing.T, respond func(string, *big.Int) ([]byte, error)) *Client {
	t.Helper()
	caller := &fakeCaller{respond: respond}
	c, err := NewClient(caller, contract)
	require.NoError(t, err)
	caller.c = c
	return c
}

func TestOwnerOfAndExpiry(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	var c *Client
	c = newFakeClient(t, func(method string, tokenID *big.Int) ([]byte, error) {
		require.Equal(t, int64(42), tokenID.Int64())
		switch method {
		case "ownerOf":
			return c.abi.Methods["ownerOf"].Outputs.Pack(owner)
		case "bookings":
			return c.abi.Methods["bookings"].Outputs.Pack(owner, big.NewInt(1), big.NewInt(1_750_000_000), big.NewInt(5))
		}
		return nil, errors.New("unexpected method " + method)
	})

	got, err := c.OwnerOf(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, owner.Hex(), got)

	expiry, err := c.BookingExpiry(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_750_000_000), expiry)
}

func TestRevertMapsToTokenNotActive(t *testing.T) {
	c := newFakeClient(t, func(string, *big.Int) ([]byte, error) {
		return nil, errors.New("execution reverted: ERC721: invalid token ID")
	})

	_, err := c.OwnerOf(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrTokenNotActive)
}

func TestEmptyResultMapsToTokenNotActive(t *testing.T) {
	c := newFakeClient(t, func(string, *big.Int) ([]byte, error) { return nil, nil })

	_, err := c.BookingExpiry(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrTokenNotActive)
}

func TestTransportErrorIsNotTokenNotActive(t *testing.T) {
	c := newFakeClient(t, func(string, *big.Int) ([]byte, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	_, err := c.OwnerOf(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotActive)
}

// rpcDataError mimics a JSON-RPC error response carrying a data field.
type rpcDataError struct {
	msg  string
	code int
	data interface{}
}

func (e rpcDataError) Error() string { return e.msg }
func (e rpcDataError) ErrorCode() int { return e.code }
func (e rpcDataError) ErrorData() interface{} { return e.data }

func TestRPCDataErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		revert bool
	}{
		{"rate limited", rpcDataError{msg: "request limit exceeded", code: -32005, data: "try again in 1s"}, false},
		{"header not found", rpcDataError{msg: "header not found", code: -32000}, false},
		{"reason string", rpcDataError{msg: "call failed", code: 3, data: "0x08c379a00000000000000000000000000000000000000000000000000000000000000020"}, true},
		{"panic code", rpcDataError{msg: "call failed", code: 3, data: "0x4E487B710000000000000000000000000000000000000000000000000000000000000011"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newFakeClient(t, func(string, *big.Int) ([]byte, error) { return nil, tc.err })

			_, err := c.OwnerOf(context.Background(), big.NewInt(1))
			require.Error(t, err)
			if tc.revert {
				assert.ErrorIs(t, err, ErrTokenNotActive)
			} else {
				assert.NotErrorIs(t, err, ErrTokenNotActive)
			}
		})
	}
}

func TestNewClientRejectsBadAddress(t *testing.T) {
	_, err := NewClient(&fakeCaller{}, "not-an-address")
	assert.Error(t, err)
}

func sign(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestRecoverSigner(t *testing.T) {
	sig, addr := sign(t, "deadbeef")

	got, err := RecoverSigner("deadbeef", sig)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	got, err = SignatureVerifier{}.RecoverSigner("deadbeef", strings.TrimPrefix(sig, "0x"))
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestRecoverSignerDifferentMessage(t *testing.T) {
	sig, addr := sign(t, "deadbeef")

	got, err := RecoverSigner("cafebabe", sig)
	if err == nil {
		assert.NotEqual(t, addr, got)
	}
}

func TestRecoverSignerMalformed(t *testing.T) {
	for _, sig := range []string{"", "0x1234", "zz", "0x" + strings.Repeat("00", 65)} {
		_, err := RecoverSigner("hello", sig)
		assert.ErrorIs(t, err, ErrInvalidSignature, sig)
	}
}
