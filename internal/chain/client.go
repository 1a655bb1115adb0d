// Package chain binds the engine's capability interfaces to their Ethereum
// mainnet contracts through go-ethereum. No business logic lives here beyond
// call marshaling; every mutator waits for its receipt and treats a reverted
// transaction as a failed call.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const nativeTransferGas = 21_000

type Client struct {
	eth         *ethclient.Client
	signer      *Signer
	chainID     *big.Int
	callTimeout time.Duration
	txTimeout   time.Duration
	log         *zap.Logger
}

func Dial(ctx context.Context, rpcURL string, signer *Signer, chainID int64, callTimeout, txTimeout time.Duration, log *zap.Logger) (*Client, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &Client{
		eth:         eth,
		signer:      signer,
		chainID:     big.NewInt(chainID),
		callTimeout: callTimeout,
		txTimeout:   txTimeout,
		log:         log,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) Keeper() common.Address {
	return c.signer.Address()
}

func (c *Client) callOpts(ctx context.Context) (*bind.CallOpts, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	return &bind.CallOpts{Context: ctx}, cancel
}

func (c *Client) txOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *c.signer.opts
	opts.Context = ctx
	opts.Value = value
	return &opts
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}

func (c *Client) bound(address common.Address, parsed abiSpec) *bind.BoundContract {
	return bind.NewBoundContract(address, parsed.abi, c.eth, c.eth, c.eth)
}

// NativeBalance reads the account's ETH balance at the latest block.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.eth.BalanceAt(ctx, account, nil)
}

// SendNative transfers amount of ETH to the given address. Used only by the
// operator sweep; ETH cannot leave through the want path.
func (c *Client) SendNative(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("sweep amount must be > 0")
	}
	nonce, err := c.eth.PendingNonceAt(ctx, c.signer.Address())
	if err != nil {
		return fmt.Errorf("read nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}
	tx := types.NewTransaction(nonce, to, amount, nativeTransferGas, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.signer.key)
	if err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send transfer: %w", err)
	}
	return c.waitMined(ctx, signed)
}

// Holdings reports the keeper account's directly held balances.
type Holdings struct {
	client *Client
	want   *ERC20
	owner  common.Address
}

func NewHoldings(client *Client, want *ERC20, owner common.Address) *Holdings {
	return &Holdings{client: client, want: want, owner: owner}
}

func (h *Holdings) WantBalance(ctx context.Context) (*big.Int, error) {
	return h.want.BalanceOf(ctx, h.owner)
}

func (h *Holdings) NativeBalance(ctx context.Context) (*big.Int, error) {
	return h.client.NativeBalance(ctx, h.owner)
}
