package gateway

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/pkg/retrier"
)

// EthConfig carries everything needed to talk to the chain.
type EthConfig struct {
	RPCURL             string
	PrivateKeyHex      string
	MarketplaceAddress string
	Assets             []domain.Asset
}

// EthGateway implements Gateway over JSON-RPC using bound contracts.
type EthGateway struct {
	client     *ethclient.Client
	chainID    *big.Int
	account    common.Address
	signer     *bind.TransactOpts
	market     *bind.BoundContract
	marketAddr common.Address
	tokens     map[string]*bind.BoundContract
	logger     *zap.Logger
}

// NewEthGateway dials the node, derives the signing identity and binds the
// marketplace plus every configured token contract. The dial is retried with
// backoff because a client frequently starts before its local node is ready;
// individual calls made later are never retried here.
func NewEthGateway(ctx context.Context, cfg EthConfig, logger *zap.Logger) (*EthGateway, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url is required")
	}
	if cfg.MarketplaceAddress == "" {
		return nil, errors.New("marketplace address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := retrier.New(retrier.WithMaxRetries(5))
	client, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, cfg.RPCURL)
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch chain id")
	}

	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "build transactor")
	}

	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}
	market, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse marketplace abi")
	}

	tokens := make(map[string]*bind.BoundContract, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		addr := common.HexToAddress(asset.Address)
		tokens[strings.ToLower(asset.Address)] = bind.NewBoundContract(addr, erc20, client, client, client)
	}

	marketAddr := common.HexToAddress(cfg.MarketplaceAddress)

	account := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("ledger gateway ready",
		zap.String("account", account.Hex()),
		zap.String("marketplace", marketAddr.Hex()),
		zap.String("chain_id", chainID.String()))

	return &EthGateway{
		client:     client,
		chainID:    chainID,
		account:    account,
		signer:     signer,
		market:     bind.NewBoundContract(marketAddr, market, client, client, client),
		marketAddr: marketAddr,
		tokens:     tokens,
		logger:     logger,
	}, nil
}

// Account returns the signing identity's address.
func (g *EthGateway) Account() domain.Account {
	return domain.Account(g.account.Hex())
}

func (g *EthGateway) token(address string) (*bind.BoundContract, error) {
	token, ok := g.tokens[strings.ToLower(address)]
	if !ok {
		return nil, errors.Errorf("unknown token contract %s", address)
	}
	return token, nil
}

func (g *EthGateway) BalanceOf(ctx context.Context, asset domain.Asset, account domain.Account) (*big.Int, error) {
	token, err := g.token(asset.Address)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(account.String())); err != nil {
		return nil, Classify(err)
	}
	return out[0].(*big.Int), nil
}

func (g *EthGateway) SaleCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.market.Call(&bind.CallOpts{Context: ctx}, &out, "nextSaleId"); err != nil {
		return 0, Classify(err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (g *EthGateway) Sale(ctx context.Context, id uint64) (domain.SaleRecord, error) {
	var out []interface{}
	if err := g.market.Call(&bind.CallOpts{Context: ctx}, &out, "sales", new(big.Int).SetUint64(id)); err != nil {
		return domain.SaleRecord{}, Classify(err)
	}

	return domain.SaleRecord{
		ID:     out[0].(*big.Int).Uint64(),
		Seller: domain.Account(out[1].(common.Address).Hex()),
		Token:  out[2].(common.Address).Hex(),
		Amount: out[3].(*big.Int),
		Price:  out[4].(*big.Int),
		Active: out[5].(bool),
	}, nil
}

func (g *EthGateway) Approve(ctx context.Context, asset domain.Asset, spender string, amount *big.Int) (TxReceipt, error) {
	token, err := g.token(asset.Address)
	if err != nil {
		return TxReceipt{}, err
	}

	tx, err := token.Transact(g.txOpts(ctx, nil), "approve", common.HexToAddress(spender), amount)
	if err != nil {
		return TxReceipt{}, Classify(err)
	}
	return g.waitMined(ctx, tx)
}

func (g *EthGateway) CreateSale(ctx context.Context, asset domain.Asset, amount, price *big.Int) (TxReceipt, error) {
	tx, err := g.market.Transact(g.txOpts(ctx, nil), "createSale", common.HexToAddress(asset.Address), amount, price)
	if err != nil {
		return TxReceipt{}, Classify(err)
	}
	return g.waitMined(ctx, tx)
}

func (g *EthGateway) ExecuteSale(ctx context.Context, id uint64, price *big.Int) (TxReceipt, error) {
	tx, err := g.market.Transact(g.txOpts(ctx, price), "executeSale", new(big.Int).SetUint64(id))
	if err != nil {
		return TxReceipt{}, Classify(err)
	}
	return g.waitMined(ctx, tx)
}

// txOpts copies the keyed transactor for one call. Gas settings stay nil so
// the node estimates them; estimation is also where contract reverts surface
// before any fee is spent.
func (g *EthGateway) txOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *g.signer
	opts.Context = ctx
	opts.Value = value
	return &opts
}

// waitMined blocks until the transaction is included in a block. A mined
// transaction with a failed status still consumed fees, so it is reported as
// a revert rather than swallowed.
func (g *EthGateway) waitMined(ctx context.Context, tx *types.Transaction) (TxReceipt, error) {
	receipt, err := bind.WaitMined(ctx, g.client, tx)
	if err != nil {
		return TxReceipt{}, Classify(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return TxReceipt{}, &RevertError{}
	}

	g.logger.Debug("transaction mined",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))

	return TxReceipt{
		Hash:  tx.Hash().Hex(),
		Block: receipt.BlockNumber.Uint64(),
	}, nil
}
