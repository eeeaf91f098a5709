package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// fakeEthClient implements EthClient with canned responses and call counters.
type fakeEthClient struct {
	baseFee  *big.Int
	tip      *big.Int
	gasPrice *big.Int

	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	callResult  []byte
	blockNumber uint64

	sendErr error
	calls   map[string]int
}

func newFakeEthClient() *fakeEthClient {
	return &fakeEthClient{
		baseFee:     big.NewInt(100),
		tip:         big.NewInt(30),
		gasPrice:    big.NewInt(1_000_000_000),
		receipts:    make(map[common.Hash]*types.Receipt),
		blockNumber: 100,
		calls:       make(map[string]int),
	}
}

func (f *fakeEthClient) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.calls["nonce"]++
	return 7, nil
}

func (f *fakeEthClient) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	f.calls["gas_price"]++
	return f.gasPrice, nil
}

func (f *fakeEthClient) SuggestGasTipCap(_ context.Context) (*big.Int, error) {
	f.calls["tip"]++
	return f.tip, nil
}

func (f *fakeEthClient) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	f.calls["header"]++
	return &types.Header{BaseFee: f.baseFee, Number: big.NewInt(int64(f.blockNumber))}, nil
}

func (f *fakeEthClient) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	f.calls["estimate"]++
	return 90_000, nil
}

func (f *fakeEthClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.calls["send"]++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(int64(f.blockNumber)),
		TxHash:      tx.Hash(),
	}
	return nil
}

func (f *fakeEthClient) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.calls["receipt"]++
	r, ok := f.receipts[hash]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeEthClient) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls["call"]++
	return f.callResult, nil
}

func (f *fakeEthClient) BlockNumber(_ context.Context) (uint64, error) {
	f.calls["block_number"]++
	f.blockNumber += FeeMarketConfirmations // head advances past any confirmation target
	return f.blockNumber, nil
}

func (f *fakeEthClient) Close() {}

func newTestSession(t *testing.T, feeMarket bool, client EthClient) *Session {
	t.Helper()
	name := "development"
	if feeMarket {
		name = "polygon"
	}
	s, err := NewSession(Config{
		RPCURL:      "http://localhost:8545",
		PrivateKey:  testKey,
		ChainID:     8996,
		NetworkName: name,
		FeeMarket:   feeMarket,
	}, WithClient(client))
	require.NoError(t, err)
	return s
}

func TestTxParams_PlainNetwork(t *testing.T) {
	client := newFakeEthClient()
	s := newTestSession(t, false, client)

	params, err := s.TxParams(context.Background())
	require.NoError(t, err)

	assert.Equal(t, s.Address(), params.From)
	assert.Nil(t, params.PriorityFee)
	assert.Nil(t, params.MaxFee)
	assert.Zero(t, client.calls["tip"], "plain network must not read fee state")
	assert.Zero(t, client.calls["send"], "TxParams must not submit")
}

func TestTxParams_FeeMarket(t *testing.T) {
	client := newFakeEthClient()
	client.baseFee = big.NewInt(1000)
	client.tip = big.NewInt(25)
	s := newTestSession(t, true, client)

	params, err := s.TxParams(context.Background())
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(25), params.PriorityFee)
	// max_fee = base_fee + 2 * priority_fee
	assert.Equal(t, big.NewInt(1050), params.MaxFee)
	assert.Zero(t, client.calls["send"], "TxParams must not submit")
}

func TestSubmit_PlainNetworkUsesLegacyTx(t *testing.T) {
	client := newFakeEthClient()
	s := newTestSession(t, false, client)

	receipt, err := s.Submit(context.Background(), common.HexToAddress("0x1"), []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	require.Len(t, client.sent, 1)
	assert.Equal(t, uint8(types.LegacyTxType), client.sent[0].Type())
}

func TestSubmit_FeeMarketUsesDynamicFeeTx(t *testing.T) {
	client := newFakeEthClient()
	client.baseFee = big.NewInt(1000)
	client.tip = big.NewInt(25)
	s := newTestSession(t, true, client)

	receipt, err := s.Submit(context.Background(), common.HexToAddress("0x1"), []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	require.Len(t, client.sent, 1)
	tx := client.sent[0]
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, big.NewInt(25), tx.GasTipCap())
	assert.Equal(t, big.NewInt(1050), tx.GasFeeCap())
}

func TestSubmit_SendFailure(t *testing.T) {
	client := newFakeEthClient()
	client.sendErr = errors.New("nonce too low")
	s := newTestSession(t, false, client)

	_, err := s.Submit(context.Background(), common.HexToAddress("0x1"), []byte{0x01})
	require.Error(t, err)

	var txErr *TxError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "send", txErr.Op)
}

func TestWaitMined_RevertedTransaction(t *testing.T) {
	client := newFakeEthClient()
	s := newTestSession(t, false, client)

	hash := common.HexToHash("0xdead")
	client.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(5)}

	_, err := s.WaitMined(context.Background(), hash, DefaultConfirmationTimeout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTxReverted))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				RPCURL:     "http://localhost:8545",
				PrivateKey: testKey,
				ChainID:    8996,
			},
			wantErr: false,
		},
		{
			name: "valid config with 0x prefix",
			cfg: Config{
				RPCURL:     "http://localhost:8545",
				PrivateKey: "0x" + testKey,
				ChainID:    8996,
			},
			wantErr: false,
		},
		{
			name: "missing RPC URL",
			cfg: Config{
				PrivateKey: testKey,
				ChainID:    8996,
			},
			wantErr: true,
		},
		{
			name: "missing private key",
			cfg: Config{
				RPCURL:  "http://localhost:8545",
				ChainID: 8996,
			},
			wantErr: true,
		},
		{
			name: "invalid private key length",
			cfg: Config{
				RPCURL:     "http://localhost:8545",
				PrivateKey: "tooshort",
				ChainID:    8996,
			},
			wantErr: true,
		},
		{
			name: "missing chain ID",
			cfg: Config{
				RPCURL:     "http://localhost:8545",
				PrivateKey: testKey,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToken_BalanceOf(t *testing.T) {
	client := newFakeEthClient()
	client.callResult = common.LeftPadBytes(big.NewInt(42).Bytes(), 32)
	s := newTestSession(t, false, client)

	token := NewToken(s, common.HexToAddress("0x2"))
	balance, err := token.BalanceOf(context.Background(), s.Address())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), balance)
	assert.Equal(t, 1, client.calls["call"])
}

func TestToken_ApproveSubmits(t *testing.T) {
	client := newFakeEthClient()
	s := newTestSession(t, false, client)

	token := NewToken(s, common.HexToAddress("0x2"))
	receipt, err := token.Approve(context.Background(), common.HexToAddress("0x3"), big.NewInt(100))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, 1, client.calls["send"])
}
