package ocean

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/eightballer/ocean-bridge/internal/chain"
	"github.com/eightballer/ocean-bridge/internal/wei"
)

// Condensed ABIs covering only the entrypoints the bridge calls. Tuples keep
// the component names of the deployed contracts so argument structs bind by
// field name.
const (
	factoryABI = `[
		{"name":"createNftWithErc20","type":"function","inputs":[
			{"name":"_NftCreateData","type":"tuple","components":[
				{"name":"name","type":"string"},
				{"name":"symbol","type":"string"},
				{"name":"templateIndex","type":"uint256"},
				{"name":"tokenURI","type":"string"},
				{"name":"transferable","type":"bool"},
				{"name":"owner","type":"address"}]},
			{"name":"_ErcCreateData","type":"tuple","components":[
				{"name":"templateIndex","type":"uint256"},
				{"name":"strings","type":"string[]"},
				{"name":"addresses","type":"address[]"},
				{"name":"uints","type":"uint256[]"},
				{"name":"bytess","type":"bytes[]"}]}],
			"outputs":[{"name":"","type":"address"},{"name":"","type":"address"}]},
		{"name":"NFTCreated","type":"event","inputs":[{"name":"newTokenAddress","type":"address","indexed":true}]},
		{"name":"TokenCreated","type":"event","inputs":[{"name":"newTokenAddress","type":"address","indexed":true}]}
	]`

	nftABI = `[
		{"name":"setMetaData","type":"function","inputs":[
			{"name":"_metaDataState","type":"uint8"},
			{"name":"_metaDataDecryptorUrl","type":"string"},
			{"name":"_metaDataDecryptorAddress","type":"bytes"},
			{"name":"flags","type":"bytes"},
			{"name":"data","type":"bytes"},
			{"name":"_metaDataHash","type":"bytes32"}],
			"outputs":[]}
	]`

	datatokenABI = `[
		{"name":"createDispenser","type":"function","inputs":[
			{"name":"_dispenser","type":"address"},
			{"name":"maxTokens","type":"uint256"},
			{"name":"maxBalance","type":"uint256"},
			{"name":"withMint","type":"bool"},
			{"name":"allowedSwapper","type":"address"}],
			"outputs":[]},
		{"name":"createFixedRate","type":"function","inputs":[
			{"name":"fixedPriceAddress","type":"address"},
			{"name":"addresses","type":"address[]"},
			{"name":"uints","type":"uint256[]"}],
			"outputs":[{"name":"exchangeId","type":"bytes32"}]},
		{"name":"startOrder","type":"function","inputs":[
			{"name":"consumer","type":"address"},
			{"name":"serviceIndex","type":"uint8"},
			{"name":"_providerFee","type":"tuple","components":[
				{"name":"providerFeeAddress","type":"address"},
				{"name":"providerFeeToken","type":"address"},
				{"name":"providerFeeAmount","type":"uint256"},
				{"name":"v","type":"uint8"},
				{"name":"r","type":"bytes32"},
				{"name":"s","type":"bytes32"},
				{"name":"validUntil","type":"uint256"},
				{"name":"providerData","type":"bytes"}]},
			{"name":"_consumeMarketFee","type":"tuple","components":[
				{"name":"consumeMarketFeeAddress","type":"address"},
				{"name":"consumeMarketFeeToken","type":"address"},
				{"name":"consumeMarketFeeAmount","type":"uint256"}]}],
			"outputs":[]}
	]`

	dispenserABI = `[
		{"name":"status","type":"function","stateMutability":"view","inputs":[
			{"name":"datatoken","type":"address"}],
			"outputs":[
				{"name":"active","type":"bool"},
				{"name":"owner","type":"address"},
				{"name":"isMinter","type":"bool"},
				{"name":"maxTokens","type":"uint256"},
				{"name":"maxBalance","type":"uint256"},
				{"name":"balance","type":"uint256"}]},
		{"name":"dispense","type":"function","inputs":[
			{"name":"datatoken","type":"address"},
			{"name":"amount","type":"uint256"},
			{"name":"destination","type":"address"}],
			"outputs":[]}
	]`

	exchangeABI = `[
		{"name":"getExchange","type":"function","stateMutability":"view","inputs":[
			{"name":"exchangeId","type":"bytes32"}],
			"outputs":[
				{"name":"exchangeOwner","type":"address"},
				{"name":"datatoken","type":"address"},
				{"name":"dtDecimals","type":"uint8"},
				{"name":"baseToken","type":"address"},
				{"name":"btDecimals","type":"uint8"},
				{"name":"fixedRate","type":"uint256"},
				{"name":"active","type":"bool"},
				{"name":"dtSupply","type":"uint256"},
				{"name":"btSupply","type":"uint256"},
				{"name":"dtBalance","type":"uint256"},
				{"name":"btBalance","type":"uint256"},
				{"name":"withMint","type":"bool"}]},
		{"name":"buyDT","type":"function","inputs":[
			{"name":"exchangeId","type":"bytes32"},
			{"name":"datatokenAmount","type":"uint256"},
			{"name":"maxBaseTokenAmount","type":"uint256"},
			{"name":"consumeMarketAddress","type":"address"},
			{"name":"consumeMarketSwapFeeAmount","type":"uint256"}],
			"outputs":[]},
		{"name":"ExchangeCreated","type":"event","inputs":[{"name":"exchangeId","type":"bytes32","indexed":true}]}
	]`
)

var (
	parsedFactoryABI   abi.ABI
	parsedNFTABI       abi.ABI
	parsedDatatokenABI abi.ABI
	parsedDispenserABI abi.ABI
	parsedExchangeABI  abi.ABI
)

func init() {
	for _, c := range []struct {
		raw string
		out *abi.ABI
	}{
		{factoryABI, &parsedFactoryABI},
		{nftABI, &parsedNFTABI},
		{datatokenABI, &parsedDatatokenABI},
		{dispenserABI, &parsedDispenserABI},
		{exchangeABI, &parsedExchangeABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(c.raw))
		if err != nil {
			panic("ocean: invalid contract ABI: " + err.Error())
		}
		*c.out = parsed
	}
}

// Market swap fees, as 18-decimal fractions of one.
var (
	publishMarketSwapFee = big.NewInt(1e16) // 1% taken on fixed-rate swaps
	consumeMarketSwapFee = big.NewInt(1e16) // 1% offered on buy-side swaps

	defaultDatatokenCap   = wei.FromUnits(100_000_000)
	defaultDispenserLimit = wei.FromUnits(100) // per-request and per-balance cap
)

const nftTokenURI = "https://oceanprotocol.com/nft/"

// Addresses holds the deployed marketplace contracts for one network.
type Addresses struct {
	OceanToken        common.Address
	FixedRateExchange common.Address
	Dispenser         common.Address
	NFTFactory        common.Address
}

// Market binds the Ocean marketplace contracts to a funded session. It is
// the on-chain half of the client surface; provider-side HTTP calls are
// delegated to the embedded Provider.
type Market struct {
	session     *chain.Session
	provider    *Provider
	addrs       Addresses
	providerURL string
}

// NewMarket creates a marketplace client for the session's network.
func NewMarket(session *chain.Session, provider *Provider, addrs Addresses, providerURL string) *Market {
	return &Market{
		session:     session,
		provider:    provider,
		addrs:       addrs,
		providerURL: strings.TrimRight(providerURL, "/"),
	}
}

var (
	_ Publisher = (*Market)(nil)
	_ Pricing   = (*Market)(nil)
	_ Tokens    = (*Market)(nil)
	_ Compute   = (*Market)(nil)
	_ Access    = (*Market)(nil)
)

type nftCreateData struct {
	Name          string
	Symbol        string
	TemplateIndex *big.Int
	TokenURI      string
	Transferable  bool
	Owner         common.Address
}

type ercCreateData struct {
	TemplateIndex *big.Int
	Strings       []string
	Addresses     []common.Address
	Uints         []*big.Int
	Bytess        [][]byte
}

type providerFeeArg struct {
	ProviderFeeAddress common.Address
	ProviderFeeToken   common.Address
	ProviderFeeAmount  *big.Int
	V                  uint8
	R                  [32]byte
	S                  [32]byte
	ValidUntil         *big.Int
	ProviderData       []byte
}

type consumeFeeArg struct {
	ConsumeMarketFeeAddress common.Address
	ConsumeMarketFeeToken   common.Address
	ConsumeMarketFeeAmount  *big.Int
}

// CreateAsset deploys a data NFT with one datatoken, builds the asset's DDO
// and anchors it on the NFT. The returned DID is derived from the NFT
// address, so republishing the same NFT yields the same DID.
func (m *Market) CreateAsset(ctx context.Context, p PublishParams) (*AssetCreated, error) {
	owner := m.session.Address()

	nftData := nftCreateData{
		Name:          p.Name + " NFT",
		Symbol:        "OCEAN-NFT",
		TemplateIndex: big.NewInt(1),
		TokenURI:      nftTokenURI,
		Transferable:  true,
		Owner:         owner,
	}
	ercData := ercCreateData{
		TemplateIndex: big.NewInt(1),
		Strings:       []string{p.Name, p.Name},
		Addresses: []common.Address{
			owner,            // minter
			owner,            // fee manager
			common.Address{}, // publish market order fee collector
			m.addrs.OceanToken,
		},
		Uints:  []*big.Int{defaultDatatokenCap, big.NewInt(0)},
		Bytess: [][]byte{},
	}

	data, err := parsedFactoryABI.Pack("createNftWithErc20", nftData, ercData)
	if err != nil {
		return nil, fmt.Errorf("ocean: pack createNftWithErc20: %w", err)
	}
	receipt, err := m.session.Submit(ctx, m.addrs.NFTFactory, data)
	if err != nil {
		return nil, err
	}

	nft, datatoken, err := deployedAddresses(receipt)
	if err != nil {
		return nil, err
	}
	did := CalcDID(nft, m.session.ChainID())

	ddo, err := m.buildDDO(ctx, did, nft, datatoken, p)
	if err != nil {
		return nil, err
	}
	txHash, err := m.anchorDDO(ctx, nft, ddo)
	if err != nil {
		return nil, err
	}

	return &AssetCreated{
		DID:       did,
		NFT:       nft.Hex(),
		Datatoken: datatoken.Hex(),
		TxHash:    txHash,
	}, nil
}

// UpdateAsset re-anchors a modified DDO on its data NFT and returns the
// update transaction hash.
func (m *Market) UpdateAsset(ctx context.Context, ddo *DDO) (string, error) {
	ddo.Metadata.Updated = Timestamp(time.Now())
	return m.anchorDDO(ctx, common.HexToAddress(ddo.NFTAddress), ddo)
}

func (m *Market) buildDDO(ctx context.Context, did string, nft, datatoken common.Address, p PublishParams) (*DDO, error) {
	filesDoc := map[string]any{
		"datatokenAddress": datatoken.Hex(),
		"nftAddress":       nft.Hex(),
		"files": []map[string]any{
			{"type": "url", "url": p.URL, "method": "GET"},
		},
	}
	plaintext, err := json.Marshal(filesDoc)
	if err != nil {
		return nil, fmt.Errorf("ocean: marshal files document: %w", err)
	}
	encrypted, err := m.provider.Encrypt(ctx, m.providerURL, m.session.ChainID(), plaintext)
	if err != nil {
		return nil, err
	}

	now := Timestamp(time.Now())
	meta := p.Metadata
	meta.Created = now
	meta.Updated = now
	if meta.Name == "" {
		meta.Name = p.Name
	}

	ddo := &DDO{
		ID:         did,
		ChainID:    m.session.ChainID(),
		NFTAddress: nft.Hex(),
		Metadata:   meta,
		Services: []Service{
			{
				ID:              "access",
				Type:            ServiceAccess,
				ServiceEndpoint: m.providerURL,
				Datatoken:       datatoken.Hex(),
				Files:           encrypted,
				Timeout:         0,
			},
		},
		Datatokens: []DatatokenInfo{
			{Address: datatoken.Hex(), Name: p.Name, Symbol: p.Name},
		},
	}
	if p.WithCompute {
		ddo.Services = append(ddo.Services, Service{
			ID:              "compute",
			Type:            ServiceCompute,
			ServiceEndpoint: m.providerURL,
			Datatoken:       datatoken.Hex(),
			Files:           encrypted,
			Timeout:         3600,
			Compute: &ServicePrivacy{
				PublisherTrustedAlgorithms: []TrustedAlgorithm{},
				AllowNetworkAccess:         true,
			},
		})
	}
	return ddo, nil
}

func (m *Market) anchorDDO(ctx context.Context, nft common.Address, ddo *DDO) (string, error) {
	doc, err := json.Marshal(ddo)
	if err != nil {
		return "", fmt.Errorf("ocean: marshal DDO: %w", err)
	}
	hash := sha256.Sum256(doc)

	data, err := parsedNFTABI.Pack("setMetaData",
		uint8(0), // active
		m.providerURL,
		m.session.Address().Bytes(),
		[]byte{0}, // plaintext flags, metadata cache indexes the raw document
		doc,
		hash,
	)
	if err != nil {
		return "", fmt.Errorf("ocean: pack setMetaData: %w", err)
	}
	receipt, err := m.session.Submit(ctx, nft, data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// deployedAddresses pulls the NFT and datatoken addresses out of the
// factory deployment receipt.
func deployedAddresses(receipt *types.Receipt) (nft, datatoken common.Address, err error) {
	nftTopic := parsedFactoryABI.Events["NFTCreated"].ID
	tokenTopic := parsedFactoryABI.Events["TokenCreated"].ID

	var haveNFT, haveToken bool
	for _, log := range receipt.Logs {
		if len(log.Topics) < 2 {
			continue
		}
		switch log.Topics[0] {
		case nftTopic:
			nft = common.BytesToAddress(log.Topics[1].Bytes())
			haveNFT = true
		case tokenTopic:
			datatoken = common.BytesToAddress(log.Topics[1].Bytes())
			haveToken = true
		}
	}
	if !haveNFT || !haveToken {
		return common.Address{}, common.Address{}, fmt.Errorf("ocean: deployment receipt %s missing creation events", receipt.TxHash.Hex())
	}
	return nft, datatoken, nil
}

// CreateDispenser registers a free faucet for the datatoken, minting on
// demand up to the default per-request limit.
func (m *Market) CreateDispenser(ctx context.Context, datatoken common.Address) error {
	data, err := parsedDatatokenABI.Pack("createDispenser",
		m.addrs.Dispenser,
		defaultDispenserLimit,
		defaultDispenserLimit,
		true,             // withMint
		common.Address{}, // no allowed-swapper restriction
	)
	if err != nil {
		return fmt.Errorf("ocean: pack createDispenser: %w", err)
	}
	_, err = m.session.Submit(ctx, datatoken, data)
	return err
}

// DispenserStatus reads the faucet state registered for the datatoken.
func (m *Market) DispenserStatus(ctx context.Context, datatoken common.Address) (*DispenserStatus, error) {
	data, err := parsedDispenserABI.Pack("status", datatoken)
	if err != nil {
		return nil, fmt.Errorf("ocean: pack dispenser status: %w", err)
	}
	out, err := m.session.Call(ctx, m.addrs.Dispenser, data)
	if err != nil {
		return nil, err
	}
	vals, err := parsedDispenserABI.Unpack("status", out)
	if err != nil || len(vals) < 4 {
		return nil, fmt.Errorf("ocean: decode dispenser status: %w", err)
	}
	return &DispenserStatus{
		Active:    vals[0].(bool),
		Owner:     vals[1].(common.Address).Hex(),
		MaxTokens: vals[3].(*big.Int).String(),
	}, nil
}

// Dispense requests amount datatokens, in wei, paid out to the session
// account.
func (m *Market) Dispense(ctx context.Context, datatoken common.Address, amount *big.Int) (string, error) {
	data, err := parsedDispenserABI.Pack("dispense", datatoken, amount, m.session.Address())
	if err != nil {
		return "", fmt.Errorf("ocean: pack dispense: %w", err)
	}
	receipt, err := m.session.Submit(ctx, m.addrs.Dispenser, data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// CreateExchange registers a fixed-rate OCEAN/datatoken exchange with
// minting enabled and no swapper restriction, and returns the exchange id.
func (m *Market) CreateExchange(ctx context.Context, datatoken common.Address, rate *big.Int) (string, error) {
	data, err := parsedDatatokenABI.Pack("createFixedRate",
		m.addrs.FixedRateExchange,
		[]common.Address{
			m.addrs.OceanToken,  // base token
			m.session.Address(), // exchange owner
			common.Address{},    // market fee collector
			common.Address{},    // allowed swapper
		},
		[]*big.Int{
			big.NewInt(wei.Decimals), // base token decimals
			big.NewInt(wei.Decimals), // datatoken decimals
			rate,
			publishMarketSwapFee,
			big.NewInt(1), // withMint
		},
	)
	if err != nil {
		return "", fmt.Errorf("ocean: pack createFixedRate: %w", err)
	}
	receipt, err := m.session.Submit(ctx, datatoken, data)
	if err != nil {
		return "", err
	}

	created := parsedExchangeABI.Events["ExchangeCreated"].ID
	for _, log := range receipt.Logs {
		if len(log.Topics) >= 2 && log.Topics[0] == created {
			return hexutil.Encode(log.Topics[1].Bytes()), nil
		}
	}
	return "", fmt.Errorf("ocean: exchange creation receipt %s missing ExchangeCreated event", receipt.TxHash.Hex())
}

// ExchangeDetails reads the on-chain state of a fixed-rate exchange.
func (m *Market) ExchangeDetails(ctx context.Context, exchangeID string) (*ExchangeDetails, error) {
	data, err := parsedExchangeABI.Pack("getExchange", common.HexToHash(exchangeID))
	if err != nil {
		return nil, fmt.Errorf("ocean: pack getExchange: %w", err)
	}
	out, err := m.session.Call(ctx, m.addrs.FixedRateExchange, data)
	if err != nil {
		return nil, err
	}
	vals, err := parsedExchangeABI.Unpack("getExchange", out)
	if err != nil || len(vals) < 7 {
		return nil, fmt.Errorf("ocean: decode getExchange: %w", err)
	}
	return &ExchangeDetails{
		ExchangeID: exchangeID,
		Owner:      vals[0].(common.Address).Hex(),
		Datatoken:  vals[1].(common.Address).Hex(),
		BaseToken:  vals[3].(common.Address).Hex(),
		FixedRate:  vals[5].(*big.Int).String(),
		Active:     vals[6].(bool),
	}, nil
}

// BuyDatatokens swaps OCEAN for amount datatokens on the exchange, bounded
// by maxBase. OCEAN spending must already be approved to the exchange.
func (m *Market) BuyDatatokens(ctx context.Context, exchangeID string, amount, maxBase *big.Int) error {
	data, err := parsedExchangeABI.Pack("buyDT",
		common.HexToHash(exchangeID),
		amount,
		maxBase,
		common.Address{},
		consumeMarketSwapFee,
	)
	if err != nil {
		return fmt.Errorf("ocean: pack buyDT: %w", err)
	}
	_, err = m.session.Submit(ctx, m.addrs.FixedRateExchange, data)
	return err
}

// BalanceOf reads the session-independent ERC20 balance of owner.
func (m *Market) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return chain.NewToken(m.session, token).BalanceOf(ctx, owner)
}

// Approve grants spender an ERC20 allowance from the session account.
func (m *Market) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	_, err := chain.NewToken(m.session, token).Approve(ctx, spender, amount)
	return err
}

// Environments lists compute environments from the asset's provider.
func (m *Market) Environments(ctx context.Context, serviceEndpoint string, chainID int64) ([]Environment, error) {
	return m.provider.Environments(ctx, serviceEndpoint, chainID)
}

// PayForCompute orders both halves of a compute pairing, dataset and
// algorithm, against the chosen environment. Each order is consumed by the
// environment's consumer account rather than the session account.
func (m *Market) PayForCompute(ctx context.Context, data, algo *DDO, dataSvc, algoSvc *Service, env Environment, validUntil int64) (*ComputePayment, error) {
	consumer := common.HexToAddress(env.ConsumerAddress)

	dataFee, err := m.provider.InitializeOrder(ctx, data, dataSvc, env.ID, validUntil)
	if err != nil {
		return nil, err
	}
	algoFee, err := m.provider.InitializeOrder(ctx, algo, algoSvc, env.ID, validUntil)
	if err != nil {
		return nil, err
	}

	dataTx, err := m.startOrder(ctx, data, dataSvc, consumer, dataFee)
	if err != nil {
		return nil, err
	}
	algoTx, err := m.startOrder(ctx, algo, algoSvc, consumer, algoFee)
	if err != nil {
		return nil, err
	}
	return &ComputePayment{DatasetOrderTx: dataTx, AlgorithmOrderTx: algoTx}, nil
}

// Start submits the paired orders to the dataset's provider and returns the
// remote job id.
func (m *Market) Start(ctx context.Context, data *DDO, dataSvc *Service, algo *DDO, payment *ComputePayment, env Environment) (string, error) {
	return m.provider.StartCompute(ctx, data, dataSvc, payment.DatasetOrderTx, algo.ID, payment.AlgorithmOrderTx, env.ID)
}

// Status polls the provider for the job's current state.
func (m *Market) Status(ctx context.Context, data *DDO, dataSvc *Service, jobID string) (*JobStatus, error) {
	return m.provider.JobStatus(ctx, data, dataSvc, jobID)
}

// Result fetches one result artifact of a finished job.
func (m *Market) Result(ctx context.Context, data *DDO, dataSvc *Service, jobID string, index int) ([]byte, error) {
	return m.provider.JobResult(ctx, data, dataSvc, jobID, index)
}

// PayForAccess orders the service for the session account itself and
// returns the order transaction id the provider accepts for downloads.
func (m *Market) PayForAccess(ctx context.Context, asset *DDO, svc *Service) (string, error) {
	fee, err := m.provider.InitializeOrder(ctx, asset, svc, "", 0)
	if err != nil {
		return "", err
	}
	return m.startOrder(ctx, asset, svc, m.session.Address(), fee)
}

// Download streams a purchased file to destDir via the provider.
func (m *Market) Download(ctx context.Context, asset *DDO, svc *Service, orderTx, destDir string) (string, error) {
	return m.provider.DownloadFile(ctx, asset, svc, orderTx, destDir)
}

func (m *Market) startOrder(ctx context.Context, asset *DDO, svc *Service, consumer common.Address, fee *ProviderFee) (string, error) {
	index, err := serviceIndex(asset, svc)
	if err != nil {
		return "", err
	}
	feeArg, err := packableProviderFee(fee)
	if err != nil {
		return "", err
	}

	data, err := parsedDatatokenABI.Pack("startOrder",
		consumer,
		index,
		feeArg,
		consumeFeeArg{
			ConsumeMarketFeeAddress: common.Address{},
			ConsumeMarketFeeToken:   common.HexToAddress(svc.Datatoken),
			ConsumeMarketFeeAmount:  big.NewInt(0),
		},
	)
	if err != nil {
		return "", fmt.Errorf("ocean: pack startOrder: %w", err)
	}
	receipt, err := m.session.Submit(ctx, common.HexToAddress(svc.Datatoken), data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// serviceIndex locates svc's position in the asset's service list by id.
// The index is part of the order transaction, so a service missing from its
// own asset is a hard error.
func serviceIndex(asset *DDO, svc *Service) (uint8, error) {
	for i := range asset.Services {
		if asset.Services[i].ID == svc.ID {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("ocean: service %q not found on asset %s", svc.ID, asset.ID)
}

func packableProviderFee(fee *ProviderFee) (providerFeeArg, error) {
	amount := new(big.Int)
	if fee.ProviderFeeAmount != "" {
		if _, ok := amount.SetString(fee.ProviderFeeAmount, 10); !ok {
			return providerFeeArg{}, fmt.Errorf("ocean: invalid provider fee amount %q", fee.ProviderFeeAmount)
		}
	}
	providerData := []byte(fee.ProviderData)
	if strings.HasPrefix(fee.ProviderData, "0x") {
		if decoded, err := hexutil.Decode(fee.ProviderData); err == nil {
			providerData = decoded
		}
	}
	return providerFeeArg{
		ProviderFeeAddress: common.HexToAddress(fee.ProviderFeeAddress),
		ProviderFeeToken:   common.HexToAddress(fee.ProviderFeeToken),
		ProviderFeeAmount:  amount,
		V:                  fee.V,
		R:                  common.HexToHash(fee.R),
		S:                  common.HexToHash(fee.S),
		ValidUntil:         big.NewInt(fee.ValidUntil),
		ProviderData:       providerData,
	}, nil
}
