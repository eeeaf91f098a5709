package message

// Response kinds mirroring the request union's terminal outcomes.
const (
	KindDeploymentReceipt = "deployment_receipt"
	KindDispenserReceipt  = "dispenser_receipt"
	KindExchangeReceipt   = "exchange_receipt"
	KindResults           = "results"
	KindError             = "error"
)

// DeploymentReceipt reports a completed asset publication.
type DeploymentReceipt struct {
	DID                      string `json:"did"`
	DatatokenContractAddress string `json:"datatoken_contract_address"`
	HasPricingSchema         bool   `json:"has_pricing_schema"`
}

// DispenserReceipt reports a dispenser attachment and its observed state.
type DispenserReceipt struct {
	DatatokenAddress string `json:"datatoken_address"`
	DispenserStatus  bool   `json:"dispenser_status"`
	HasPricingSchema bool   `json:"has_pricing_schema"`
}

// ExchangeReceipt reports a fixed-rate exchange attachment.
type ExchangeReceipt struct {
	ExchangeID       string `json:"exchange_id"`
	HasPricingSchema bool   `json:"has_pricing_schema"`
}

// Results carries terminal workflow content, either compute artifacts or
// downloaded file bytes.
type Results struct {
	Content []byte `json:"content"`
}

// Error is the terminal failure variant surfaced to the caller.
type Error struct {
	Message string `json:"message"`
}

// Response is the tagged union returned for every handled request. Exactly
// one variant field is set, matching Kind.
type Response struct {
	Kind       string             `json:"kind"`
	Deployment *DeploymentReceipt `json:"deployment,omitempty"`
	Dispenser  *DispenserReceipt  `json:"dispenser,omitempty"`
	Exchange   *ExchangeReceipt   `json:"exchange,omitempty"`
	Results    *Results           `json:"results,omitempty"`
	Error      *Error             `json:"error,omitempty"`
}

// NewDeploymentResponse wraps a deployment receipt.
func NewDeploymentResponse(r DeploymentReceipt) *Response {
	return &Response{Kind: KindDeploymentReceipt, Deployment: &r}
}

// NewDispenserResponse wraps a dispenser receipt.
func NewDispenserResponse(r DispenserReceipt) *Response {
	return &Response{Kind: KindDispenserReceipt, Dispenser: &r}
}

// NewExchangeResponse wraps an exchange receipt.
func NewExchangeResponse(r ExchangeReceipt) *Response {
	return &Response{Kind: KindExchangeReceipt, Exchange: &r}
}

// NewResultsResponse wraps terminal content bytes.
func NewResultsResponse(content []byte) *Response {
	return &Response{Kind: KindResults, Results: &Results{Content: content}}
}

// NewErrorResponse wraps a failure message.
func NewErrorResponse(msg string) *Response {
	return &Response{Kind: KindError, Error: &Error{Message: msg}}
}
