package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the bridge MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolPublishDataset = mcp.NewTool("publish_dataset",
	mcp.WithDescription(
		"Publish a dataset to the Ocean Protocol marketplace. "+
			"Deploys a data NFT and datatoken and anchors the metadata on-chain. "+
			"Returns the asset DID and datatoken contract address."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Human-readable dataset name")),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("What the dataset contains")),
	mcp.WithString("author",
		mcp.Required(),
		mcp.Description("Dataset author")),
	mcp.WithString("license",
		mcp.Required(),
		mcp.Description("License identifier (e.g. 'CC-BY-4.0')")),
	mcp.WithString("dataset_url",
		mcp.Required(),
		mcp.Description("URL where the dataset files are hosted")),
	mcp.WithBoolean("priced",
		mcp.Required(),
		mcp.Description("true to sell via fixed-rate exchange, false for free dispenser access")),
	mcp.WithBoolean("with_compute",
		mcp.Description("Also attach a compute service so algorithms can run against this dataset without downloading it")),
)

var ToolPublishAlgorithm = mcp.NewTool("publish_algorithm",
	mcp.WithDescription(
		"Publish an algorithm to the Ocean Protocol marketplace so it can run "+
			"against compute-enabled datasets. Returns the algorithm DID."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Human-readable algorithm name")),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("What the algorithm does")),
	mcp.WithString("author",
		mcp.Required(),
		mcp.Description("Algorithm author")),
	mcp.WithString("license",
		mcp.Required(),
		mcp.Description("License identifier")),
	mcp.WithString("files_url",
		mcp.Required(),
		mcp.Description("URL of the algorithm source file")),
	mcp.WithString("language",
		mcp.Required(),
		mcp.Description("Implementation language (e.g. 'python')")),
	mcp.WithString("format",
		mcp.Required(),
		mcp.Description("Source format (e.g. 'docker-image')")),
	mcp.WithString("version",
		mcp.Required(),
		mcp.Description("Algorithm version string")),
	mcp.WithString("entrypoint",
		mcp.Required(),
		mcp.Description("Container entrypoint (e.g. 'python $ALGO')")),
	mcp.WithString("image",
		mcp.Required(),
		mcp.Description("Docker image name")),
	mcp.WithString("tag",
		mcp.Required(),
		mcp.Description("Docker image tag")),
	mcp.WithString("checksum",
		mcp.Required(),
		mcp.Description("Docker image checksum")),
	mcp.WithBoolean("priced",
		mcp.Required(),
		mcp.Description("true to sell via fixed-rate exchange, false for free dispenser access")),
)

var ToolPermitAlgorithm = mcp.NewTool("permit_algorithm",
	mcp.WithDescription(
		"Allow a published algorithm to run against a compute-enabled dataset. "+
			"Adds the algorithm to the dataset's trusted list and re-anchors the metadata."),
	mcp.WithString("data_did",
		mcp.Required(),
		mcp.Description("DID of the compute-enabled dataset")),
	mcp.WithString("algo_did",
		mcp.Required(),
		mcp.Description("DID of the algorithm to trust")),
)

var ToolRunCompute = mcp.NewTool("run_compute",
	mcp.WithDescription(
		"Run a trusted algorithm against a compute-enabled dataset and return "+
			"the output artifacts. Pays for both orders, starts the job, and polls "+
			"until it finishes. This can take several minutes."),
	mcp.WithString("data_did",
		mcp.Required(),
		mcp.Description("DID of the dataset")),
	mcp.WithString("algo_did",
		mcp.Required(),
		mcp.Description("DID of the algorithm (must be on the dataset's trusted list)")),
)

var ToolCreateDispenser = mcp.NewTool("create_dispenser",
	mcp.WithDescription(
		"Attach a free-access dispenser to a published datatoken. "+
			"Consumers can then dispense tokens at no cost to order the asset."),
	mcp.WithString("datatoken_address",
		mcp.Required(),
		mcp.Description("Datatoken contract address (from a publish receipt)")),
)

var ToolCreateExchange = mcp.NewTool("create_exchange",
	mcp.WithDescription(
		"Attach a fixed-rate exchange to a published datatoken so consumers buy "+
			"access with OCEAN at a set rate. Returns the exchange ID."),
	mcp.WithString("datatoken_address",
		mcp.Required(),
		mcp.Description("Datatoken contract address (from a publish receipt)")),
	mcp.WithString("rate",
		mcp.Required(),
		mcp.Description("OCEAN per datatoken (e.g. '1', '0.5')")),
	mcp.WithString("ocean_amt",
		mcp.Required(),
		mcp.Description("OCEAN amount committed to the exchange")),
)

var ToolPurchaseAsset = mcp.NewTool("purchase_asset",
	mcp.WithDescription(
		"Buy access to a published dataset and download its files. "+
			"Acquires datatokens via the exchange or dispenser as needed, pays for "+
			"the order, and returns the downloaded content."),
	mcp.WithString("asset_did",
		mcp.Required(),
		mcp.Description("DID of the dataset to purchase")),
	mcp.WithString("datatoken_address",
		mcp.Required(),
		mcp.Description("The asset's datatoken contract address")),
	mcp.WithString("datatoken_amt",
		mcp.Required(),
		mcp.Description("Datatokens needed for the order (usually '1')")),
	mcp.WithString("exchange_id",
		mcp.Description("Fixed-rate exchange ID; omit to use the free dispenser")),
	mcp.WithString("max_cost_ocean",
		mcp.Description("Ceiling on OCEAN spent when buying from the exchange")),
	mcp.WithString("order_tx_id",
		mcp.Description("Prior order transaction to reuse instead of paying again")),
)

var ToolGetAccount = mcp.NewTool("get_account",
	mcp.WithDescription(
		"Get the bridge's funding account address and the network endpoints it targets."),
)

var ToolListReceipts = mcp.NewTool("list_receipts",
	mcp.WithDescription(
		"List signed receipts of actions the bridge has executed for an account, "+
			"newest first."),
	mcp.WithString("account",
		mcp.Required(),
		mcp.Description("Funding account address (e.g. '0x1234...')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of receipts to return (default 50)")),
)

var ToolGetReceipt = mcp.NewTool("get_receipt",
	mcp.WithDescription(
		"Fetch a single signed action receipt by its ID."),
	mcp.WithString("receipt_id",
		mcp.Required(),
		mcp.Description("Receipt ID (e.g. 'rcpt_...')")),
)
