package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

const (
	testAddress = "0x1111111111111111111111111111111111111111"
	testDataDID = "did:op:1111111111111111111111111111111111111111111111111111111111111111"
	testAlgoDID = "did:op:2222222222222222222222222222222222222222222222222222222222222222"
)

func TestParse_EachKind(t *testing.T) {
	tests := []struct {
		kind string
		want Request
	}{
		{KindPublishAccessAsset, &PublishAccessAsset{}},
		{KindPublishComputeAsset, &PublishComputeAsset{}},
		{KindPublishAlgorithm, &PublishAlgorithm{}},
		{KindPermission, &Permission{}},
		{KindCompute, &Compute{}},
		{KindCreateDispenser, &CreateDispenser{}},
		{KindCreateExchange, &CreateExchange{}},
		{KindPurchase, &Purchase{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			req, err := Parse([]byte(`{"kind":"` + tt.kind + `"}`))
			require.NoError(t, err)
			assert.IsType(t, tt.want, req)
			assert.Equal(t, tt.kind, req.Kind())
		})
	}
}

func TestParse_UnknownKind(t *testing.T) {
	_, err := Parse([]byte(`{"kind":"rent_asset"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action kind")
}

func TestParse_MalformedEnvelope(t *testing.T) {
	_, err := Parse([]byte(`{`))
	require.Error(t, err)
}

func TestParse_DecodesFields(t *testing.T) {
	raw := `{"kind":"purchase","datatoken_address":"` + testAddress + `","asset_did":"` + testDataDID + `","datatoken_amt":"1","exchange_id":"0xabc"}`

	req, err := Parse([]byte(raw))
	require.NoError(t, err)

	purchase, ok := req.(*Purchase)
	require.True(t, ok)
	assert.Equal(t, testAddress, purchase.DatatokenAddress)
	assert.Equal(t, "1", purchase.DatatokenAmt)
	assert.True(t, purchase.UsesExchange())
}

func TestPublishAccessAsset_Validate_FirstMissingField(t *testing.T) {
	full := func() *PublishAccessAsset {
		return &PublishAccessAsset{
			Description:      "desc",
			Name:             "example",
			Author:           "author",
			License:          "CC0",
			DatasetURL:       "https://example.com/data.csv",
			HasPricingSchema: boolPtr(true),
		}
	}

	require.Nil(t, full().Validate())

	tests := []struct {
		field string
		blank func(*PublishAccessAsset)
	}{
		{"description", func(r *PublishAccessAsset) { r.Description = "" }},
		{"name", func(r *PublishAccessAsset) { r.Name = "" }},
		{"author", func(r *PublishAccessAsset) { r.Author = "" }},
		{"license", func(r *PublishAccessAsset) { r.License = "" }},
		{"dataset_url", func(r *PublishAccessAsset) { r.DatasetURL = "" }},
		{"has_pricing_schema", func(r *PublishAccessAsset) { r.HasPricingSchema = nil }},
	}
	for _, tt := range tests {
		r := full()
		tt.blank(r)
		err := r.Validate()
		require.NotNil(t, err, tt.field)
		assert.Equal(t, tt.field, err.Field)
	}
}

func TestPublishAccessAsset_Validate_DeclarationOrder(t *testing.T) {
	// Everything missing: the first declared field wins.
	err := (&PublishAccessAsset{}).Validate()
	require.NotNil(t, err)
	assert.Equal(t, "description", err.Field)
}

func TestPublishAlgorithm_Validate(t *testing.T) {
	r := &PublishAlgorithm{
		Description:      "desc",
		Name:             "algo",
		Author:           "author",
		License:          "CC0",
		Language:         "python",
		Format:           "docker-image",
		Version:          "0.1",
		Entrypoint:       "python $ALGO",
		Image:            "oceanprotocol/algo_dockers",
		Tag:              "python-branin",
		Checksum:         "sha256:abc",
		FilesURL:         "https://example.com/algo.py",
		HasPricingSchema: boolPtr(false),
	}
	require.Nil(t, r.Validate())

	r.Checksum = ""
	err := r.Validate()
	require.NotNil(t, err)
	assert.Equal(t, "checksum", err.Field)
}

func TestPermission_Validate(t *testing.T) {
	r := &Permission{DataDID: testDataDID, AlgoDID: testAlgoDID}
	require.Nil(t, r.Validate())

	err := (&Permission{AlgoDID: testAlgoDID}).Validate()
	require.NotNil(t, err)
	assert.Equal(t, "data_did", err.Field)

	err = (&Permission{DataDID: "did:op:short", AlgoDID: testAlgoDID}).Validate()
	require.NotNil(t, err)
	assert.Equal(t, "data_did", err.Field)
	assert.Contains(t, err.Message, "valid Ocean DID")
}

func TestCreateExchange_Validate(t *testing.T) {
	r := &CreateExchange{DatatokenAddress: testAddress, Rate: "1.5", OceanAmt: "100"}
	require.Nil(t, r.Validate())

	r.Rate = "abc"
	err := r.Validate()
	require.NotNil(t, err)
	assert.Equal(t, "rate", err.Field)
}

func TestCreateDispenser_Validate(t *testing.T) {
	require.Nil(t, (&CreateDispenser{DatatokenAddress: testAddress}).Validate())

	err := (&CreateDispenser{DatatokenAddress: "not-an-address"}).Validate()
	require.NotNil(t, err)
	assert.Equal(t, "datatoken_address", err.Field)
}

func TestPurchase_Validate(t *testing.T) {
	r := &Purchase{
		DatatokenAddress: testAddress,
		AssetDID:         testDataDID,
		DatatokenAmt:     "1",
	}
	require.Nil(t, r.Validate())
	assert.False(t, r.UsesExchange())

	r.MaxCostOcean = "bad"
	err := r.Validate()
	require.NotNil(t, err)
	assert.Equal(t, "max_cost_ocean", err.Field)
}

func TestResponse_ExactlyOneVariant(t *testing.T) {
	resp := NewDeploymentResponse(DeploymentReceipt{
		DID:                      testDataDID,
		DatatokenContractAddress: testAddress,
		HasPricingSchema:         true,
	})
	assert.Equal(t, KindDeploymentReceipt, resp.Kind)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "deployment")
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "results")
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("retries exhausted")
	assert.Equal(t, KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "retries exhausted", resp.Error.Message)
}
