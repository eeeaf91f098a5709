package receipts

import (
	"context"
	"testing"
	"time"
)

const (
	testAccount = "0x1111111111111111111111111111111111111111"
	testDID     = "did:op:aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"
	testSecret  = "test-hmac-secret-for-receipts"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), NewSigner(testSecret))
}

func issueTestReceipt(t *testing.T, svc *Service, action, ref, status string) {
	t.Helper()
	err := svc.IssueReceipt(context.Background(), IssueRequest{
		Action:    action,
		Reference: ref,
		Account:   testAccount,
		TxHash:    "0xABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789",
		Status:    status,
		Metadata:  "test receipt",
	})
	if err != nil {
		t.Fatalf("IssueReceipt failed: %v", err)
	}
}

func TestIssueReceipt_Success(t *testing.T) {
	svc := newTestService()
	issueTestReceipt(t, svc, "publish_access_asset", testDID, StatusCompleted)

	receipts, err := svc.ListByAccount(context.Background(), testAccount, 10)
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}

	r := receipts[0]
	if r.Action != "publish_access_asset" {
		t.Errorf("expected action publish_access_asset, got %s", r.Action)
	}
	if r.Reference != testDID {
		t.Errorf("expected reference %s, got %s", testDID, r.Reference)
	}
	if r.Account != testAccount {
		t.Errorf("expected account %s, got %s", testAccount, r.Account)
	}
	if r.TxHash != "0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789" {
		t.Errorf("expected lowercased tx hash, got %s", r.TxHash)
	}
	if r.Signature == "" {
		t.Error("expected non-empty signature")
	}
	if r.PayloadHash == "" {
		t.Error("expected non-empty payload hash")
	}
	if r.IssuedAt.IsZero() {
		t.Error("expected non-zero issuedAt")
	}
	if r.ExpiresAt.IsZero() {
		t.Error("expected non-zero expiresAt")
	}
	// Should expire ~30 days from now
	expectedExpiry := time.Now().Add(30 * 24 * time.Hour)
	if r.ExpiresAt.Before(expectedExpiry.Add(-time.Minute)) {
		t.Errorf("expiresAt too early: %v", r.ExpiresAt)
	}
}

func TestIssueReceipt_NilSigner(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil) // no signer

	err := svc.IssueReceipt(context.Background(), IssueRequest{
		Action:    "compute",
		Reference: testDID,
		Account:   testAccount,
		Status:    StatusCompleted,
	})
	if err != nil {
		t.Fatalf("expected nil error for nil signer, got %v", err)
	}

	// No receipt should be stored
	receipts, _ := svc.ListByAccount(context.Background(), testAccount, 10)
	if len(receipts) != 0 {
		t.Errorf("expected 0 receipts with nil signer, got %d", len(receipts))
	}
}

func TestIssueReceipt_NilService(t *testing.T) {
	var svc *Service
	err := svc.IssueReceipt(context.Background(), IssueRequest{
		Action:    "compute",
		Reference: testDID,
		Account:   testAccount,
		Status:    StatusCompleted,
	})
	if err != nil {
		t.Fatalf("expected nil error for nil service, got %v", err)
	}
}

func TestVerify_Valid(t *testing.T) {
	svc := newTestService()
	issueTestReceipt(t, svc, "create_exchange", "0xexchange01", StatusCompleted)

	receipts, _ := svc.ListByAccount(context.Background(), testAccount, 10)
	if len(receipts) == 0 {
		t.Fatal("no receipts found")
	}

	resp, err := svc.Verify(context.Background(), receipts[0].ID)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !resp.Valid {
		t.Errorf("expected valid receipt, got invalid: %s", resp.Error)
	}
	if resp.Expired {
		t.Error("expected not expired")
	}
}

func TestVerify_InvalidSignature(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, NewSigner(testSecret))

	issueTestReceipt(t, svc, "permission", testDID, StatusCompleted)

	receipts, _ := svc.ListByAccount(context.Background(), testAccount, 10)
	if len(receipts) == 0 {
		t.Fatal("no receipts found")
	}

	// Tamper with the signature by overwriting the stored receipt
	r := receipts[0]
	r.Signature = "deadbeef"
	_ = store.Create(context.Background(), r)

	resp, err := svc.Verify(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.Valid {
		t.Error("expected invalid for tampered signature")
	}
}

func TestVerify_NotFound(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Verify(context.Background(), "nonexistent_id")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.Valid {
		t.Error("expected invalid for not-found receipt")
	}
	if resp.Error != ErrReceiptNotFound.Error() {
		t.Errorf("expected not_found error, got %s", resp.Error)
	}
}

func TestVerify_SigningDisabled(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	resp, err := svc.Verify(context.Background(), "any_id")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.Valid {
		t.Error("expected invalid when signing disabled")
	}
	if resp.Error != ErrSigningDisabled.Error() {
		t.Errorf("expected signing_disabled error, got %s", resp.Error)
	}
}

func TestListByAccount_CaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_ = svc.IssueReceipt(ctx, IssueRequest{
		Action: "purchase", Reference: testDID,
		Account: "0xAbCdEf1234567890aBcDeF1234567890AbCdEf12",
		Status:  StatusCompleted,
	})

	receipts, err := svc.ListByAccount(ctx, "0xABCDEF1234567890ABCDEF1234567890ABCDEF12", 10)
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Errorf("expected 1 receipt for checksummed query, got %d", len(receipts))
	}
}

func TestListByReference(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_ = svc.IssueReceipt(ctx, IssueRequest{
		Action: "publish_algorithm", Reference: testDID,
		Account: testAccount, Status: StatusCompleted,
	})
	_ = svc.IssueReceipt(ctx, IssueRequest{
		Action: "permission", Reference: testDID,
		Account: testAccount, Status: StatusCompleted,
	})
	_ = svc.IssueReceipt(ctx, IssueRequest{
		Action: "compute", Reference: "did:op:other",
		Account: testAccount, Status: StatusFailed,
	})

	receipts, err := svc.ListByReference(ctx, testDID)
	if err != nil {
		t.Fatalf("ListByReference failed: %v", err)
	}
	if len(receipts) != 2 {
		t.Errorf("expected 2 receipts for shared reference, got %d", len(receipts))
	}
}

func TestListByAccount_Limit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.IssueReceipt(ctx, IssueRequest{
			Action: "create_dispenser", Reference: "0xdatatoken",
			Account: testAccount, Status: StatusCompleted,
		})
	}

	receipts, err := svc.ListByAccount(ctx, testAccount, 3)
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(receipts) != 3 {
		t.Errorf("expected 3 receipts (limited), got %d", len(receipts))
	}
}

func TestSigner_SignAndVerify(t *testing.T) {
	s := NewSigner(testSecret)

	payload := map[string]string{"key": "value"}
	sig, issuedAt, expiresAt, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if sig == "" || issuedAt == "" || expiresAt == "" {
		t.Fatal("expected non-empty signature, issuedAt, expiresAt")
	}

	if !s.Verify(payload, sig) {
		t.Error("expected Verify to return true for valid signature")
	}

	if s.Verify(payload, "wrong_signature") {
		t.Error("expected Verify to return false for wrong signature")
	}

	// Tampered payload
	if s.Verify(map[string]string{"key": "tampered"}, sig) {
		t.Error("expected Verify to return false for tampered payload")
	}
}

func TestSigner_Nil(t *testing.T) {
	s := NewSigner("")
	if s != nil {
		t.Error("expected nil signer for empty secret")
	}

	sig, _, _, err := s.Sign(map[string]string{"key": "value"})
	if err != nil {
		t.Errorf("expected nil error for nil signer, got %v", err)
	}
	if sig != "" {
		t.Error("expected empty signature for nil signer")
	}

	if s.Verify(map[string]string{"key": "value"}, "anything") {
		t.Error("expected Verify to return false for nil signer")
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "nonexistent")
	if err != ErrReceiptNotFound {
		t.Errorf("expected ErrReceiptNotFound, got %v", err)
	}
}

func TestAllActionKinds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	actions := []string{
		"publish_access_asset", "publish_compute_asset", "publish_algorithm",
		"permission", "compute", "create_dispenser", "create_exchange", "purchase",
	}
	for _, action := range actions {
		err := svc.IssueReceipt(ctx, IssueRequest{
			Action: action, Reference: "ref_" + action,
			Account: testAccount, Status: StatusCompleted,
		})
		if err != nil {
			t.Errorf("IssueReceipt failed for action %s: %v", action, err)
		}
	}

	receipts, _ := svc.ListByAccount(ctx, testAccount, 10)
	if len(receipts) != 8 {
		t.Errorf("expected 8 receipts (one per action kind), got %d", len(receipts))
	}
}
