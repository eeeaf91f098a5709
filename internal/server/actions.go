package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eightballer/ocean-bridge/internal/bridge"
	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/receipts"
	"github.com/eightballer/ocean-bridge/internal/validation"
)

// handleAction handles POST /v1/actions
//
// The body is a typed request envelope; the response is the matching
// terminal variant. Every outcome, success or failure, is recorded as a
// signed receipt.
func (s *Server) handleAction(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Failed to read request body",
		})
		return
	}

	req, err := message.Parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	resp, err := s.bridge.Handle(ctx, req)
	if err != nil {
		status, code := actionErrorStatus(err)
		s.issueReceipt(c, req, "", receipts.StatusFailed)
		c.JSON(status, gin.H{
			"error":    code,
			"message":  err.Error(),
			"response": message.NewErrorResponse(err.Error()),
		})
		return
	}

	s.issueReceipt(c, req, referenceFor(req, resp), receipts.StatusCompleted)
	c.JSON(http.StatusOK, resp)
}

// actionErrorStatus maps workflow failures onto HTTP status codes.
func actionErrorStatus(err error) (int, string) {
	var (
		validationErr *validation.ValidationError
		notFoundErr   *bridge.NotFoundError
		timeoutErr    *bridge.TimeoutError
		retriesErr    *bridge.RetriesExhaustedError
		assertionErr  *bridge.AssertionError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &retriesErr):
		return http.StatusBadGateway, "retries_exhausted"
	case errors.As(err, &assertionErr):
		return http.StatusBadGateway, "empty_result"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// referenceFor picks the receipt reference: the identifier the caller would
// use to look the outcome up again.
func referenceFor(req message.Request, resp *message.Response) string {
	switch resp.Kind {
	case message.KindDeploymentReceipt:
		return resp.Deployment.DID
	case message.KindDispenserReceipt:
		return resp.Dispenser.DatatokenAddress
	case message.KindExchangeReceipt:
		return resp.Exchange.ExchangeID
	}

	switch r := req.(type) {
	case *message.Permission:
		return r.DataDID
	case *message.Compute:
		return r.DataDID
	case *message.Purchase:
		return r.AssetDID
	case *message.CreateDispenser:
		return r.DatatokenAddress
	case *message.CreateExchange:
		return r.DatatokenAddress
	}
	return ""
}

func (s *Server) issueReceipt(c *gin.Context, req message.Request, reference, status string) {
	if reference == "" {
		reference = referenceFor(req, &message.Response{})
	}
	err := s.receipts.IssueReceipt(c.Request.Context(), receipts.IssueRequest{
		Action:    req.Kind(),
		Reference: reference,
		Account:   s.account.Hex(),
		Status:    status,
	})
	if err != nil {
		logging.L(c.Request.Context()).Warn("failed to issue receipt",
			"action", req.Kind(),
			"error", err,
		)
	}
}
