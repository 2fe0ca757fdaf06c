package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	auditdomain "github.com/entremotivator/rentalappp1/internal/audit/domain"
	commercedomain "github.com/entremotivator/rentalappp1/internal/commerce/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const webhookProvider = "woocommerce"

// WooCommerceWebhook ingests order events from the store. Only completed
// orders containing the access-granting product trigger provisioning;
// everything else is acknowledged with 200 so the store does not retry.
func (s *Server) WooCommerceWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !s.verifyWebhookSignature(c, body) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var order commercedomain.Order
	if err := json.Unmarshal(body, &order); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// The audit row and the event record are observability only. They are
	// written before the status gates and never decide the outcome: a
	// redelivered event still reaches the orchestrator, whose Exists branch
	// makes it a no-op, and a delivery whose provisioning failed transiently
	// gets another chance on the store's retry.
	s.recordAudit(c, auditdomain.ActorTypeWebhook, auditdomain.ActionWebhookReceived, "order",
		strconv.FormatInt(order.ID, 10), map[string]any{"status": order.Status})

	fresh, err := s.recordWebhookEvent(c, order, body)
	if err != nil {
		s.log.Warn("webhook event record failed", zap.Error(err))
	} else if !fresh {
		s.log.Info("redelivered webhook event",
			zap.Int64("order_id", order.ID),
			zap.String("status", order.Status),
		)
	}

	if !strings.EqualFold(order.Status, "completed") {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ignored",
			"message": "order status is not completed",
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(order.Billing.Email))
	if email == "" {
		AbortWithError(c, newValidationError("billing.email", "required", "order has no billing email"))
		return
	}

	if !order.ContainsProduct(s.cfg.TargetProductID) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ignored",
			"message": "order does not contain the access product",
		})
		return
	}

	result := s.provisionSvc.Provision(c.Request.Context(), email)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      result.Message,
		"user_created": !result.Exists,
		"email":        email,
		"order_id":     order.ID,
	})
}

// verifyWebhookSignature checks the store's HMAC-SHA256 signature over the
// raw body. Verification is skipped when no secret is configured.
func (s *Server) verifyWebhookSignature(c *gin.Context, body []byte) bool {
	secret := s.cfg.WooCommerce.WebhookSecret
	if secret == "" {
		return true
	}

	provided := strings.TrimSpace(c.GetHeader("X-WC-Webhook-Signature"))
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(provided), []byte(expected))
}

// recordWebhookEvent stores the delivery for audit and replay visibility.
// The unique (provider, provider_event_id) constraint keeps one row per
// delivery; fresh reports whether this delivery was the first. Callers must
// not gate provisioning on it.
func (s *Server) recordWebhookEvent(c *gin.Context, order commercedomain.Order, body []byte) (bool, error) {
	eventID := strings.TrimSpace(c.GetHeader("X-WC-Webhook-Delivery-ID"))
	if eventID == "" {
		eventID = "order-" + strconv.FormatInt(order.ID, 10) + "-" + strings.ToLower(order.Status)
	}

	var payload datatypes.JSONMap
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = datatypes.JSONMap{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded = []byte("{}")
	}

	result := s.db.WithContext(c.Request.Context()).Exec(
		`INSERT INTO webhook_events (id, provider, provider_event_id, event_type, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		s.genID.Generate(),
		webhookProvider,
		eventID,
		"order."+strings.ToLower(order.Status),
		string(encoded),
		time.Now().UTC(),
	)
	if result.Error != nil {
		return true, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Server) recordAudit(c *gin.Context, actor auditdomain.ActorType, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	entry := auditdomain.Entry{
		ActorType:  actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
	}
	if err := s.auditSvc.Record(c.Request.Context(), entry); err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}
