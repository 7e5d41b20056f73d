package handlers

import (
	"net/http"

	"github.com/farellandr/seatbook/internal/helpers"
	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type PurchaseRequest struct {
	SectionName string `json:"sectionName" binding:"required"`
	RowName     string `json:"rowName" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
}

type VerifyReceiptRequest struct {
	QRData string `json:"qrData" binding:"required"`
}

func PurchaseTickets(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithInventoryError(c, inventory.ErrInvalidPurchase)
		return
	}

	svc := middleware.GetInventory(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory service not found.")
		return
	}

	result, err := svc.Purchase(c.Request.Context(), inventory.PurchaseInput{
		EventID:        c.Param("id"),
		SectionName:    req.SectionName,
		RowName:        req.RowName,
		Quantity:       req.Quantity,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Tickets purchased successfully",
		"purchaseId":        result.PurchaseID,
		"section":           result.Section,
		"row":               result.Row,
		"purchasedQuantity": result.PurchasedQuantity,
		"groupDiscount":     result.GroupDiscount,
		"remainingSeats":    result.RemainingSeats,
	})
}

// GetPurchaseReceipt renders the signed receipt of a purchase as a QR code.
func GetPurchaseReceipt(c *gin.Context) {
	svc := middleware.GetInventory(c)
	signer := middleware.GetReceiptSigner(c)
	if svc == nil || signer == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Receipt service not found.")
		return
	}

	purchase, err := svc.GetPurchase(c.Request.Context(), c.Param("id"), c.Param("purchaseId"))
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	qrImage, err := qrcode.Encode(signer.ReceiptData(purchase), qrcode.Medium, 256)
	if err != nil {
		_ = c.Error(err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func VerifyReceipt(c *gin.Context) {
	var req VerifyReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	svc := middleware.GetInventory(c)
	signer := middleware.GetReceiptSigner(c)
	if svc == nil || signer == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Receipt service not found.")
		return
	}

	receipt, err := helpers.ParseReceiptData(req.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format")
		return
	}

	purchase, err := svc.GetPurchase(c.Request.Context(), receipt.EventID.String(), receipt.PurchaseID.String())
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	if !signer.Verify(purchase, receipt.Signature) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Receipt is valid",
		"purchase": purchase,
	})
}
