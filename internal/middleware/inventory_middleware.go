package middleware

import (
	"github.com/farellandr/seatbook/internal/helpers"
	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/gin-gonic/gin"
)

const (
	inventoryKey     = "inventory"
	receiptSignerKey = "receipt_signer"
)

func InventoryMiddleware(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(inventoryKey, svc)
		c.Next()
	}
}

func GetInventory(c *gin.Context) *inventory.Service {
	svc, exists := c.Get(inventoryKey)
	if !exists {
		return nil
	}
	return svc.(*inventory.Service)
}

func ReceiptSignerMiddleware(signer *helpers.ReceiptSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(receiptSignerKey, signer)
		c.Next()
	}
}

func GetReceiptSigner(c *gin.Context) *helpers.ReceiptSigner {
	signer, exists := c.Get(receiptSignerKey)
	if !exists {
		return nil
	}
	return signer.(*helpers.ReceiptSigner)
}
