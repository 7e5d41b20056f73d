package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/farellandr/seatbook/internal/models"
)

type ReceiptSigner struct {
	secret []byte
}

func NewReceiptSigner(secret string) *ReceiptSigner {
	return &ReceiptSigner{secret: []byte(secret)}
}

func (s *ReceiptSigner) Sign(purchase *models.Purchase) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%d",
		purchase.ID.String(),
		purchase.EventID.String(),
		purchase.SectionName,
		purchase.RowName,
		purchase.Quantity,
	)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ReceiptData is the text encoded into a purchase's QR code.
func (s *ReceiptSigner) ReceiptData(purchase *models.Purchase) string {
	return fmt.Sprintf("purchase:%s;event:%s;quantity:%d;signature:%s",
		purchase.ID.String(),
		purchase.EventID.String(),
		purchase.Quantity,
		s.Sign(purchase),
	)
}

func (s *ReceiptSigner) Verify(purchase *models.Purchase, signature string) bool {
	return hmac.Equal([]byte(s.Sign(purchase)), []byte(signature))
}
