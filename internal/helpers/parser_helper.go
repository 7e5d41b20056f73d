package helpers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ParsedReceipt struct {
	PurchaseID uuid.UUID
	EventID    uuid.UUID
	Signature  string
}

func ParseReceiptData(data string) (ParsedReceipt, error) {
	parts := strings.Split(strings.TrimSpace(data), ";")
	if len(parts) != 4 ||
		!strings.HasPrefix(parts[0], "purchase:") ||
		!strings.HasPrefix(parts[1], "event:") ||
		!strings.HasPrefix(parts[2], "quantity:") ||
		!strings.HasPrefix(parts[3], "signature:") {
		return ParsedReceipt{}, fmt.Errorf("invalid receipt data format")
	}

	purchaseID, err := uuid.Parse(strings.TrimPrefix(parts[0], "purchase:"))
	if err != nil {
		return ParsedReceipt{}, fmt.Errorf("invalid purchase ID format")
	}

	eventID, err := uuid.Parse(strings.TrimPrefix(parts[1], "event:"))
	if err != nil {
		return ParsedReceipt{}, fmt.Errorf("invalid event ID format")
	}

	signature := strings.TrimPrefix(parts[3], "signature:")
	if signature == "" {
		return ParsedReceipt{}, fmt.Errorf("missing signature")
	}

	return ParsedReceipt{
		PurchaseID: purchaseID,
		EventID:    eventID,
		Signature:  signature,
	}, nil
}
