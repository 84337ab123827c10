package quotes

import (
	"context"

	"github.com/merchkit/quotes-backend/pkg/db/models"
)

// Mailer delivers quote emails. Delivery runs after the transaction
// commits; a failure surfaces to the caller but never rolls the quote
// back.
type Mailer interface {
	SendMerchQuote(ctx context.Context, quote *models.MerchQuote) error
	SendPickingQuote(ctx context.Context, quote *models.PickingQuote) error
}
