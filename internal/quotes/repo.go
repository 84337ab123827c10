package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	"github.com/merchkit/quotes-backend/pkg/pagination"
)

// Repository persists quotes. Reads preload soft-deleted references so a
// quote stays renderable after its client or salesperson is removed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMerchQuote(ctx context.Context, quote *models.MerchQuote) (*models.MerchQuote, error)
	SaveMerchQuote(ctx context.Context, quote *models.MerchQuote) (*models.MerchQuote, error)
	ReplaceMerchItems(ctx context.Context, quoteID uuid.UUID, items []models.MerchQuoteItem) error
	FindMerchQuoteByID(ctx context.Context, id uuid.UUID) (*models.MerchQuote, error)
	ListMerchQuotes(ctx context.Context, query listQuery) ([]models.MerchQuote, error)

	CreatePickingQuote(ctx context.Context, quote *models.PickingQuote) (*models.PickingQuote, error)
	SavePickingQuote(ctx context.Context, quote *models.PickingQuote) (*models.PickingQuote, error)
	ReplacePickingLines(ctx context.Context, quoteID uuid.UUID, services []models.PickingQuoteService, boxes []models.PickingQuoteBox) error
	FindPickingQuoteByID(ctx context.Context, id uuid.UUID) (*models.PickingQuote, error)
	ListPickingQuotes(ctx context.Context, query listQuery) ([]models.PickingQuote, error)

	FindExpiringMerchQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.MerchQuote, error)
	FindExpiringPickingQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.PickingQuote, error)

	NextNumber(ctx context.Context, kind enums.QuoteKind, period string) (int64, error)
}

type listQuery struct {
	filters ListFilters
	cursor  *pagination.Cursor
	limit   int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (r *repository) CreateMerchQuote(ctx context.Context, quote *models.MerchQuote) (*models.MerchQuote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) SaveMerchQuote(ctx context.Context, quote *models.MerchQuote) (*models.MerchQuote, error) {
	err := r.db.WithContext(ctx).
		Omit("Items", "User", "Client", "PaymentCondition").
		Save(quote).Error
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// ReplaceMerchItems swaps the quote's line set wholesale. Updates never
// diff individual lines.
func (r *repository) ReplaceMerchItems(ctx context.Context, quoteID uuid.UUID, items []models.MerchQuoteItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quote_id = ?", quoteID).Delete(&models.MerchQuoteItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].QuoteID = quoteID
	}
	return db.Create(&items).Error
}

func (r *repository) FindMerchQuoteByID(ctx context.Context, id uuid.UUID) (*models.MerchQuote, error) {
	var quote models.MerchQuote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("created_at ASC")
		}).
		Preload("Items.Product", unscoped).
		Preload("User", unscoped).
		Preload("Client", unscoped).
		Preload("PaymentCondition", unscoped).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListMerchQuotes returns a filtered page using cursor pagination.
func (r *repository) ListMerchQuotes(ctx context.Context, query listQuery) ([]models.MerchQuote, error) {
	db := applyListQuery(r.db.WithContext(ctx).Model(&models.MerchQuote{}), query).
		Preload("Client", unscoped).
		Preload("User", unscoped)

	var rows []models.MerchQuote
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreatePickingQuote(ctx context.Context, quote *models.PickingQuote) (*models.PickingQuote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) SavePickingQuote(ctx context.Context, quote *models.PickingQuote) (*models.PickingQuote, error) {
	err := r.db.WithContext(ctx).
		Omit("Services", "Boxes", "User", "Client", "PaymentCondition").
		Save(quote).Error
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) ReplacePickingLines(ctx context.Context, quoteID uuid.UUID, services []models.PickingQuoteService, boxes []models.PickingQuoteBox) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quote_id = ?", quoteID).Delete(&models.PickingQuoteService{}).Error; err != nil {
		return err
	}
	if err := db.Where("quote_id = ?", quoteID).Delete(&models.PickingQuoteBox{}).Error; err != nil {
		return err
	}
	for i := range services {
		services[i].QuoteID = quoteID
	}
	for i := range boxes {
		boxes[i].QuoteID = quoteID
	}
	if len(services) > 0 {
		if err := db.Create(&services).Error; err != nil {
			return err
		}
	}
	if len(boxes) > 0 {
		if err := db.Create(&boxes).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindPickingQuoteByID(ctx context.Context, id uuid.UUID) (*models.PickingQuote, error) {
	var quote models.PickingQuote
	err := r.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("created_at ASC")
		}).
		Preload("Boxes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Boxes.Box", unscoped).
		Preload("User", unscoped).
		Preload("Client", unscoped).
		Preload("PaymentCondition", unscoped).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListPickingQuotes(ctx context.Context, query listQuery) ([]models.PickingQuote, error) {
	db := applyListQuery(r.db.WithContext(ctx).Model(&models.PickingQuote{}), query).
		Preload("Client", unscoped).
		Preload("User", unscoped)

	var rows []models.PickingQuote
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyListQuery(db *gorm.DB, query listQuery) *gorm.DB {
	f := query.filters
	if f.ClientID != nil {
		db = db.Where("client_id = ?", *f.ClientID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.DateFrom != nil {
		db = db.Where("issue_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		db = db.Where("issue_date <= ?", *f.DateTo)
	}
	if query.cursor != nil {
		db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", query.cursor.CreatedAt, query.cursor.CreatedAt, query.cursor.ID)
	}
	return db.Order("created_at DESC").Order("id DESC").Limit(query.limit)
}

// FindExpiringMerchQuotes returns live merch quotes in any of the given
// statuses with an expiry date on or before the horizon, ordered by expiry
// date. Keeping the window in the query bounds the scan as the table grows.
func (r *repository) FindExpiringMerchQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.MerchQuote, error) {
	var rows []models.MerchQuote
	err := r.db.WithContext(ctx).
		Preload("Client", unscoped).
		Where("status IN ?", statuses).
		Where("expiry_date <= ?", horizon).
		Order("expiry_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindExpiringPickingQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.PickingQuote, error) {
	var rows []models.PickingQuote
	err := r.db.WithContext(ctx).
		Preload("Client", unscoped).
		Where("status IN ?", statuses).
		Where("expiry_date <= ?", horizon).
		Order("expiry_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NextNumber reserves the next sequence value for a quote kind and period.
// The upsert keeps numbering gapless under concurrent creates as long as
// it runs inside the creating transaction.
func (r *repository) NextNumber(ctx context.Context, kind enums.QuoteKind, period string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO document_sequences (kind, period, seq)
		 VALUES (?, ?, 1)
		 ON CONFLICT (kind, period) DO UPDATE SET seq = document_sequences.seq + 1
		 RETURNING seq`,
		kind.String(), period,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
