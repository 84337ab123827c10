package quotes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	"github.com/merchkit/quotes-backend/pkg/pagination"
)

func setupQuotesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	clients := `
CREATE TABLE IF NOT EXISTS clients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	paymentConditions := `
CREATE TABLE IF NOT EXISTS payment_conditions (
  id TEXT PRIMARY KEY,
  description TEXT NOT NULL,
  percentage NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	boxes := `
CREATE TABLE IF NOT EXISTS boxes (
  id TEXT PRIMARY KEY,
  dimensions TEXT NOT NULL,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	merchQuotes := `
CREATE TABLE IF NOT EXISTS merch_quotes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  client_id TEXT NOT NULL,
  number TEXT NOT NULL,
  public_token TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'unsent',
  issue_date DATETIME NOT NULL,
  expiry_date DATETIME NOT NULL,
  email_sent INTEGER NOT NULL DEFAULT 0,
  email_sent_at DATETIME,
  rejection_comments TEXT,
  payment_condition_id TEXT,
  payment_condition_description TEXT,
  payment_condition_percentage NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  adjustment_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	merchQuoteItems := `
CREATE TABLE IF NOT EXISTS merch_quote_items (
  id TEXT PRIMARY KEY,
  quote_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  variant_group TEXT,
  is_selected INTEGER NOT NULL DEFAULT 1,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	pickingQuotes := `
CREATE TABLE IF NOT EXISTS picking_quotes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  client_id TEXT NOT NULL,
  number TEXT NOT NULL,
  public_token TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'unsent',
  issue_date DATETIME NOT NULL,
  expiry_date DATETIME NOT NULL,
  email_sent INTEGER NOT NULL DEFAULT 0,
  email_sent_at DATETIME,
  rejection_comments TEXT,
  payment_condition_id TEXT,
  payment_condition_description TEXT,
  payment_condition_percentage NUMERIC NOT NULL DEFAULT 0,
  total_kits INTEGER NOT NULL,
  components_per_kit INTEGER NOT NULL,
  increment_description TEXT,
  increment_percentage NUMERIC NOT NULL DEFAULT 0,
  production_time TEXT,
  services_subtotal NUMERIC NOT NULL DEFAULT 0,
  increment_amount NUMERIC NOT NULL DEFAULT 0,
  subtotal_with_increment NUMERIC NOT NULL DEFAULT 0,
  box_total NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  adjustment_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  unit_price_per_kit NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	pickingQuoteServices := `
CREATE TABLE IF NOT EXISTS picking_quote_services (
  id TEXT PRIMARY KEY,
  quote_id TEXT NOT NULL,
  service_type TEXT NOT NULL,
  description TEXT NOT NULL,
  unit_cost NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	pickingQuoteBoxes := `
CREATE TABLE IF NOT EXISTS picking_quote_boxes (
  id TEXT PRIMARY KEY,
  quote_id TEXT NOT NULL,
  box_id TEXT,
  dimensions TEXT NOT NULL,
  unit_cost NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	documentSequences := `
CREATE TABLE IF NOT EXISTS document_sequences (
  kind TEXT NOT NULL,
  period TEXT NOT NULL,
  seq INTEGER NOT NULL,
  PRIMARY KEY (kind, period)
);`
	for _, ddl := range []string{
		clients, users, paymentConditions, products, boxes,
		merchQuotes, merchQuoteItems,
		pickingQuotes, pickingQuoteServices, pickingQuoteBoxes,
		documentSequences,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type repoSeed struct {
	client    *models.Client
	user      *models.User
	condition *models.PaymentCondition
	product   *models.Product
}

func seedRepoCatalog(t *testing.T, db *gorm.DB) repoSeed {
	t.Helper()

	email := "buyer@example.com"
	seed := repoSeed{
		client:    &models.Client{ID: uuid.New(), Name: "Acme", Email: &email},
		user:      &models.User{ID: uuid.New(), Name: "Sam", Email: "sam@example.com"},
		condition: &models.PaymentCondition{ID: uuid.New(), Description: "50% advance", Percentage: dec("-5.00"), IsActive: true},
		product:   &models.Product{ID: uuid.New(), SKU: "TSHIRT", Name: "T-Shirt", UnitPrice: dec("12.00"), IsActive: true},
	}
	require.NoError(t, db.Create(seed.client).Error)
	require.NoError(t, db.Create(seed.user).Error)
	require.NoError(t, db.Create(seed.condition).Error)
	require.NoError(t, db.Create(seed.product).Error)
	return seed
}

func newMerchQuoteRow(seed repoSeed, number string) *models.MerchQuote {
	desc := "50% advance"
	return &models.MerchQuote{
		ID:       uuid.New(),
		UserID:   seed.user.ID,
		ClientID: seed.client.ID,
		Lifecycle: models.QuoteLifecycle{
			Number:      number,
			PublicToken: uuid.New(),
			Status:      enums.QuoteStatusUnsent,
			IssueDate:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			ExpiryDate:  time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		},
		Payment: models.PaymentSnapshot{
			PaymentConditionID:          &seed.condition.ID,
			PaymentConditionDescription: &desc,
			PaymentConditionPercentage:  dec("-5.00"),
		},
		Subtotal:         dec("1100.00"),
		AdjustmentAmount: dec("-55.00"),
		TaxAmount:        dec("219.45"),
		Total:            dec("1264.45"),
		Items: []models.MerchQuoteItem{
			{ID: uuid.New(), ProductID: seed.product.ID, Description: "Sticker pack", Quantity: 50, UnitPrice: dec("2.00"), LineTotal: dec("100.00"), IsSelected: true, SortOrder: 1},
			{ID: uuid.New(), ProductID: seed.product.ID, Description: "T-Shirt white", Quantity: 100, UnitPrice: dec("10.00"), LineTotal: dec("1000.00"), IsSelected: true, SortOrder: 0},
		},
	}
}

func TestMerchQuoteRoundTrip(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateMerchQuote(ctx, newMerchQuoteRow(seed, "MQ-2608-9001"))
	require.NoError(t, err)

	found, err := repo.FindMerchQuoteByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "MQ-2608-9001", found.Lifecycle.Number)
	assert.True(t, found.Total.Equal(dec("1264.45")))

	require.NotNil(t, found.Client)
	assert.Equal(t, "Acme", found.Client.Name)
	require.NotNil(t, found.User)
	require.NotNil(t, found.PaymentCondition)
	assert.True(t, found.Payment.PaymentConditionPercentage.Equal(dec("-5.00")))

	// Items come back in sort order regardless of insert order.
	require.Len(t, found.Items, 2)
	assert.Equal(t, "T-Shirt white", found.Items[0].Description)
	assert.Equal(t, "Sticker pack", found.Items[1].Description)
	require.NotNil(t, found.Items[0].Product)
	assert.Equal(t, "TSHIRT", found.Items[0].Product.SKU)
}

func TestFindMerchQuoteLoadsSoftDeletedReferences(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateMerchQuote(ctx, newMerchQuoteRow(seed, "MQ-2608-9002"))
	require.NoError(t, err)

	require.NoError(t, db.Delete(seed.client).Error)
	require.NoError(t, db.Delete(seed.product).Error)

	found, err := repo.FindMerchQuoteByID(ctx, created.ID)
	require.NoError(t, err)

	// Tombstoned references stay renderable on the quote.
	require.NotNil(t, found.Client)
	assert.True(t, found.Client.DeletedAt.Valid)
	require.Len(t, found.Items, 2)
	require.NotNil(t, found.Items[0].Product)
	assert.True(t, found.Items[0].Product.DeletedAt.Valid)
}

func TestReplaceMerchItems(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateMerchQuote(ctx, newMerchQuoteRow(seed, "MQ-2608-9003"))
	require.NoError(t, err)

	replacement := []models.MerchQuoteItem{
		{ID: uuid.New(), ProductID: seed.product.ID, Description: "Hoodie", Quantity: 25, UnitPrice: dec("30.00"), LineTotal: dec("750.00"), IsSelected: true},
	}
	require.NoError(t, repo.ReplaceMerchItems(ctx, created.ID, replacement))

	found, err := repo.FindMerchQuoteByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Hoodie", found.Items[0].Description)
	assert.Equal(t, created.ID, found.Items[0].QuoteID)
}

func TestListMerchQuotesFiltersAndPages(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		quote := newMerchQuoteRow(seed, fmt.Sprintf("MQ-2608-91%02d", i))
		quote.Items = nil
		quote.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			quote.Lifecycle.Status = enums.QuoteStatusSent
		}
		_, err := repo.CreateMerchQuote(ctx, quote)
		require.NoError(t, err)
		ids = append(ids, quote.ID)
	}

	sent := enums.QuoteStatusSent
	rows, err := repo.ListMerchQuotes(ctx, listQuery{
		filters: ListFilters{ClientID: &seed.client.ID, Status: &sent},
		limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[2], rows[0].ID)

	// Newest first; the cursor continues past the first page.
	page, err := repo.ListMerchQuotes(ctx, listQuery{filters: ListFilters{ClientID: &seed.client.ID}, limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	rest, err := repo.ListMerchQuotes(ctx, listQuery{
		filters: ListFilters{ClientID: &seed.client.ID},
		cursor:  &pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID},
		limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)
}

func newPickingQuoteRow(seed repoSeed, number string) *models.PickingQuote {
	incrDesc := "1-3 components"
	prodTime := "5-7 days"
	return &models.PickingQuote{
		ID:       uuid.New(),
		UserID:   seed.user.ID,
		ClientID: seed.client.ID,
		Lifecycle: models.QuoteLifecycle{
			Number:      number,
			PublicToken: uuid.New(),
			Status:      enums.QuoteStatusUnsent,
			IssueDate:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			ExpiryDate:  time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		},
		TotalKits:             50,
		ComponentsPerKit:      2,
		IncrementDescription:  &incrDesc,
		IncrementPercentage:   dec("0.20"),
		ProductionTime:        &prodTime,
		ServicesSubtotal:      dec("25000.00"),
		IncrementAmount:       dec("5000.00"),
		SubtotalWithIncrement: dec("30000.00"),
		Subtotal:              dec("30000.00"),
		TaxAmount:             dec("6300.00"),
		Total:                 dec("36300.00"),
		UnitPricePerKit:       dec("726.00"),
		Services: []models.PickingQuoteService{
			{ID: uuid.New(), ServiceType: enums.ServiceTypeAssembly, Description: "Kit assembly", UnitCost: dec("500.00"), Quantity: 50, Subtotal: dec("25000.00")},
		},
	}
}

func TestReplacePickingLines(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	box := &models.Box{ID: uuid.New(), Dimensions: "30x30x30", UnitCost: dec("1.20"), IsActive: true}
	require.NoError(t, db.Create(box).Error)

	created, err := repo.CreatePickingQuote(ctx, newPickingQuoteRow(seed, "PQ-2608-9001"))
	require.NoError(t, err)

	services := []models.PickingQuoteService{
		{ID: uuid.New(), ServiceType: enums.ServiceTypeQualityControl, Description: "QC pass", UnitCost: dec("0.50"), Quantity: 100, Subtotal: dec("50.00")},
	}
	boxes := []models.PickingQuoteBox{
		{ID: uuid.New(), BoxID: &box.ID, Dimensions: "30x30x30", UnitCost: dec("1.20"), Quantity: 10, Subtotal: dec("12.00")},
	}
	require.NoError(t, repo.ReplacePickingLines(ctx, created.ID, services, boxes))

	found, err := repo.FindPickingQuoteByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Services, 1)
	assert.Equal(t, enums.ServiceTypeQualityControl, found.Services[0].ServiceType)
	require.Len(t, found.Boxes, 1)
	require.NotNil(t, found.Boxes[0].Box)
	assert.Equal(t, "30x30x30", found.Boxes[0].Box.Dimensions)
}

func TestFindExpiringQuotesFiltersStatus(t *testing.T) {
	db := setupQuotesTestDB(t)
	seed := seedRepoCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	sentSoon := newMerchQuoteRow(seed, "MQ-2608-9201")
	sentSoon.Items = nil
	sentSoon.Lifecycle.Status = enums.QuoteStatusSent
	sentSoon.Lifecycle.ExpiryDate = time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)

	sentLater := newMerchQuoteRow(seed, "MQ-2608-9202")
	sentLater.Items = nil
	sentLater.Lifecycle.Status = enums.QuoteStatusSent
	sentLater.Lifecycle.ExpiryDate = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	approved := newMerchQuoteRow(seed, "MQ-2608-9203")
	approved.Items = nil
	approved.Lifecycle.Status = enums.QuoteStatusApproved

	for _, q := range []*models.MerchQuote{sentLater, sentSoon, approved} {
		_, err := repo.CreateMerchQuote(ctx, q)
		require.NoError(t, err)
	}

	statuses := []enums.QuoteStatus{enums.QuoteStatusUnsent, enums.QuoteStatusSent}
	horizon := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	rows, err := repo.FindExpiringMerchQuotes(ctx, statuses, horizon)
	require.NoError(t, err)

	var numbers []string
	for _, row := range rows {
		if row.Lifecycle.Number == "MQ-2608-9201" || row.Lifecycle.Number == "MQ-2608-9202" || row.Lifecycle.Number == "MQ-2608-9203" {
			numbers = append(numbers, row.Lifecycle.Number)
		}
	}
	// Approved quotes and expiries past the horizon stay out of the scan.
	assert.Equal(t, []string{"MQ-2608-9201"}, numbers)

	// A wider horizon picks up the later quote, soonest expiry first.
	rows, err = repo.FindExpiringMerchQuotes(ctx, statuses, horizon.AddDate(0, 0, 10))
	require.NoError(t, err)
	numbers = numbers[:0]
	for _, row := range rows {
		if row.Lifecycle.Number == "MQ-2608-9201" || row.Lifecycle.Number == "MQ-2608-9202" {
			numbers = append(numbers, row.Lifecycle.Number)
		}
	}
	assert.Equal(t, []string{"MQ-2608-9201", "MQ-2608-9202"}, numbers)
}

func TestNextNumberIncrementsPerKindAndPeriod(t *testing.T) {
	db := setupQuotesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	period := uuid.NewString()[:8]

	first, err := repo.NextNumber(ctx, enums.QuoteKindMerch, period)
	require.NoError(t, err)
	second, err := repo.NextNumber(ctx, enums.QuoteKindMerch, period)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	// Each kind runs its own sequence within a period.
	other, err := repo.NextNumber(ctx, enums.QuoteKindPicking, period)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	next, err := repo.NextNumber(ctx, enums.QuoteKindMerch, uuid.NewString()[:8])
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}
