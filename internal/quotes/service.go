package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/internal/catalog"
	"github.com/merchkit/quotes-backend/internal/pricing"
	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	pkgerrors "github.com/merchkit/quotes-backend/pkg/errors"
	"github.com/merchkit/quotes-backend/pkg/logger"
	pkgpagination "github.com/merchkit/quotes-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ChangeStatusInput drives a lifecycle transition. RejectionComments is
// only consulted when the target status is REJECTED.
type ChangeStatusInput struct {
	Status            enums.QuoteStatus `json:"status" validate:"required"`
	RejectionComments *string           `json:"rejection_comments,omitempty"`
}

// Service exposes the quote lifecycle and pricing operations. Mutating
// operations return the persisted quote plus any reference warnings; the
// warnings never fail the call.
type Service interface {
	CreateMerchQuote(ctx context.Context, input CreateMerchQuoteInput) (*models.MerchQuote, []Warning, error)
	UpdateMerchQuote(ctx context.Context, id uuid.UUID, input UpdateMerchQuoteInput) (*models.MerchQuote, []Warning, error)
	GetMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error)
	ListMerchQuotes(ctx context.Context, params ListParams) (*MerchQuoteList, error)
	ChangeMerchQuoteStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput) (*models.MerchQuote, []Warning, error)
	RecalculateMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error)
	DuplicateMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error)

	CreatePickingQuote(ctx context.Context, input CreatePickingQuoteInput) (*models.PickingQuote, []Warning, error)
	UpdatePickingQuote(ctx context.Context, id uuid.UUID, input UpdatePickingQuoteInput) (*models.PickingQuote, []Warning, error)
	GetPickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error)
	ListPickingQuotes(ctx context.Context, params ListParams) (*PickingQuoteList, error)
	ChangePickingQuoteStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput) (*models.PickingQuote, []Warning, error)
	RecalculatePickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error)
	DuplicatePickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error)
}

// Options tunes quote defaults that come from configuration.
type Options struct {
	Tax          pricing.TaxConfig
	ValidityDays int
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	tx       txRunner
	mailer   Mailer
	validate *validator.Validate
	logger   *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService builds a quote service with the required dependencies.
func NewService(repo Repository, cat catalog.Repository, tx txRunner, mailer Mailer, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("quote mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.ValidityDays <= 0 {
		opts.ValidityDays = 30
	}
	return &service{
		repo:     repo,
		catalog:  cat,
		tx:       tx,
		mailer:   mailer,
		validate: validator.New(),
		logger:   logg,
		opts:     opts,
		now:      time.Now,
	}, nil
}

func (s *service) CreateMerchQuote(ctx context.Context, input CreateMerchQuoteInput) (*models.MerchQuote, []Warning, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merch quote input")
	}
	issueDate, expiryDate, err := s.resolveDates(input.IssueDate, input.ExpiryDate)
	if err != nil {
		return nil, nil, err
	}

	client, err := s.requireClient(ctx, input.ClientID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshotPayment(ctx, input.PaymentConditionID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.buildMerchItems(ctx, input.Lines)
	if err != nil {
		return nil, nil, err
	}
	totals := pricing.ComputeMerchTotals(merchLines(items), snapshot.PaymentConditionPercentage, s.opts.Tax)

	lifecycle := models.QuoteLifecycle{
		PublicToken: uuid.New(),
		Status:      enums.QuoteStatusUnsent,
		IssueDate:   issueDate,
		ExpiryDate:  expiryDate,
	}
	initial := InitialStatus(input.SaveAsDraft, input.SendImmediately)
	if initial == enums.QuoteStatusSent {
		if err := s.checkSendableMerch(client, len(items)); err != nil {
			return nil, nil, err
		}
	}
	if err := ApplyStatusChange(&lifecycle, initial, s.now()); err != nil {
		return nil, nil, err
	}

	quote := &models.MerchQuote{
		UserID:           input.UserID,
		ClientID:         input.ClientID,
		Lifecycle:        lifecycle,
		Payment:          snapshot,
		Subtotal:         totals.Subtotal,
		AdjustmentAmount: totals.AdjustmentAmount,
		TaxAmount:        totals.TaxAmount,
		Total:            totals.Total,
		Items:            items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := s.nextNumber(ctx, repo, enums.QuoteKindMerch, issueDate)
		if err != nil {
			return err
		}
		quote.Lifecycle.Number = number
		if _, err := repo.CreateMerchQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merch quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, quote.ID.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, "merch quote created")

	saved, warnings, err := s.GetMerchQuote(ctx, quote.ID)
	if err != nil {
		return nil, nil, err
	}
	if saved.Lifecycle.Status == enums.QuoteStatusSent {
		if mailErr := s.mailer.SendMerchQuote(ctx, saved); mailErr != nil {
			s.logger.Error(ctx, "merch quote email failed after commit", mailErr)
			return saved, warnings, pkgerrors.Wrap(pkgerrors.CodeDependency, mailErr, "quote saved but email delivery failed")
		}
	}
	return saved, warnings, nil
}

func (s *service) UpdateMerchQuote(ctx context.Context, id uuid.UUID, input UpdateMerchQuoteInput) (*models.MerchQuote, []Warning, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merch quote input")
	}

	quote, err := s.findMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if quote.Lifecycle.IsDateExpired(s.now()) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeQuoteExpired, "quote validity has passed; duplicate it to re-issue")
	}
	if err := EnsureEditable(quote.Lifecycle); err != nil {
		return nil, nil, err
	}

	if input.IssueDate != nil {
		quote.Lifecycle.IssueDate = *input.IssueDate
	}
	if input.ExpiryDate != nil {
		quote.Lifecycle.ExpiryDate = *input.ExpiryDate
	}
	if quote.Lifecycle.ExpiryDate.Before(quote.Lifecycle.IssueDate) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date precedes issue date")
	}

	switch {
	case input.ClearCondition:
		quote.Payment = pricing.SnapshotPayment(nil)
	case input.PaymentConditionID != nil:
		snapshot, err := s.snapshotPayment(ctx, input.PaymentConditionID)
		if err != nil {
			return nil, nil, err
		}
		quote.Payment = snapshot
	}

	items, err := s.buildMerchItems(ctx, input.Lines)
	if err != nil {
		return nil, nil, err
	}
	totals := pricing.ComputeMerchTotals(merchLines(items), quote.Payment.PaymentConditionPercentage, s.opts.Tax)
	quote.Subtotal = totals.Subtotal
	quote.AdjustmentAmount = totals.AdjustmentAmount
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.Items = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.SaveMerchQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save merch quote")
		}
		if err := repo.ReplaceMerchItems(ctx, quote.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace merch quote items")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(s.logger.WithQuoteID(ctx, id.String()), "merch quote updated")
	return s.GetMerchQuote(ctx, id)
}

func (s *service) GetMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error) {
	quote, err := s.findMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return quote, CheckMerchReferences(quote), nil
}

func (s *service) ListMerchQuotes(ctx context.Context, params ListParams) (*MerchQuoteList, error) {
	query, limit, err := s.buildListQuery(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListMerchQuotes(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merch quotes")
	}

	list := &MerchQuoteList{Quotes: rows}
	if len(rows) > limit {
		cursor := pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		list.Quotes = rows[:limit]
		list.NextCursor = &cursor
	}
	return list, nil
}

func (s *service) ChangeMerchQuoteStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput) (*models.MerchQuote, []Warning, error) {
	quote, err := s.findMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if input.Status == enums.QuoteStatusSent && quote.Lifecycle.Status != enums.QuoteStatusSent {
		if !quote.Lifecycle.Status.IsEditable() {
			return nil, nil, pkgerrors.New(
				pkgerrors.CodeValidation,
				fmt.Sprintf("quote %s is %s; reopen it before sending", quote.Lifecycle.Number, quote.Lifecycle.Status),
			)
		}
		if err := s.checkSendableMerch(quote.Client, len(quote.Items)); err != nil {
			return nil, nil, err
		}
	}

	if err := ApplyStatusChange(&quote.Lifecycle, input.Status, s.now()); err != nil {
		return nil, nil, err
	}
	if input.Status == enums.QuoteStatusRejected {
		quote.Lifecycle.RejectionComments = input.RejectionComments
	}
	quote.Items = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).SaveMerchQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save merch quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, id.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, fmt.Sprintf("merch quote moved to %s", input.Status))

	saved, warnings, err := s.GetMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if input.Status == enums.QuoteStatusSent {
		if mailErr := s.mailer.SendMerchQuote(ctx, saved); mailErr != nil {
			s.logger.Error(ctx, "merch quote email failed after commit", mailErr)
			return saved, warnings, pkgerrors.Wrap(pkgerrors.CodeDependency, mailErr, "status saved but email delivery failed")
		}
	}
	return saved, warnings, nil
}

// RecalculateMerchQuote reprices the quote from its stored lines and
// frozen payment snapshot. It never refreshes the snapshot; catalog edits
// only reach a quote through an explicit condition change or a duplicate.
// Any status is accepted: refreshing a frozen quote changes nothing.
func (s *service) RecalculateMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error) {
	quote, err := s.findMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	totals := pricing.ComputeMerchTotals(merchLines(quote.Items), quote.Payment.PaymentConditionPercentage, s.opts.Tax)
	quote.Subtotal = totals.Subtotal
	quote.AdjustmentAmount = totals.AdjustmentAmount
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.Items = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).SaveMerchQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save merch quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return s.GetMerchQuote(ctx, id)
}

// DuplicateMerchQuote re-issues a quote as a fresh DRAFT: new number and
// public token, cleared email state, payment terms re-snapshotted from the
// current catalog and totals recomputed. It is the only path forward for a
// date-expired quote.
func (s *service) DuplicateMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, []Warning, error) {
	source, err := s.findMerchQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	issueDate, expiryDate, err := s.resolveDates(time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := s.snapshotPayment(ctx, source.Payment.PaymentConditionID)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.MerchQuoteItem, len(source.Items))
	for i, item := range source.Items {
		items[i] = models.MerchQuoteItem{
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Description:  item.Description,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    pricing.LineTotal(item.Quantity, item.UnitPrice),
			VariantGroup: item.VariantGroup,
			IsSelected:   item.IsSelected,
			SortOrder:    item.SortOrder,
		}
	}
	totals := pricing.ComputeMerchTotals(merchLines(items), snapshot.PaymentConditionPercentage, s.opts.Tax)

	quote := &models.MerchQuote{
		UserID:   source.UserID,
		ClientID: source.ClientID,
		Lifecycle: models.QuoteLifecycle{
			PublicToken: uuid.New(),
			Status:      enums.QuoteStatusDraft,
			IssueDate:   issueDate,
			ExpiryDate:  expiryDate,
		},
		Payment:          snapshot,
		Subtotal:         totals.Subtotal,
		AdjustmentAmount: totals.AdjustmentAmount,
		TaxAmount:        totals.TaxAmount,
		Total:            totals.Total,
		Items:            items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := s.nextNumber(ctx, repo, enums.QuoteKindMerch, issueDate)
		if err != nil {
			return err
		}
		quote.Lifecycle.Number = number
		if _, err := repo.CreateMerchQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate merch quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, quote.ID.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, fmt.Sprintf("merch quote duplicated from %s", source.Lifecycle.Number))
	return s.GetMerchQuote(ctx, quote.ID)
}

func (s *service) findMerchQuote(ctx context.Context, id uuid.UUID) (*models.MerchQuote, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	quote, err := s.repo.FindMerchQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merch quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup merch quote")
	}
	return quote, nil
}

// buildMerchItems validates and prices the requested lines. Ungrouped
// lines always sell; within a variant group exactly one alternative must be
// selected.
func (s *service) buildMerchItems(ctx context.Context, lines []MerchLineInput) ([]models.MerchQuoteItem, error) {
	productIDs := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]bool{}
	for _, line := range lines {
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line unit price cannot be negative")
		}
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
	}

	products, err := s.catalog.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for _, id := range productIDs {
		if _, ok := products[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s does not exist", id))
		}
	}

	selectedInGroup := map[string]int{}
	items := make([]models.MerchQuoteItem, len(lines))
	for i, line := range lines {
		selected := line.IsSelected
		if line.VariantGroup == nil {
			selected = true
		} else {
			if _, ok := selectedInGroup[*line.VariantGroup]; !ok {
				selectedInGroup[*line.VariantGroup] = 0
			}
			if selected {
				selectedInGroup[*line.VariantGroup]++
			}
		}
		items[i] = models.MerchQuoteItem{
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			Description:  line.Description,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			LineTotal:    pricing.LineTotal(line.Quantity, line.UnitPrice),
			VariantGroup: line.VariantGroup,
			IsSelected:   selected,
			SortOrder:    line.SortOrder,
		}
	}
	for group, count := range selectedInGroup {
		if count != 1 {
			return nil, pkgerrors.New(
				pkgerrors.CodeValidation,
				fmt.Sprintf("variant group %q must have exactly one selected line, got %d", group, count),
			)
		}
	}
	return items, nil
}

func merchLines(items []models.MerchQuoteItem) []pricing.MerchLine {
	lines := make([]pricing.MerchLine, len(items))
	for i, item := range items {
		lines[i] = pricing.MerchLine{Selected: item.IsSelected, LineTotal: item.LineTotal}
	}
	return lines
}

func (s *service) checkSendableMerch(client *models.Client, lineCount int) error {
	if lineCount == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote has no lines to send")
	}
	if client == nil || !client.HasEmail() {
		return pkgerrors.New(pkgerrors.CodeValidation, "client has no email address on file")
	}
	return nil
}

func (s *service) resolveDates(issue, expiry time.Time) (time.Time, time.Time, error) {
	if issue.IsZero() {
		issue = s.now()
	}
	if expiry.IsZero() {
		expiry = issue.AddDate(0, 0, s.opts.ValidityDays)
	}
	if expiry.Before(issue) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expiry date precedes issue date")
	}
	return issue, expiry, nil
}

func (s *service) requireClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.catalog.FindClient(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client does not exist")
	}
	return client, nil
}

func (s *service) requireUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.catalog.FindUser(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salesperson does not exist")
	}
	return user, nil
}

// snapshotPayment freezes the referenced condition. A reference the
// catalog cannot resolve at all still saves, with a dangling snapshot the
// read path reports as a warning.
func (s *service) snapshotPayment(ctx context.Context, id *uuid.UUID) (models.PaymentSnapshot, error) {
	if id == nil {
		return pricing.SnapshotPayment(nil), nil
	}
	cond, err := s.catalog.FindPaymentCondition(ctx, *id)
	if err != nil {
		return models.PaymentSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment condition")
	}
	if cond == nil {
		return pricing.DanglingPaymentSnapshot(*id), nil
	}
	return pricing.SnapshotPayment(cond), nil
}

func (s *service) nextNumber(ctx context.Context, repo Repository, kind enums.QuoteKind, issueDate time.Time) (string, error) {
	period := issueDate.Format("0601")
	seq, err := repo.NextNumber(ctx, kind, period)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve quote number")
	}
	return fmt.Sprintf("%s-%s-%04d", kind.NumberPrefix(), period, seq), nil
}

func (s *service) buildListQuery(params ListParams) (listQuery, int, error) {
	limit := pkgpagination.NormalizeLimit(params.Pagination.Limit)
	query := listQuery{
		filters: params.Filters,
		limit:   pkgpagination.LimitWithBuffer(params.Pagination.Limit),
	}
	if params.Pagination.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Pagination.Cursor)
		if err != nil {
			return listQuery{}, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}
	if params.Filters.Status != nil && !params.Filters.Status.IsValid() {
		return listQuery{}, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown quote status %q", *params.Filters.Status))
	}
	return query, limit, nil
}
