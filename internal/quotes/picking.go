package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/internal/pricing"
	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	pkgerrors "github.com/merchkit/quotes-backend/pkg/errors"
	pkgpagination "github.com/merchkit/quotes-backend/pkg/pagination"
)

func (s *service) CreatePickingQuote(ctx context.Context, input CreatePickingQuoteInput) (*models.PickingQuote, []Warning, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid picking quote input")
	}
	issueDate, expiryDate, err := s.resolveDates(input.IssueDate, input.ExpiryDate)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.requireClient(ctx, input.ClientID); err != nil {
		return nil, nil, err
	}
	if _, err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshotPayment(ctx, input.PaymentConditionID)
	if err != nil {
		return nil, nil, err
	}

	// Tiers resolve against the catalog before the write transaction
	// opens; a tier miss never leaves a half-written quote behind.
	increment, costTier, err := s.resolvePickingTiers(ctx, input.TotalKits, input.ComponentsPerKit)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.buildPickingServices(input.Services, costTier)
	if err != nil {
		return nil, nil, err
	}
	boxes, err := s.buildPickingBoxes(ctx, input.Boxes)
	if err != nil {
		return nil, nil, err
	}

	quote := &models.PickingQuote{
		UserID:   input.UserID,
		ClientID: input.ClientID,
		Lifecycle: models.QuoteLifecycle{
			PublicToken: uuid.New(),
			Status:      enums.QuoteStatusUnsent,
			IssueDate:   issueDate,
			ExpiryDate:  expiryDate,
		},
		Payment:          snapshot,
		TotalKits:        input.TotalKits,
		ComponentsPerKit: input.ComponentsPerKit,
		Services:         services,
		Boxes:            boxes,
	}
	applyIncrementSnapshot(quote, increment)
	applyPickingTotals(quote, s.computePickingTotals(quote))

	initial := InitialStatus(input.SaveAsDraft, input.SendImmediately)
	if initial == enums.QuoteStatusSent {
		if err := s.checkSendablePicking(len(services)); err != nil {
			return nil, nil, err
		}
	}
	if err := ApplyStatusChange(&quote.Lifecycle, initial, s.now()); err != nil {
		return nil, nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := s.nextNumber(ctx, repo, enums.QuoteKindPicking, issueDate)
		if err != nil {
			return err
		}
		quote.Lifecycle.Number = number
		if _, err := repo.CreatePickingQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create picking quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, quote.ID.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, "picking quote created")

	saved, warnings, err := s.GetPickingQuote(ctx, quote.ID)
	if err != nil {
		return nil, nil, err
	}
	if saved.Lifecycle.Status == enums.QuoteStatusSent {
		if mailErr := s.mailer.SendPickingQuote(ctx, saved); mailErr != nil {
			s.logger.Error(ctx, "picking quote email failed after commit", mailErr)
			return saved, warnings, pkgerrors.Wrap(pkgerrors.CodeDependency, mailErr, "quote saved but email delivery failed")
		}
	}
	return saved, warnings, nil
}

func (s *service) UpdatePickingQuote(ctx context.Context, id uuid.UUID, input UpdatePickingQuoteInput) (*models.PickingQuote, []Warning, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid picking quote input")
	}

	quote, err := s.findPickingQuote(ctx, id)
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
	if input.TotalKits != nil {
		if *input.TotalKits <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "total kits must be positive")
		}
		quote.TotalKits = *input.TotalKits
	}
	if input.ComponentsPerKit != nil {
		if *input.ComponentsPerKit <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "components per kit must be positive")
		}
		quote.ComponentsPerKit = *input.ComponentsPerKit
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

	// Editing kit or component counts moves the quote onto today's tiers;
	// the snapshot is rewritten as part of the same recalculation.
	increment, costTier, err := s.resolvePickingTiers(ctx, quote.TotalKits, quote.ComponentsPerKit)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.buildPickingServices(input.Services, costTier)
	if err != nil {
		return nil, nil, err
	}
	boxes, err := s.buildPickingBoxes(ctx, input.Boxes)
	if err != nil {
		return nil, nil, err
	}

	applyIncrementSnapshot(quote, increment)
	quote.Services = services
	quote.Boxes = boxes
	applyPickingTotals(quote, s.computePickingTotals(quote))
	quote.Services = nil
	quote.Boxes = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.SavePickingQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save picking quote")
		}
		if err := repo.ReplacePickingLines(ctx, quote.ID, services, boxes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace picking quote lines")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(s.logger.WithQuoteID(ctx, id.String()), "picking quote updated")
	return s.GetPickingQuote(ctx, id)
}

func (s *service) GetPickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error) {
	quote, err := s.findPickingQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return quote, CheckPickingReferences(quote), nil
}

func (s *service) ListPickingQuotes(ctx context.Context, params ListParams) (*PickingQuoteList, error) {
	query, limit, err := s.buildListQuery(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListPickingQuotes(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list picking quotes")
	}

	list := &PickingQuoteList{Quotes: rows}
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

func (s *service) ChangePickingQuoteStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput) (*models.PickingQuote, []Warning, error) {
	quote, err := s.findPickingQuote(ctx, id)
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
		if err := s.checkSendablePicking(len(quote.Services)); err != nil {
			return nil, nil, err
		}
	}

	if err := ApplyStatusChange(&quote.Lifecycle, input.Status, s.now()); err != nil {
		return nil, nil, err
	}
	if input.Status == enums.QuoteStatusRejected {
		quote.Lifecycle.RejectionComments = input.RejectionComments
	}
	quote.Services = nil
	quote.Boxes = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).SavePickingQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save picking quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, id.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, fmt.Sprintf("picking quote moved to %s", input.Status))

	saved, warnings, err := s.GetPickingQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if input.Status == enums.QuoteStatusSent {
		if mailErr := s.mailer.SendPickingQuote(ctx, saved); mailErr != nil {
			s.logger.Error(ctx, "picking quote email failed after commit", mailErr)
			return saved, warnings, pkgerrors.Wrap(pkgerrors.CodeDependency, mailErr, "status saved but email delivery failed")
		}
	}
	return saved, warnings, nil
}

// RecalculatePickingQuote reprices from the stored lines and the frozen
// increment and payment snapshots. Tier tables are not consulted; only an
// edit to the kit or component counts re-resolves them. Any status is
// accepted: refreshing a frozen quote changes nothing.
func (s *service) RecalculatePickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error) {
	quote, err := s.findPickingQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	applyPickingTotals(quote, s.computePickingTotals(quote))
	quote.Services = nil
	quote.Boxes = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).SavePickingQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save picking quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return s.GetPickingQuote(ctx, id)
}

// DuplicatePickingQuote re-issues a quote as a fresh DRAFT. Line unit
// costs are copied verbatim; the increment tier and payment terms are
// re-snapshotted from the current catalog before totals are recomputed.
func (s *service) DuplicatePickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, []Warning, error) {
	source, err := s.findPickingQuote(ctx, id)
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
	increment, _, err := s.resolvePickingTiers(ctx, source.TotalKits, source.ComponentsPerKit)
	if err != nil {
		return nil, nil, err
	}

	services := make([]models.PickingQuoteService, len(source.Services))
	for i, line := range source.Services {
		services[i] = models.PickingQuoteService{
			ServiceType: line.ServiceType,
			Description: line.Description,
			UnitCost:    line.UnitCost,
			Quantity:    line.Quantity,
			Subtotal:    pricing.LineTotal(line.Quantity, line.UnitCost),
			SortOrder:   line.SortOrder,
		}
	}
	boxes := make([]models.PickingQuoteBox, len(source.Boxes))
	for i, line := range source.Boxes {
		boxes[i] = models.PickingQuoteBox{
			BoxID:      line.BoxID,
			Dimensions: line.Dimensions,
			UnitCost:   line.UnitCost,
			Quantity:   line.Quantity,
			Subtotal:   pricing.LineTotal(line.Quantity, line.UnitCost),
		}
	}

	quote := &models.PickingQuote{
		UserID:   source.UserID,
		ClientID: source.ClientID,
		Lifecycle: models.QuoteLifecycle{
			PublicToken: uuid.New(),
			Status:      enums.QuoteStatusDraft,
			IssueDate:   issueDate,
			ExpiryDate:  expiryDate,
		},
		Payment:          snapshot,
		TotalKits:        source.TotalKits,
		ComponentsPerKit: source.ComponentsPerKit,
		Services:         services,
		Boxes:            boxes,
	}
	applyIncrementSnapshot(quote, increment)
	applyPickingTotals(quote, s.computePickingTotals(quote))

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := s.nextNumber(ctx, repo, enums.QuoteKindPicking, issueDate)
		if err != nil {
			return err
		}
		quote.Lifecycle.Number = number
		if _, err := repo.CreatePickingQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate picking quote")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logger.WithQuoteNumber(s.logger.WithQuoteID(ctx, quote.ID.String()), quote.Lifecycle.Number)
	s.logger.Info(ctx, fmt.Sprintf("picking quote duplicated from %s", source.Lifecycle.Number))
	return s.GetPickingQuote(ctx, quote.ID)
}

func (s *service) findPickingQuote(ctx context.Context, id uuid.UUID) (*models.PickingQuote, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	quote, err := s.repo.FindPickingQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "picking quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup picking quote")
	}
	return quote, nil
}

// resolvePickingTiers resolves both tier tables for the quote's counts and
// returns the values to freeze plus the matched cost scale tier. A miss in
// either table is a typed TIER_NOT_FOUND failure carrying the unmatched
// input.
func (s *service) resolvePickingTiers(ctx context.Context, totalKits, componentsPerKit int) (pricing.IncrementSnapshot, models.CostScaleTier, error) {
	costTiers, err := s.catalog.ActiveCostScaleTiers(ctx)
	if err != nil {
		return pricing.IncrementSnapshot{}, models.CostScaleTier{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cost scale tiers")
	}
	costTier, err := pricing.ResolveTier(pricing.TierKindCostScale, costTiers, totalKits)
	if err != nil {
		return pricing.IncrementSnapshot{}, models.CostScaleTier{}, pkgerrors.Wrap(pkgerrors.CodeTierNotFound, err, "resolve cost scale tier").WithDetails(totalKits)
	}

	incrementTiers, err := s.catalog.ActiveIncrementTiers(ctx)
	if err != nil {
		return pricing.IncrementSnapshot{}, models.CostScaleTier{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component increment tiers")
	}
	incrementTier, err := pricing.ResolveTier(pricing.TierKindComponentIncrement, incrementTiers, componentsPerKit)
	if err != nil {
		return pricing.IncrementSnapshot{}, models.CostScaleTier{}, pkgerrors.Wrap(pkgerrors.CodeTierNotFound, err, "resolve component increment tier").WithDetails(componentsPerKit)
	}

	return pricing.SnapshotIncrement(incrementTier, costTier), costTier, nil
}

// buildPickingServices validates the service lines and fills unit costs
// left open from the cost scale tier that matched the kit count.
func (s *service) buildPickingServices(lines []ServiceLineInput, tier models.CostScaleTier) ([]models.PickingQuoteService, error) {
	for _, line := range lines {
		if !line.ServiceType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown service type %q", line.ServiceType))
		}
		if !line.Variant.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown rate variant %q", line.Variant))
		}
		if line.UnitCost != nil && line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service unit cost cannot be negative")
		}
	}

	services := make([]models.PickingQuoteService, len(lines))
	for i, line := range lines {
		unitCost := decimal.Zero
		if line.UnitCost != nil {
			unitCost = *line.UnitCost
		} else {
			rate, ok := tier.UnitCostFor(line.ServiceType, line.Size, line.Variant)
			if !ok {
				return nil, pkgerrors.New(
					pkgerrors.CodeValidation,
					fmt.Sprintf("service %s requires a size to price from the rate card", line.ServiceType),
				)
			}
			unitCost = rate
		}
		services[i] = models.PickingQuoteService{
			ServiceType: line.ServiceType,
			Description: line.Description,
			UnitCost:    unitCost,
			Quantity:    line.Quantity,
			Subtotal:    pricing.LineTotal(line.Quantity, unitCost),
			SortOrder:   line.SortOrder,
		}
	}
	return services, nil
}

func (s *service) buildPickingBoxes(ctx context.Context, lines []BoxLineInput) ([]models.PickingQuoteBox, error) {
	boxIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "box unit cost cannot be negative")
		}
		if line.BoxID != nil {
			boxIDs = append(boxIDs, *line.BoxID)
		}
	}
	catalogBoxes, err := s.catalog.FindBoxes(ctx, boxIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load boxes")
	}

	boxes := make([]models.PickingQuoteBox, len(lines))
	for i, line := range lines {
		if line.BoxID != nil {
			if _, ok := catalogBoxes[*line.BoxID]; !ok {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("box %s does not exist", *line.BoxID))
			}
		}
		boxes[i] = models.PickingQuoteBox{
			BoxID:      line.BoxID,
			Dimensions: line.Dimensions,
			UnitCost:   line.UnitCost,
			Quantity:   line.Quantity,
			Subtotal:   pricing.LineTotal(line.Quantity, line.UnitCost),
		}
	}
	return boxes, nil
}

func (s *service) checkSendablePicking(serviceCount int) error {
	if serviceCount == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote has no service lines to send")
	}
	return nil
}

func (s *service) computePickingTotals(quote *models.PickingQuote) pricing.PickingTotals {
	serviceLines := make([]pricing.ServiceLine, len(quote.Services))
	for i, line := range quote.Services {
		serviceLines[i] = pricing.ServiceLine{UnitCost: line.UnitCost, Quantity: line.Quantity}
	}
	boxLines := make([]pricing.BoxLine, len(quote.Boxes))
	for i, line := range quote.Boxes {
		boxLines[i] = pricing.BoxLine{UnitCost: line.UnitCost, Quantity: line.Quantity}
	}
	return pricing.ComputePickingTotals(pricing.PickingInput{
		Services:          serviceLines,
		Boxes:             boxLines,
		TotalKits:         quote.TotalKits,
		IncrementFraction: quote.IncrementPercentage,
		AdjustmentPercent: quote.Payment.PaymentConditionPercentage,
		Tax:               s.opts.Tax,
	})
}

func applyIncrementSnapshot(quote *models.PickingQuote, snap pricing.IncrementSnapshot) {
	description := snap.Description
	productionTime := snap.ProductionTime
	quote.IncrementDescription = &description
	quote.IncrementPercentage = snap.Percentage
	quote.ProductionTime = &productionTime
}

func applyPickingTotals(quote *models.PickingQuote, totals pricing.PickingTotals) {
	quote.ServicesSubtotal = totals.ServicesSubtotal
	quote.IncrementAmount = totals.IncrementAmount
	quote.SubtotalWithIncrement = totals.SubtotalWithIncrement
	quote.BoxTotal = totals.BoxTotal
	quote.Subtotal = totals.Subtotal
	quote.AdjustmentAmount = totals.AdjustmentAmount
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.UnitPricePerKit = totals.UnitPricePerKit
}
