package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/merchkit/quotes-backend/internal/quotes"
	"github.com/merchkit/quotes-backend/pkg/db/models"
	"github.com/merchkit/quotes-backend/pkg/enums"
	"github.com/merchkit/quotes-backend/pkg/logger"
	"github.com/merchkit/quotes-backend/pkg/metrics"
)

const defaultWarningDays = 3

// Statuses worth warning about: a draft nobody offered yet can expire
// silently, an offered quote cannot.
var scannedStatuses = []enums.QuoteStatus{
	enums.QuoteStatusUnsent,
	enums.QuoteStatusSent,
}

type expiringQuoteReader interface {
	FindExpiringMerchQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.MerchQuote, error)
	FindExpiringPickingQuotes(ctx context.Context, statuses []enums.QuoteStatus, horizon time.Time) ([]models.PickingQuote, error)
}

// ExpiryScanJobParams configure the expiring-soon scan.
type ExpiryScanJobParams struct {
	Logger      *logger.Logger
	Reader      expiringQuoteReader
	Metrics     *metrics.JobMetrics
	WarningDays int
}

// NewExpiryScanJob builds the job that surfaces quotes whose validity
// window is about to close. Expiry itself stays derived from the date;
// the scan reports, it never transitions.
func NewExpiryScanJob(params ExpiryScanJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("quote reader required")
	}
	warningDays := params.WarningDays
	if warningDays <= 0 {
		warningDays = defaultWarningDays
	}
	return &expiryScanJob{
		logg:        params.Logger,
		reader:      params.Reader,
		metrics:     params.Metrics,
		warningDays: warningDays,
		now:         time.Now,
	}, nil
}

type expiryScanJob struct {
	logg        *logger.Logger
	reader      expiringQuoteReader
	metrics     *metrics.JobMetrics
	warningDays int
	now         func() time.Time
}

func (j *expiryScanJob) Name() string { return "quote-expiry-scan" }

func (j *expiryScanJob) Run(ctx context.Context) error {
	today := j.now().UTC()
	horizon := today.AddDate(0, 0, j.warningDays)
	var errs []error
	if err := j.scanMerch(ctx, today, horizon); err != nil {
		errs = append(errs, err)
	}
	if err := j.scanPicking(ctx, today, horizon); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *expiryScanJob) scanMerch(ctx context.Context, today, horizon time.Time) error {
	rows, err := j.reader.FindExpiringMerchQuotes(ctx, scannedStatuses, horizon)
	if err != nil {
		return fmt.Errorf("query merch quotes: %w", err)
	}
	count := 0
	for _, quote := range rows {
		if !quotes.ExpiringSoon(quote.Lifecycle, today, j.warningDays) {
			continue
		}
		count++
		j.warn(ctx, quote.Lifecycle, enums.QuoteKindMerch)
	}
	j.metrics.SetExpiringSoon(enums.QuoteKindMerch.String(), count)
	return nil
}

func (j *expiryScanJob) scanPicking(ctx context.Context, today, horizon time.Time) error {
	rows, err := j.reader.FindExpiringPickingQuotes(ctx, scannedStatuses, horizon)
	if err != nil {
		return fmt.Errorf("query picking quotes: %w", err)
	}
	count := 0
	for _, quote := range rows {
		if !quotes.ExpiringSoon(quote.Lifecycle, today, j.warningDays) {
			continue
		}
		count++
		j.warn(ctx, quote.Lifecycle, enums.QuoteKindPicking)
	}
	j.metrics.SetExpiringSoon(enums.QuoteKindPicking.String(), count)
	return nil
}

func (j *expiryScanJob) warn(ctx context.Context, lc models.QuoteLifecycle, kind enums.QuoteKind) {
	ctx = j.logg.WithQuoteNumber(ctx, lc.Number)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"kind":              kind.String(),
		"status":            lc.Status.String(),
		"days_until_expiry": lc.DaysUntilExpiry(j.now().UTC()),
	})
	j.logg.Warn(ctx, "quote validity window closing")
}
