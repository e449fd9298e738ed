package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/fx"
	"hodltrack/internal/logger"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/prices"
)

// planService handles recurring purchase plans and their execution.
type planService struct {
	db        *gorm.DB
	feed      prices.Feed
	rates     fx.RateSource
	wallets   WalletServicer
	portfolio PortfolioServicer
}

// NewPlanService creates a new PlanServicer. The portfolio service is used
// to log a post-execution summary; nothing derived is persisted.
func NewPlanService(db *gorm.DB, feed prices.Feed, rates fx.RateSource, wallets WalletServicer, portfolio PortfolioServicer) PlanServicer {
	return &planService{
		db:        db,
		feed:      feed,
		rates:     rates,
		wallets:   wallets,
		portfolio: portfolio,
	}
}

// CreatePlan creates a new recurring plan. The first execution is due at the
// start date.
func (s *planService) CreatePlan(userID string, in PlanInput) (*models.RecurringPlan, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "plan name is required")
	}
	if in.Kind == "" {
		in.Kind = models.TransactionKindBuy
	}
	if in.Kind != models.TransactionKindBuy && in.Kind != models.TransactionKindSell {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "plan kind must be buy or sell")
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if in.FeeCurrency == "" {
		in.FeeCurrency = in.Currency
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now().UTC()
	}
	if err := validatePlanFields(in.FiatAmount, in.Fee, in.Frequency, in.StartDate, in.EndDate, in.MaxOccurrences); err != nil {
		return nil, err
	}
	if in.DestinationWalletID != nil {
		if _, err := s.wallets.GetWalletByID(userID, *in.DestinationWalletID); err != nil {
			return nil, err
		}
	}

	plan := &models.RecurringPlan{
		UserID:              userID,
		Name:                in.Name,
		Kind:                in.Kind,
		FiatAmount:          in.FiatAmount,
		Currency:            in.Currency,
		Fee:                 in.Fee,
		FeeCurrency:         in.FeeCurrency,
		Frequency:           in.Frequency,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		MaxOccurrences:      in.MaxOccurrences,
		NextExecution:       in.StartDate,
		IsActive:            true,
		DestinationWalletID: in.DestinationWalletID,
	}

	if err := s.db.Create(plan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return plan, nil
}

func validatePlanFields(fiatAmount, fee decimal.Decimal, frequency models.PlanFrequency, startDate time.Time, endDate *time.Time, maxOccurrences *int) error {
	if !fiatAmount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if fee.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fee cannot be negative")
	}
	switch frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencyMonthly:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown plan frequency")
	}
	if endDate != nil && !endDate.After(startDate) {
		return apperrors.ErrPlanSchedule
	}
	if maxOccurrences != nil && *maxOccurrences < 1 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "max occurrences must be at least 1")
	}
	return nil
}

// GetUserPlans retrieves a paginated list of the user's active plans.
func (s *planService) GetUserPlans(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringPlan], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringPlan{}).Where("user_id = ? AND is_active = ?", userID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var plans []models.RecurringPlan
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&plans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(plans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPlanByID retrieves an active plan by ID for a specific user.
func (s *planService) GetPlanByID(userID, planID string) (*models.RecurringPlan, error) {
	var plan models.RecurringPlan
	if err := s.db.Where("id = ? AND user_id = ? AND is_active = ?", planID, userID, true).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &plan, nil
}

// UpdatePlan applies user edits to a plan. Schedule state advanced by the
// executor is not editable.
func (s *planService) UpdatePlan(userID, planID string, fields PlanUpdateFields) (*models.RecurringPlan, error) {
	plan, err := s.GetPlanByID(userID, planID)
	if err != nil {
		return nil, err
	}

	updated := *plan
	if fields.Name != nil && *fields.Name != "" {
		updated.Name = *fields.Name
	}
	if fields.FiatAmount != nil {
		updated.FiatAmount = *fields.FiatAmount
	}
	if fields.Currency != nil && *fields.Currency != "" {
		updated.Currency = *fields.Currency
	}
	if fields.Fee != nil {
		updated.Fee = *fields.Fee
	}
	if fields.FeeCurrency != nil && *fields.FeeCurrency != "" {
		updated.FeeCurrency = *fields.FeeCurrency
	}
	if fields.Frequency != nil {
		updated.Frequency = *fields.Frequency
	}
	if fields.EndDate != nil {
		updated.EndDate = fields.EndDate
	}
	if fields.MaxOccurrences != nil {
		updated.MaxOccurrences = fields.MaxOccurrences
	}
	if fields.DestinationWalletID != nil {
		if _, err := s.wallets.GetWalletByID(userID, *fields.DestinationWalletID); err != nil {
			return nil, err
		}
		updated.DestinationWalletID = fields.DestinationWalletID
	}

	if err := validatePlanFields(updated.FiatAmount, updated.Fee, updated.Frequency, updated.StartDate, updated.EndDate, updated.MaxOccurrences); err != nil {
		return nil, err
	}

	if err := s.db.Save(&updated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &updated, nil
}

// PausePlan suspends automatic execution. Pausing an already paused plan is
// a no-op.
func (s *planService) PausePlan(userID, planID string) (*models.RecurringPlan, error) {
	return s.setPaused(userID, planID, true)
}

// ResumePlan re-enables automatic execution. Completed or ended plans
// cannot be resumed.
func (s *planService) ResumePlan(userID, planID string) (*models.RecurringPlan, error) {
	plan, err := s.GetPlanByID(userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Completed() {
		return nil, apperrors.ErrPlanCompleted
	}
	if plan.Expired(time.Now().UTC()) {
		return nil, apperrors.WithMessage(apperrors.ErrPlanCompleted, "plan end date has passed")
	}
	return s.setPaused(userID, planID, false)
}

func (s *planService) setPaused(userID, planID string, paused bool) (*models.RecurringPlan, error) {
	plan, err := s.GetPlanByID(userID, planID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(plan).Update("is_paused", paused).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	plan.IsPaused = paused
	return plan, nil
}

// DeactivatePlan logically deletes a plan. Plans are never removed
// physically; generated ledger rows keep referencing them.
func (s *planService) DeactivatePlan(userID, planID string) error {
	plan, err := s.GetPlanByID(userID, planID)
	if err != nil {
		return err
	}
	if err := s.db.Model(plan).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DuePlans returns every plan across all users that is due for execution at
// the given instant. Completed and ended plans are filtered out in the query.
func (s *planService) DuePlans(now time.Time) ([]models.RecurringPlan, error) {
	var plans []models.RecurringPlan
	if err := s.db.
		Where("is_active = ? AND is_paused = ?", true, false).
		Where("next_execution <= ?", now).
		Where("max_occurrences IS NULL OR execution_count < max_occurrences").
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("next_execution ASC").
		Find(&plans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return plans, nil
}

// Execute runs one occurrence of the plan at the given instant: price fetch,
// fiat-to-BTC sizing, optimistic schedule claim and ledger append. A price
// failure aborts the occurrence; the plan stays due and retries next tick.
func (s *planService) Execute(ctx context.Context, plan *models.RecurringPlan, now time.Time) (*models.Transaction, error) {
	if plan.Completed() || plan.Expired(now) {
		if err := s.db.Model(plan).Update("is_paused", true).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		plan.IsPaused = true
		return nil, apperrors.ErrPlanCompleted
	}

	quote, err := s.feed.Current(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceUnavailable, err)
	}
	// A degraded quote must never produce a purchase.
	if quote.Fallback {
		return nil, apperrors.ErrPriceUnavailable
	}

	price := fx.NewNormalizer(s.rates, plan.Currency).Convert(ctx, quote.Price, quote.Currency).Amount
	if !price.IsPositive() {
		return nil, apperrors.ErrPriceUnavailable
	}
	btcAmount := plan.FiatAmount.DivRound(price, 8)
	if !btcAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "fiat amount is too small at the current price")
	}

	next := nextExecutionAfter(plan.Frequency, now)
	execCount := plan.ExecutionCount + 1
	paused := plan.IsPaused
	if plan.MaxOccurrences != nil && execCount >= *plan.MaxOccurrences {
		paused = true
	}
	if plan.EndDate != nil && next.After(*plan.EndDate) {
		paused = true
	}

	transaction := &models.Transaction{
		UserID:      plan.UserID,
		Kind:        plan.Kind,
		BTCAmount:   btcAmount,
		PricePerBTC: price,
		TotalAmount: plan.FiatAmount,
		Currency:    plan.Currency,
		Fee:         plan.Fee,
		FeeCurrency: plan.FeeCurrency,
		Timestamp:   now,
		Tags:        models.TagList{models.TagAutoDCA},
		PlanID:      &plan.ID,
	}
	if plan.Kind == models.TransactionKindSell {
		transaction.SourceWalletID = plan.DestinationWalletID
	} else {
		transaction.DestinationWalletID = plan.DestinationWalletID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Claim this occurrence: the schedule row is only advanced if no
		// other run advanced it first.
		claim := tx.Model(&models.RecurringPlan{}).
			Where("id = ? AND next_execution = ?", plan.ID, plan.NextExecution).
			Updates(map[string]interface{}{
				"next_execution":  next,
				"execution_count": execCount,
				"is_paused":       paused,
			})
		if claim.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, claim.Error)
		}
		if claim.RowsAffected == 0 {
			return apperrors.ErrPlanClaimed
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	plan.NextExecution = next
	plan.ExecutionCount = execCount
	plan.IsPaused = paused

	s.logExecution(ctx, plan, transaction)
	return transaction, nil
}

// logExecution logs the occurrence with a fresh portfolio summary.
func (s *planService) logExecution(ctx context.Context, plan *models.RecurringPlan, transaction *models.Transaction) {
	log := logger.Get()
	summary, err := s.portfolio.Metrics(ctx, plan.UserID, false)
	if err != nil {
		log.Infow("recurring plan executed",
			"plan_id", plan.ID,
			"kind", transaction.Kind,
			"btc_amount", transaction.BTCAmount,
			"price", transaction.PricePerBTC,
			"currency", transaction.Currency)
		return
	}
	log.Infow("recurring plan executed",
		"plan_id", plan.ID,
		"kind", transaction.Kind,
		"btc_amount", transaction.BTCAmount,
		"price", transaction.PricePerBTC,
		"currency", transaction.Currency,
		"holdings_btc", summary.CurrentHoldings,
		"portfolio_value", summary.CurrentValue)
}

// ExecuteNow triggers one occurrence immediately, bypassing the due check.
// The next automatic execution is rescheduled from this instant.
func (s *planService) ExecuteNow(ctx context.Context, userID, planID string) (*models.Transaction, error) {
	plan, err := s.GetPlanByID(userID, planID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if plan.Completed() {
		return nil, apperrors.ErrPlanCompleted
	}
	if plan.Expired(now) {
		return nil, apperrors.WithMessage(apperrors.ErrPlanCompleted, "plan end date has passed")
	}
	return s.Execute(ctx, plan, now)
}

// nextExecutionAfter advances the schedule one period from the given
// execution instant.
func nextExecutionAfter(frequency models.PlanFrequency, from time.Time) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case models.FrequencyMonthly:
		return addMonthClamped(from)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// addMonthClamped advances one calendar month, clamping to the last day of
// the shorter target month: Jan 31 becomes Feb 28 (or 29), never Mar 2.
func addMonthClamped(t time.Time) time.Time {
	lastOfNext := time.Date(t.Year(), t.Month()+2, 0, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if day > lastOfNext.Day() {
		day = lastOfNext.Day()
	}
	return time.Date(t.Year(), t.Month()+1, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
