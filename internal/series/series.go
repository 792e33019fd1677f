// Package series turns raw earning and spending transactions into the
// calendar-aligned chart model.
//
// Aggregate groups transactions by (year, month). AlignAndScale keeps only the
// months present in both series, orders them chronologically and computes the
// vertical axis bound. Both functions are pure and safe for concurrent use.
package series

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"smartspend/internal/core"
)

// Aggregate sums transaction amounts per calendar month.
//
// The result holds exactly one entry per distinct (year, month) found in txs,
// in first-seen order; callers must not depend on that order. Every invalid
// transaction is reported in the returned error, which matches
// core.ErrInvalidPeriod or core.ErrInvalidAmount through errors.Is.
func Aggregate(txs []core.Transaction) ([]core.MonthlyAmount, error) {
	var errs *multierror.Error
	for i, tx := range txs {
		if err := tx.Period().Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transaction %d: %w", i, err))
			continue
		}
		if err := core.ValidateAmount(tx.Amount); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transaction %d: %w", i, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	sums := make(map[core.PeriodKey]decimal.Decimal, len(txs))
	order := make([]core.PeriodKey, 0, len(txs))
	for _, tx := range txs {
		key := tx.Period()
		sum, seen := sums[key]
		if !seen {
			order = append(order, key)
		}
		// Exact decimal accumulation keeps the total independent of input order.
		sums[key] = sum.Add(decimal.NewFromFloat(tx.Amount))
	}

	out := make([]core.MonthlyAmount, 0, len(order))
	for _, key := range order {
		out = append(out, core.MonthlyAmount{
			Year:   key.Year,
			Month:  key.Month,
			Amount: sums[key].InexactFloat64(),
		})
	}
	return out, nil
}

// AlignAndScale restricts both series to the months they have in common and
// returns them in chronological order together with "<month>/<year>" labels.
//
// AxisMax is the largest single amount across the full inputs, including
// months that are not plotted, and never less than zero. Inputs must hold at
// most one entry per month; a repeated month yields core.ErrDuplicatePeriod.
func AlignAndScale(earnings, spending []core.MonthlyAmount) (core.AlignedSeriesPair, error) {
	earnByPeriod, err := index(earnings)
	if err != nil {
		return core.AlignedSeriesPair{}, fmt.Errorf("earnings: %w", err)
	}
	spendByPeriod, err := index(spending)
	if err != nil {
		return core.AlignedSeriesPair{}, fmt.Errorf("spending: %w", err)
	}

	common := make([]core.PeriodKey, 0, min(len(earnByPeriod), len(spendByPeriod)))
	for key := range earnByPeriod {
		if _, ok := spendByPeriod[key]; ok {
			common = append(common, key)
		}
	}
	sort.Slice(common, func(i, j int) bool {
		return common[i].Before(common[j])
	})

	out := core.AlignedSeriesPair{
		Periods:        common,
		Labels:         make([]string, len(common)),
		EarningValues:  make([]float64, len(common)),
		SpendingValues: make([]float64, len(common)),
		AxisMax:        max(maxAmount(earnings), maxAmount(spending)),
	}
	for i, key := range common {
		out.Labels[i] = key.Label()
		out.EarningValues[i] = earnByPeriod[key]
		out.SpendingValues[i] = spendByPeriod[key]
	}
	return out, nil
}

// BuildChart aggregates both raw series and aligns the result.
func BuildChart(earnings, spending []core.Transaction) (core.AlignedSeriesPair, error) {
	earnMonthly, err := Aggregate(earnings)
	if err != nil {
		return core.AlignedSeriesPair{}, fmt.Errorf("aggregate earnings: %w", err)
	}
	spendMonthly, err := Aggregate(spending)
	if err != nil {
		return core.AlignedSeriesPair{}, fmt.Errorf("aggregate spending: %w", err)
	}
	return AlignAndScale(earnMonthly, spendMonthly)
}

func index(series []core.MonthlyAmount) (map[core.PeriodKey]float64, error) {
	byPeriod := make(map[core.PeriodKey]float64, len(series))
	for _, m := range series {
		key := m.Period()
		if err := key.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byPeriod[key]; dup {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicatePeriod, key)
		}
		byPeriod[key] = m.Amount
	}
	return byPeriod, nil
}

// maxAmount returns the largest amount in series, or 0 when empty.
func maxAmount(series []core.MonthlyAmount) float64 {
	var m float64
	for _, v := range series {
		if v.Amount > m {
			m = v.Amount
		}
	}
	return m
}
