package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/series"

	"golang.org/x/sync/errgroup"
)

// SourceError reports that the transactions of one kind could not be read.
type SourceError struct {
	Kind core.Kind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("list %s transactions: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ChartService computes the earnings-vs-spending chart from a transaction
// source on every call.
type ChartService struct {
	source  ledger.TransactionSource
	timeout time.Duration
}

// NewChartService builds a ChartService. A zero timeout means the caller's
// context alone bounds the source reads.
func NewChartService(source ledger.TransactionSource, timeout time.Duration) *ChartService {
	return &ChartService{source: source, timeout: timeout}
}

// Chart reads both series concurrently and returns the aligned, scaled pair.
// On any error the returned value is the empty chart.
func (s *ChartService) Chart(ctx context.Context) (core.AlignedSeriesPair, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var earnings, spending []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.source.ListTransactions(gctx, core.Earning)
		if err != nil {
			return &SourceError{Kind: core.Earning, Err: err}
		}
		earnings = txs
		return nil
	})
	g.Go(func() error {
		txs, err := s.source.ListTransactions(gctx, core.Spending)
		if err != nil {
			return &SourceError{Kind: core.Spending, Err: err}
		}
		spending = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.EmptyChart(), err
	}

	chart, err := series.BuildChart(earnings, spending)
	if err != nil {
		slog.WarnContext(ctx, "Chart data rejected",
			"earnings", len(earnings),
			"spending", len(spending),
			"error", err)
		return core.EmptyChart(), err
	}
	slog.DebugContext(ctx, "Chart computed", "periods", chart.Len(), "axis_max", chart.AxisMax)
	return chart, nil
}
