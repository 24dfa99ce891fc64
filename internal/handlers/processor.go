package handlers

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/ledger"
)

type tradeKind int

const (
	buyTrade tradeKind = iota
	sellTrade
)

type tradeJob struct {
	ctx       context.Context
	kind      tradeKind
	accountID int
	symbol    string
	quantity  decimal.Decimal
	result    chan tradeResult
}

type tradeResult struct {
	newBalance decimal.Decimal
	err        error
}

// TradeProcessor feeds buy/sell requests through a bounded queue to a pool
// of workers that invoke the ledger engine. Callers block until their trade
// completes.
type TradeProcessor struct {
	engine  *ledger.Engine
	workers int
	queue   chan tradeJob
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewTradeProcessor(engine *ledger.Engine, workers int) *TradeProcessor {
	return &TradeProcessor{
		engine:  engine,
		workers: workers,
		queue:   make(chan tradeJob, 100),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the worker pool
func (tp *TradeProcessor) Start() {
	for i := 0; i < tp.workers; i++ {
		tp.wg.Add(1)
		go tp.worker(i)
	}
	log.Info().Int("workers", tp.workers).Msg("trade processor started")
}

// Stop drains the workers and waits for in-flight trades
func (tp *TradeProcessor) Stop() {
	close(tp.stopCh)
	tp.wg.Wait()
	log.Info().Msg("trade processor stopped")
}

func (tp *TradeProcessor) worker(id int) {
	defer tp.wg.Done()

	for {
		select {
		case <-tp.stopCh:
			return
		case job := <-tp.queue:
			var res tradeResult
			switch job.kind {
			case buyTrade:
				res.newBalance, res.err = tp.engine.Buy(job.ctx, job.accountID, job.symbol, job.quantity)
			case sellTrade:
				res.newBalance, res.err = tp.engine.Sell(job.ctx, job.accountID, job.symbol, job.quantity)
			}
			if res.err != nil {
				log.Debug().Err(res.err).Int("worker", id).Int("account_id", job.accountID).Msg("trade rejected")
			}
			job.result <- res
		}
	}
}

// SubmitBuy queues a buy and waits for its result
func (tp *TradeProcessor) SubmitBuy(ctx context.Context, accountID int, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	return tp.submit(tradeJob{ctx: ctx, kind: buyTrade, accountID: accountID, symbol: symbol, quantity: quantity})
}

// SubmitSell queues a sell and waits for its result
func (tp *TradeProcessor) SubmitSell(ctx context.Context, accountID int, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	return tp.submit(tradeJob{ctx: ctx, kind: sellTrade, accountID: accountID, symbol: symbol, quantity: quantity})
}

func (tp *TradeProcessor) submit(job tradeJob) (decimal.Decimal, error) {
	job.result = make(chan tradeResult, 1)

	select {
	case tp.queue <- job:
	case <-job.ctx.Done():
		return decimal.Zero, job.ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.newBalance, res.err
	case <-job.ctx.Done():
		return decimal.Zero, job.ctx.Err()
	}
}
