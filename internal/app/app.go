package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bill_spider/internal/config"
	"bill_spider/internal/db"
	"bill_spider/internal/feed"
	"bill_spider/internal/fetch"
	"bill_spider/internal/models"
	"bill_spider/internal/pipeline"
)

type BillSource interface {
	Bills(ctx context.Context) ([]*models.Bill, error)
}

type BillRunner interface {
	Run(ctx context.Context, bill *models.Bill) error
}

type BillStore interface {
	SaveBill(ctx context.Context, bill *models.Bill) error
}

type BillApp struct {
	config   *config.SpiderConfig
	source   BillSource
	pipeline BillRunner
	store    BillStore
	db       *db.MongoDB
}

// Summary counts what happened to the bills of one run.
type Summary struct {
	Bills       int
	WithText    int
	Skipped     int
	Failed      int
	FailedSaves int
}

func NewBillApp(cfg *config.SpiderConfig) (*BillApp, error) {
	mongoDB, err := db.NewMongoDB(cfg.DB)
	if err != nil {
		return nil, err
	}

	fetcher, err := fetch.NewFetcher(fetch.Options{
		UserAgent:     cfg.Logic.UserAgent,
		Timeout:       time.Duration(cfg.Logic.TimeoutSec) * time.Second,
		Parallelism:   cfg.Logic.MaxPageFetches,
		Delay:         time.Duration(cfg.Logic.DelayMS) * time.Millisecond,
		RespectRobots: cfg.Logic.RespectRobots,
	})
	if err != nil {
		mongoDB.Close()
		return nil, err
	}

	billPipeline := pipeline.NewBillPipeline(fetcher,
		pipeline.WithResolver(mongoDB, cfg.Members.Aliases),
		pipeline.WithMaxPageFetches(cfg.Logic.MaxPageFetches),
	)

	a := newBillApp(cfg, feed.NewSource(cfg.Feed.URL, cfg.Feed.SessionYear, fetcher), billPipeline, mongoDB)
	a.db = mongoDB
	return a, nil
}

func newBillApp(cfg *config.SpiderConfig, source BillSource, runner BillRunner, store BillStore) *BillApp {
	return &BillApp{
		config:   cfg,
		source:   source,
		pipeline: runner,
		store:    store,
	}
}

// Start runs one ingestion pass, stopping early on SIGINT or SIGTERM, and
// closes the database.
func (a *BillApp) Start() error {
	log.Info().
		Str("db", a.config.DB.Database).
		Str("feed", a.config.Feed.URL).
		Int("max_concurrent_bills", a.config.Logic.MaxConcurrentBills).
		Int("delay_ms", a.config.Logic.DelayMS).
		Msg("starting bill spider")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Warn().Msg("interrupted, finishing bills in flight")
			cancel()
		case <-ctx.Done():
		}
	}()

	_, runErr := a.Run(ctx)
	if a.db != nil {
		if err := a.db.Close(); err != nil && runErr == nil {
			return err
		}
	}
	return runErr
}

// Run reads the feed and runs every bill through the pipeline, saving each
// as it completes. Cancelling ctx stops new bills from starting; bills
// already started are finished and saved.
func (a *BillApp) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	bills, err := a.source.Bills(ctx)
	if err != nil {
		return sum, fmt.Errorf("read bills: %w", err)
	}
	sum.Bills = len(bills)

	var mu sync.Mutex
	count := func(f func(*Summary)) {
		mu.Lock()
		f(&sum)
		mu.Unlock()
	}

	limit := a.config.Logic.MaxConcurrentBills
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for _, bill := range bills {
		g.Go(func() error {
			if ctx.Err() != nil {
				count(func(s *Summary) { s.Skipped++ })
				return nil
			}
			a.processBill(context.WithoutCancel(ctx), bill, count)
			return nil
		})
	}
	_ = g.Wait()

	log.Info().
		Int("bills", sum.Bills).
		Int("with_text", sum.WithText).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Int("failed_saves", sum.FailedSaves).
		Msg("bill run finished")
	return sum, nil
}

func (a *BillApp) processBill(ctx context.Context, bill *models.Bill, count func(func(*Summary))) {
	if err := a.pipeline.Run(ctx, bill); err != nil {
		log.Warn().Err(err).Str("bill", bill.Name).Msg("bill skipped")
		count(func(s *Summary) { s.Failed++ })
		return
	}

	if err := a.store.SaveBill(ctx, bill); err != nil {
		log.Error().Err(err).Str("bill", bill.Name).Msg("can't save bill")
		count(func(s *Summary) { s.FailedSaves++ })
		return
	}

	if bill.HasText {
		count(func(s *Summary) { s.WithText++ })
	}
	log.Debug().Str("bill", bill.Name).Str("path", bill.Path).Bool("has_text", bill.HasText).Msg("bill saved")
}
