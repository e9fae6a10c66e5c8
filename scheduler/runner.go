package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"pricer/config"
	"pricer/models"
	"pricer/repository"
	"pricer/scraper"
	"pricer/services"
)

// Runner executes one scrape run: fetch pending aliases, scrape them with a
// bounded worker pool, upload the results and record the run outcome.
// Only one run is allowed at a time; the browser is shared across workers.
type Runner struct {
	cfg       *config.Config
	market    *services.MarketClient
	scraper   *scraper.ProductScraper
	runRepo   *repository.RunRepository
	priceRepo *repository.PriceRepository

	mutex   sync.Mutex
	running bool
}

func NewRunner(cfg *config.Config, market *services.MarketClient, ps *scraper.ProductScraper) *Runner {
	return &Runner{
		cfg:       cfg,
		market:    market,
		scraper:   ps,
		runRepo:   repository.NewRunRepository(),
		priceRepo: repository.NewPriceRepository(),
	}
}

// runStats accumulates per-alias outcomes across workers
type runStats struct {
	mutex     sync.Mutex
	succeeded int
	failed    int
	skipped   int
}

func (s *runStats) success() { s.mutex.Lock(); s.succeeded++; s.mutex.Unlock() }
func (s *runStats) failure() { s.mutex.Lock(); s.failed++; s.mutex.Unlock() }
func (s *runStats) skip()    { s.mutex.Lock(); s.skipped++; s.mutex.Unlock() }

// IsRunning reports whether a run is currently in progress
func (r *Runner) IsRunning() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.running
}

// RunOnce performs a full scrape run. trigger is recorded on the run row
// ("schedule" or "manual").
func (r *Runner) RunOnce(ctx context.Context, trigger string) (*models.ScrapeRun, error) {
	r.mutex.Lock()
	if r.running {
		r.mutex.Unlock()
		return nil, fmt.Errorf("a scrape run is already in progress")
	}
	r.running = true
	r.mutex.Unlock()

	defer func() {
		r.mutex.Lock()
		r.running = false
		r.mutex.Unlock()
	}()

	if r.cfg.HasMarketCredentials() {
		if err := r.market.Login(ctx, r.cfg.MarketEmail, r.cfg.MarketPassword); err != nil {
			return nil, fmt.Errorf("market login failed: %v", err)
		}
	} else {
		log.Println("No market credentials configured, uploads will be unauthenticated")
	}

	aliases, err := r.fetchAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aliases: %v", err)
	}

	if max := r.cfg.MaxAliasesPerRun; max > 0 && len(aliases) > max {
		aliases = aliases[:max]
	}

	run, err := r.runRepo.StartRun(trigger, len(aliases))
	if err != nil {
		return nil, err
	}

	log.Printf("Starting scrape run %d (%s): %d aliases, %d workers",
		run.ID, trigger, len(aliases), r.cfg.ScrapeConcurrency)

	if len(aliases) == 0 {
		if err := r.runRepo.FinishRun(run.ID, models.RunStatusCompleted, 0, 0, 0); err != nil {
			return nil, err
		}
		return r.runRepo.GetRunByID(run.ID)
	}

	stats := &runStats{}
	queue := make(chan models.ProductAlias)
	var wg sync.WaitGroup

	workers := r.cfg.ScrapeConcurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for alias := range queue {
				r.processAlias(ctx, run.ID, alias, stats)
			}
		}()
	}

	for _, alias := range aliases {
		select {
		case <-ctx.Done():
			log.Printf("Run %d cancelled: %v", run.ID, ctx.Err())
		case queue <- alias:
			continue
		}
		break
	}
	close(queue)
	wg.Wait()

	status := models.RunStatusCompleted
	if ctx.Err() != nil {
		status = models.RunStatusFailed
	}

	if err := r.runRepo.FinishRun(run.ID, status, stats.succeeded, stats.failed, stats.skipped); err != nil {
		return nil, err
	}

	finished, err := r.runRepo.GetRunByID(run.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("Run %d finished: %d succeeded, %d failed, %d skipped (%.0f%% success)",
		run.ID, finished.Succeeded, finished.Failed, finished.Skipped, finished.SuccessRate()*100)
	return finished, nil
}

// fetchAliases picks the alias source for this run: retry runs only
// revisit pending and failed aliases, normal runs take the full list.
// Both honor the configured store filter.
func (r *Runner) fetchAliases(ctx context.Context) ([]models.ProductAlias, error) {
	if r.cfg.RetryMode {
		log.Printf("Retry mode: fetching pending aliases (store filter %q)", r.cfg.StoreFilter)
		return r.market.GetPendingAliases(ctx, r.cfg.StoreFilter)
	}
	return r.market.GetAliases(ctx, r.cfg.StoreFilter)
}

// processAlias scrapes one alias and reports the outcome. Extraction
// failures count as skipped (the page loaded but held no usable price);
// upload failures count as failed.
func (r *Runner) processAlias(ctx context.Context, runID int, alias models.ProductAlias, stats *runStats) {
	rec, err := r.scraper.ScrapeProduct(alias.URL)
	if err != nil {
		log.Printf("Alias %d (%s): %v", alias.ID, alias.StoreName, err)
		stats.skip()
		r.reportStatus(ctx, alias.ID, "skipped", err)
		return
	}

	if err := r.priceRepo.AddScrapedPrice(runID, alias, rec); err != nil {
		log.Printf("Alias %d: failed to persist price: %v", alias.ID, err)
	}

	sub := models.NewPriceSubmission(alias, rec)
	if err := r.market.SubmitPrice(ctx, sub); err != nil {
		log.Printf("Alias %d: upload failed: %v", alias.ID, err)
		stats.failure()
		r.reportStatus(ctx, alias.ID, "failed", err)
		return
	}

	stats.success()
	r.reportStatus(ctx, alias.ID, "scraped", nil)
}

func (r *Runner) reportStatus(ctx context.Context, aliasID int, status string, cause error) {
	upd := models.StatusUpdate{AliasID: aliasID, Status: status}
	if cause != nil {
		upd.Error = cause.Error()
	}
	if err := r.market.UpdateAliasStatus(ctx, upd); err != nil {
		log.Printf("Alias %d: status update failed: %v", aliasID, err)
	}
}
