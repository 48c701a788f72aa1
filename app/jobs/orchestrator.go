package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/vendors"
)

// Orchestrator turns vendors × a sliding window of weeks into tracked
// collection jobs. Units run sequentially: the providers rate-limit
// aggressively and the ledger stays a faithful history of attempt order.
// A failing unit is logged and the batch continues. Re-running the
// orchestrator is safe: units with an existing success row are skipped.
type Orchestrator struct {
	registry     *vendors.Registry
	foodRepo     database.FoodRepository
	jobRuns      database.JobRunRepository
	images       *ImageDownloader
	dataDir      string
	imageDir     string
	weeksToFetch int
	limiter      *rate.Limiter
	now          func() time.Time
}

func NewOrchestrator(registry *vendors.Registry, foodRepo database.FoodRepository,
	jobRuns database.JobRunRepository, images *ImageDownloader,
	dataDir, imageDir string, weeksToFetch int, unitDelay time.Duration) *Orchestrator {
	var limiter *rate.Limiter
	if unitDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(unitDelay), 1)
	}

	return &Orchestrator{
		registry:     registry,
		foodRepo:     foodRepo,
		jobRuns:      jobRuns,
		images:       images,
		dataDir:      dataDir,
		imageDir:     imageDir,
		weeksToFetch: weeksToFetch,
		limiter:      limiter,
		now:          time.Now,
	}
}

// Run executes one full collection pass over every enabled vendor and the
// configured week window
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.ensureDirs(); err != nil {
		return err
	}

	year, currentWeek := o.now().ISOWeek()

	enabled := o.registry.Enabled()
	slog.Info("Starting collection run",
		"vendors", len(enabled), "year", year, "from_week", currentWeek, "weeks", o.weeksToFetch)

	for _, vendor := range enabled {
		for week := currentWeek; week < currentWeek+o.weeksToFetch; week++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			o.runUnit(ctx, vendor, year, week)
		}
	}

	slog.Info("Collection run finished", "year", year)
	return nil
}

// runUnit runs one (vendor, week) unit; failures are isolated here so the
// rest of the batch proceeds
func (o *Orchestrator) runUnit(ctx context.Context, vendor vendors.Vendor, year, week int) {
	done, err := o.jobRuns.HasSuccessfulJobRun(database.JobTypeFoodDataCollection, string(vendor.Type), week, year)
	if err != nil {
		slog.Error("Failed to check job history, skipping unit",
			"vendor", string(vendor.Type), "year", year, "week", week, "error", err)
		return
	}
	if done {
		slog.Info("Skipping already collected unit", "vendor", string(vendor.Type), "year", year, "week", week)
		return
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return
		}
	}

	job := NewCollectionJob(vendor.Strategy, o.foodRepo, o.jobRuns, o.images, o.dataDir, year, week)
	if err := job.Run(ctx); err != nil {
		// The job already recorded its own failure in the ledger
		slog.Error("Collection job failed",
			"vendor", string(vendor.Type), "year", year, "week", week, "error", err)
	}
}

func (o *Orchestrator) ensureDirs() error {
	for _, dir := range []string{o.dataDir, o.imageDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
