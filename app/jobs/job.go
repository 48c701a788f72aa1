package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/vendors"
)

// CollectionDetails is the job-type-specific ledger payload for food data
// collection runs
type CollectionDetails struct {
	Vendor string `json:"vendor"`
	Week   int    `json:"week"`
	Year   int    `json:"year"`
	Error  string `json:"error,omitempty"`
}

// CollectionJob is one tracked attempt to collect one vendor's offer for
// one (year, week). A running ledger row is written before any fetch
// starts, so a crash mid-job leaves observable evidence; the row is then
// updated exactly once to success or failure. Errors are returned to the
// orchestrator so retry and visibility policy stays there.
type CollectionJob struct {
	strategy vendors.Strategy
	foodRepo database.FoodRepository
	jobRuns  database.JobRunRepository
	images   *ImageDownloader // nil disables image downloads
	dataDir  string
	year     int
	week     int
}

func NewCollectionJob(strategy vendors.Strategy, foodRepo database.FoodRepository,
	jobRuns database.JobRunRepository, images *ImageDownloader, dataDir string, year, week int) *CollectionJob {
	return &CollectionJob{
		strategy: strategy,
		foodRepo: foodRepo,
		jobRuns:  jobRuns,
		images:   images,
		dataDir:  dataDir,
		year:     year,
		week:     week,
	}
}

func (j *CollectionJob) Run(ctx context.Context) error {
	vendor := j.strategy.Vendor()
	details := CollectionDetails{Vendor: string(vendor), Week: j.week, Year: j.year}

	runID, err := j.jobRuns.CreateJobRun(database.JobTypeFoodDataCollection, database.JobStatusRunning, details)
	if err != nil {
		return fmt.Errorf("failed to create job run: %w", err)
	}

	slog.Info("Collection job started", "run_id", runID, "vendor", string(vendor), "year", j.year, "week", j.week)

	if err := j.collect(ctx, vendor); err != nil {
		details.Error = err.Error()
		if updateErr := j.jobRuns.UpdateJobRun(runID, database.JobStatusFailure, details); updateErr != nil {
			slog.Error("Failed to record job failure", "run_id", runID, "error", updateErr)
		}
		return err
	}

	if err := j.jobRuns.UpdateJobRun(runID, database.JobStatusSuccess, details); err != nil {
		return fmt.Errorf("failed to record job success: %w", err)
	}

	slog.Info("Collection job completed", "run_id", runID, "vendor", string(vendor), "year", j.year, "week", j.week)

	return nil
}

func (j *CollectionJob) collect(ctx context.Context, vendor vendors.VendorType) error {
	result, err := j.strategy.FetchFoodsFor(ctx, j.year, j.week)
	if err != nil {
		return fmt.Errorf("failed to fetch foods: %w", err)
	}

	if err := j.saveRawData(vendor, result.RawData); err != nil {
		return err
	}

	if err := j.foodRepo.UpsertFoods(toRows(result.Foods)); err != nil {
		return fmt.Errorf("failed to persist foods: %w", err)
	}

	slog.Info("Persisted foods", "vendor", string(vendor), "week", j.week, "count", len(result.Foods))

	// Image failures are logged inside the downloader and never fail the
	// job
	if j.images != nil {
		j.images.DownloadAll(ctx, string(vendor), result.Images)
	}

	return nil
}

// saveRawData writes the provider payload verbatim for audit and debugging
func (j *CollectionJob) saveRawData(vendor vendors.VendorType, rawData []byte) error {
	if len(rawData) == 0 {
		return nil
	}

	path := filepath.Join(j.dataDir, fmt.Sprintf("%s-week-%d-%d.json", vendor, j.year, j.week))
	if err := os.WriteFile(path, rawData, 0o644); err != nil {
		return fmt.Errorf("failed to save raw payload: %w", err)
	}

	slog.Debug("Saved raw vendor payload", "path", path)
	return nil
}

func toRows(foods []vendors.Food) []database.Food {
	rows := make([]database.Food, 0, len(foods))
	for _, food := range foods {
		rows = append(rows, database.Food{
			FoodID:   food.FoodID,
			Date:     food.Date.Format("2006-01-02"),
			Vendor:   string(food.Vendor),
			Name:     food.Name,
			Calories: food.Calories,
			Protein:  food.Protein,
			Carb:     food.Carb,
			Fat:      food.Fat,
			Price:    food.Price,
		})
	}
	return rows
}
