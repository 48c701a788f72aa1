package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/vendors"
)

type recordedRun struct {
	id      int64
	status  database.JobStatus
	details CollectionDetails
}

// fakeLedger is an in-memory JobRunRepository that records every write
type fakeLedger struct {
	runs      []recordedRun
	successes map[string]bool
	checkErr  error
	nextID    int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{successes: map[string]bool{}}
}

func (l *fakeLedger) CreateJobRun(jobType database.JobType, status database.JobStatus, details any) (int64, error) {
	l.nextID++
	l.runs = append(l.runs, recordedRun{id: l.nextID, status: status, details: details.(CollectionDetails)})
	return l.nextID, nil
}

func (l *fakeLedger) UpdateJobRun(id int64, status database.JobStatus, details any) error {
	for i := range l.runs {
		if l.runs[i].id == id {
			l.runs[i].status = status
			l.runs[i].details = details.(CollectionDetails)
			if status == database.JobStatusSuccess {
				d := l.runs[i].details
				l.successes[fmt.Sprintf("%s:%d:%d", d.Vendor, d.Year, d.Week)] = true
			}
			return nil
		}
	}
	return fmt.Errorf("job run %d not found", id)
}

func (l *fakeLedger) HasSuccessfulJobRun(jobType database.JobType, vendor string, week, year int) (bool, error) {
	if l.checkErr != nil {
		return false, l.checkErr
	}
	return l.successes[fmt.Sprintf("%s:%d:%d", vendor, year, week)], nil
}

func (l *fakeLedger) GetRecentJobRuns(limit int) ([]database.JobRun, error) {
	return nil, nil
}

func (l *fakeLedger) GetJobRunCount() (int, error) {
	return len(l.runs), nil
}

type fakeFoodRepo struct {
	upserted  []database.Food
	upsertErr error
}

func (r *fakeFoodRepo) UpsertFoods(foods []database.Food) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, foods...)
	return nil
}

func (r *fakeFoodRepo) GetFoodsForDate(date string, vendor string, nameBlacklist []string) ([]database.Food, error) {
	return nil, nil
}

func (r *fakeFoodRepo) GetFoodCount() (int, error) {
	return len(r.upserted), nil
}

// stubStrategy returns a canned result or error and can observe the ledger
// at fetch time
type stubStrategy struct {
	vendor  vendors.VendorType
	result  *vendors.Result
	err     error
	calls   int
	onFetch func()
}

func (s *stubStrategy) FetchFoodsFor(ctx context.Context, year, week int) (*vendors.Result, error) {
	s.calls++
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubStrategy) Vendor() vendors.VendorType {
	return s.vendor
}

func intp(v int) *int {
	return &v
}

func testResult() *vendors.Result {
	return &vendors.Result{
		Foods: []vendors.Food{
			{
				FoodID:   101,
				Date:     time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC),
				Vendor:   vendors.VendorCityFood,
				Name:     "Brokkolis csirke",
				Calories: intp(540),
				Price:    intp(2390),
			},
			{
				FoodID: 102,
				Date:   time.Date(2025, 1, 28, 0, 0, 0, 0, time.UTC),
				Vendor: vendors.VendorCityFood,
				Name:   "Zöldborsófőzelék",
			},
		},
		RawData: []byte(`{"error":false}`),
		Vendor:  vendors.VendorCityFood,
	}
}

func TestCollectionJobSuccess(t *testing.T) {
	ledger := newFakeLedger()
	foodRepo := &fakeFoodRepo{}
	dataDir := t.TempDir()

	strategy := &stubStrategy{vendor: vendors.VendorCityFood, result: testResult()}
	job := NewCollectionJob(strategy, foodRepo, ledger, nil, dataDir, 2025, 5)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(ledger.runs) != 1 {
		t.Fatalf("Expected 1 ledger row, got %d", len(ledger.runs))
	}

	run := ledger.runs[0]
	if run.status != database.JobStatusSuccess {
		t.Errorf("Expected status success, got %s", run.status)
	}
	if run.details.Vendor != "cityfood" || run.details.Year != 2025 || run.details.Week != 5 {
		t.Errorf("Expected details (cityfood, 2025, 5), got (%s, %d, %d)",
			run.details.Vendor, run.details.Year, run.details.Week)
	}
	if run.details.Error != "" {
		t.Errorf("Expected empty error detail, got '%s'", run.details.Error)
	}

	if len(foodRepo.upserted) != 2 {
		t.Fatalf("Expected 2 persisted foods, got %d", len(foodRepo.upserted))
	}
	if foodRepo.upserted[0].Date != "2025-01-27" {
		t.Errorf("Expected date '2025-01-27', got '%s'", foodRepo.upserted[0].Date)
	}
	if foodRepo.upserted[1].Calories != nil {
		t.Errorf("Expected nil calories to stay nil, got %d", *foodRepo.upserted[1].Calories)
	}

	rawPath := filepath.Join(dataDir, "cityfood-week-2025-5.json")
	data, err := os.ReadFile(rawPath)
	if err != nil {
		t.Fatalf("Expected raw payload at %s, got: %v", rawPath, err)
	}
	if string(data) != `{"error":false}` {
		t.Errorf("Expected raw payload to be written verbatim, got '%s'", string(data))
	}
}

func TestCollectionJobRecordsRunningBeforeFetch(t *testing.T) {
	ledger := newFakeLedger()

	strategy := &stubStrategy{vendor: vendors.VendorCityFood, result: testResult()}
	strategy.onFetch = func() {
		if len(ledger.runs) != 1 || ledger.runs[0].status != database.JobStatusRunning {
			t.Error("Expected a running ledger row before the fetch starts")
		}
	}

	job := NewCollectionJob(strategy, &fakeFoodRepo{}, ledger, nil, t.TempDir(), 2025, 5)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestCollectionJobFetchFailure(t *testing.T) {
	ledger := newFakeLedger()
	foodRepo := &fakeFoodRepo{}

	strategy := &stubStrategy{vendor: vendors.VendorTeletal, err: errors.New("connection refused")}
	job := NewCollectionJob(strategy, foodRepo, ledger, nil, t.TempDir(), 2025, 5)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Expected error, got none")
	}

	if len(ledger.runs) != 1 {
		t.Fatalf("Expected 1 ledger row, got %d", len(ledger.runs))
	}
	run := ledger.runs[0]
	if run.status != database.JobStatusFailure {
		t.Errorf("Expected status failure, got %s", run.status)
	}
	if run.details.Error == "" {
		t.Error("Expected error detail to be recorded")
	}

	if len(foodRepo.upserted) != 0 {
		t.Errorf("Expected no persisted foods after a failed fetch, got %d", len(foodRepo.upserted))
	}
}

func TestCollectionJobPersistFailure(t *testing.T) {
	ledger := newFakeLedger()
	foodRepo := &fakeFoodRepo{upsertErr: errors.New("disk full")}

	strategy := &stubStrategy{vendor: vendors.VendorCityFood, result: testResult()}
	job := NewCollectionJob(strategy, foodRepo, ledger, nil, t.TempDir(), 2025, 5)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Expected error, got none")
	}

	if ledger.runs[0].status != database.JobStatusFailure {
		t.Errorf("Expected status failure, got %s", ledger.runs[0].status)
	}
}

func TestCollectionJobSkipsEmptyRawData(t *testing.T) {
	dataDir := t.TempDir()

	result := testResult()
	result.RawData = nil

	strategy := &stubStrategy{vendor: vendors.VendorCityFood, result: result}
	job := NewCollectionJob(strategy, &fakeFoodRepo{}, newFakeLedger(), nil, dataDir, 2025, 5)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no raw payload file for empty payload, got %d entries", len(entries))
	}
}
