package database

import (
	"time"
)

// Food is one served menu item on one date from one vendor. The
// (food_id, date, vendor) triple is the natural key; refetching the same week
// overwrites the row instead of duplicating it.
type Food struct {
	FoodID   int64
	Date     string // YYYY-MM-DD
	Vendor   string
	Name     string
	Calories *int
	Protein  *int
	Carb     *int
	Fat      *int
	Price    *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRun is one durable record of a job attempt. A running row is written
// before any work starts, then updated in place to its terminal status.
type JobRun struct {
	ID        int64
	JobType   JobType
	Status    JobStatus
	Timestamp time.Time
	Details   string // job-type-specific JSON payload
}

type JobType string

const (
	JobTypeFoodDataCollection JobType = "food_data_collection"
)

type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailure JobStatus = "failure"
)
