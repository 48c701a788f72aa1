package database

type FoodRepository interface {
	UpsertFoods(foods []Food) error
	GetFoodsForDate(date string, vendor string, nameBlacklist []string) ([]Food, error)
	GetFoodCount() (int, error)
}

type JobRunRepository interface {
	CreateJobRun(jobType JobType, status JobStatus, details any) (int64, error)
	UpdateJobRun(id int64, status JobStatus, details any) error
	HasSuccessfulJobRun(jobType JobType, vendor string, week, year int) (bool, error)
	GetRecentJobRuns(limit int) ([]JobRun, error)
	GetJobRunCount() (int, error)
}
