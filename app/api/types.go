package api

import (
	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/vendors"
)

type Handler struct {
	foodRepo database.FoodRepository
	jobRuns  database.JobRunRepository
	registry *vendors.Registry
	version  string
}

type foodResponse struct {
	FoodID   int64  `json:"food_id"`
	Date     string `json:"date"`
	Vendor   string `json:"vendor"`
	Name     string `json:"name"`
	Calories *int   `json:"calories"`
	Protein  *int   `json:"protein"`
	Carb     *int   `json:"carb"`
	Fat      *int   `json:"fat"`
	Price    *int   `json:"price"`
}

type vendorResponse struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MenuURL string `json:"menu_url"`
	Enabled bool   `json:"enabled"`
}

type jobRunResponse struct {
	ID        int64  `json:"id"`
	JobType   string `json:"job_type"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details"`
}
