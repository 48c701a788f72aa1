package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/vendors"
)

func NewHandler(foodRepo database.FoodRepository, jobRuns database.JobRunRepository,
	registry *vendors.Registry, version string) *Handler {
	return &Handler{
		foodRepo: foodRepo,
		jobRuns:  jobRuns,
		registry: registry,
		version:  version,
	}
}

// GetFoods returns the persisted foods for one date and vendor, with the
// vendor's configured name blacklist applied
func (h *Handler) GetFoods(c *gin.Context) {
	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	vendor, ok := h.registry.Get(vendors.VendorType(c.Query("vendor")))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown vendor"})
		return
	}

	foods, err := h.foodRepo.GetFoodsForDate(date, string(vendor.Type), vendor.Settings.NameBlacklist)
	if err != nil {
		slog.Error("Database error", "operation", "get_foods", "vendor", string(vendor.Type), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]foodResponse, 0, len(foods))
	for _, food := range foods {
		response = append(response, foodResponse{
			FoodID:   food.FoodID,
			Date:     food.Date,
			Vendor:   food.Vendor,
			Name:     food.Name,
			Calories: food.Calories,
			Protein:  food.Protein,
			Carb:     food.Carb,
			Fat:      food.Fat,
			Price:    food.Price,
		})
	}

	c.JSON(http.StatusOK, gin.H{"foods": response, "count": len(response)})
}

// ListVendors returns the vendor registry contents
func (h *Handler) ListVendors(c *gin.Context) {
	all := h.registry.All()

	response := make([]vendorResponse, 0, len(all))
	for _, vendor := range all {
		response = append(response, vendorResponse{
			Type:    string(vendor.Type),
			Name:    vendor.Name,
			MenuURL: vendor.MenuURL,
			Enabled: vendor.Settings.Enabled,
		})
	}

	c.JSON(http.StatusOK, gin.H{"vendors": response})
}

// ListJobRuns returns the newest ledger rows
func (h *Handler) ListJobRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	runs, err := h.jobRuns.GetRecentJobRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_job_runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]jobRunResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, jobRunResponse{
			ID:        run.ID,
			JobType:   string(run.JobType),
			Status:    string(run.Status),
			Timestamp: run.Timestamp.UTC().Format(time.RFC3339),
			Details:   run.Details,
		})
	}

	c.JSON(http.StatusOK, gin.H{"job_runs": response})
}

// HealthCheck reports storage reachability and row counts
func (h *Handler) HealthCheck(c *gin.Context) {
	foodCount, err := h.foodRepo.GetFoodCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	runCount, err := h.jobRuns.GetJobRunCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  h.version,
		"foods":    foodCount,
		"job_runs": runCount,
	})
}
