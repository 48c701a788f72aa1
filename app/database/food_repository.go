package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FoodRepository = (*FoodRepo)(nil)

// FoodRepo handles database operations for foods
type FoodRepo struct {
	db *DB
}

func NewFoodRepo(db *DB) *FoodRepo {
	return &FoodRepo{db: db}
}

// UpsertFoods inserts or replaces foods on the (food_id, date, vendor)
// natural key. Macro drift between fetches overwrites the stored values.
func (r *FoodRepo) UpsertFoods(foods []Food) error {
	if len(foods) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO foods (food_id, date, vendor, name, calories, protein, carb, fat, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (food_id, date, vendor) DO UPDATE SET
			name = excluded.name,
			calories = excluded.calories,
			protein = excluded.protein,
			carb = excluded.carb,
			fat = excluded.fat,
			price = excluded.price,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, food := range foods {
		_, err := stmt.Exec(food.FoodID, food.Date, food.Vendor, food.Name,
			nullableInt(food.Calories), nullableInt(food.Protein),
			nullableInt(food.Carb), nullableInt(food.Fat), nullableInt(food.Price))
		if err != nil {
			return fmt.Errorf("failed to upsert food %d (%s): %w", food.FoodID, food.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert transaction: %w", err)
	}

	return nil
}

// GetFoodsForDate returns the foods persisted for one date and vendor,
// excluding foods whose name contains any of the blacklist substrings.
func (r *FoodRepo) GetFoodsForDate(date string, vendor string, nameBlacklist []string) ([]Food, error) {
	query := `
		SELECT food_id, date, vendor, name, calories, protein, carb, fat, price, created_at, updated_at
		FROM foods
		WHERE date = ? AND vendor = ?
	`
	args := []any{date, vendor}

	for _, blacklisted := range nameBlacklist {
		query += " AND name NOT LIKE ?"
		args = append(args, "%"+blacklisted+"%")
	}

	query += " ORDER BY name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get foods: %w", err)
	}
	defer rows.Close()

	var foods []Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food row: %w", err)
		}
		foods = append(foods, food)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food rows: %w", err)
	}

	return foods, nil
}

// GetFoodCount returns the total number of persisted foods
func (r *FoodRepo) GetFoodCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM foods").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get food count: %w", err)
	}
	return count, nil
}

func scanFood(rows *sql.Rows) (Food, error) {
	var food Food
	var calories, protein, carb, fat, price sql.NullInt64
	var createdAt, updatedAt string

	err := rows.Scan(&food.FoodID, &food.Date, &food.Vendor, &food.Name,
		&calories, &protein, &carb, &fat, &price, &createdAt, &updatedAt)
	if err != nil {
		return Food{}, err
	}

	food.Date = normalizeDate(food.Date)
	food.Calories = intPtr(calories)
	food.Protein = intPtr(protein)
	food.Carb = intPtr(carb)
	food.Fat = intPtr(fat)
	food.Price = intPtr(price)
	food.CreatedAt = parseTimestamp(createdAt)
	food.UpdatedAt = parseTimestamp(updatedAt)

	return food, nil
}

// parseTimestamp handles both formats sqlite produces for timestamp columns
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// normalizeDate trims a stored date to YYYY-MM-DD regardless of how the
// driver renders the TEXT column
func normalizeDate(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
