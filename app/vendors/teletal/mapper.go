package teletal

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lkadar/menucollect/app/vendors"
)

var nonDigitRe = regexp.MustCompile(`[^\d]`)

// MapFood converts one scraped field set into the normalized Food model.
// It is pure: the same raw record always maps to the same Food.
func MapFood(raw RawFood) (vendors.Food, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return vendors.Food{}, fmt.Errorf("food record for code %s day %d has no name", raw.Code, raw.Day)
	}

	return vendors.Food{
		FoodID:   DeriveFoodID(raw.Name, vendors.VendorTeletal),
		Date:     ISOWeekDate(raw.Year, raw.Week, raw.Day),
		Vendor:   vendors.VendorTeletal,
		Name:     raw.Name,
		Calories: parseMacro(raw.Calories),
		Protein:  parseMacro(raw.Protein),
		Carb:     parseMacro(raw.Carb),
		Fat:      parseMacro(raw.Fat),
		Price:    parsePrice(raw.Price),
	}, nil
}

// DeriveFoodID derives the deterministic numeric id for a scraped item:
// the first 12 decimal digits of SHA-256("{name}|{vendor}") read as a
// base-10 big integer. The id depends only on the name, so the same dish
// keeps its id across days and runs.
func DeriveFoodID(name string, vendor vendors.VendorType) int64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", name, vendor)))

	digits := new(big.Int).SetBytes(sum[:]).String()
	if len(digits) > 12 {
		digits = digits[:12]
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// digits is always a short decimal string; unreachable
		return 0
	}

	return id
}

// ISOWeekDate returns the calendar date of an ISO (year, week, weekday)
// triple, weekday 1 being Monday.
func ISOWeekDate(year, week, day int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)

	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7+(day-1))
}

// parseMacro normalizes a locale macro string ("1,262.10 kcal") to a whole
// number: everything after the first decimal point is dropped, thousands
// separators are stripped, the value is truncated toward zero. Missing or
// empty input yields nil, not zero.
func parseMacro(value *string) *int {
	if value == nil {
		return nil
	}

	head, _, _ := strings.Cut(*value, ".")
	digits := nonDigitRe.ReplaceAllString(head, "")
	if digits == "" {
		return nil
	}

	parsed, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}

	return &parsed
}

// parsePrice normalizes a price string ("1.990 Ft") by stripping every
// non-digit character. Missing or empty input yields nil, not zero.
func parsePrice(value *string) *int {
	if value == nil {
		return nil
	}

	digits := nonDigitRe.ReplaceAllString(*value, "")
	if digits == "" {
		return nil
	}

	parsed, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}

	return &parsed
}
