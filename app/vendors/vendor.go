package vendors

import (
	"context"
	"time"
)

// VendorType identifies an external food-menu data source.
type VendorType string

const (
	VendorCityFood  VendorType = "cityfood"
	VendorInterFood VendorType = "interfood"
	VendorEfood     VendorType = "efood"
	VendorTeletal   VendorType = "teletal"
)

// Food is one served menu item on one date from one vendor, normalized from
// whatever shape the provider returns. Nil macro or price values mean the
// provider did not publish them, which is distinct from zero.
type Food struct {
	FoodID   int64
	Date     time.Time
	Vendor   VendorType
	Name     string
	Calories *int
	Protein  *int
	Carb     *int
	Fat      *int
	Price    *int
}

// Result is the output of one strategy invocation. RawData holds the
// provider payload verbatim for audit; Images maps food ids to absolute
// image URLs. A Result is owned by the collection job that requested it.
type Result struct {
	Foods   []Food
	RawData []byte
	Images  map[int64]string
	Vendor  VendorType
}

// Strategy is the capability contract every fetch source satisfies. An empty
// week is a valid successful result, not an error; errors are reserved for
// transport failures, malformed responses and parsing failures.
type Strategy interface {
	FetchFoodsFor(ctx context.Context, year, week int) (*Result, error)
	Vendor() VendorType
}
