package vendors

// Vendor couples a vendor's display metadata with its fetch strategy and
// operator-provided settings.
type Vendor struct {
	Type     VendorType
	Name     string
	MenuURL  string
	Strategy Strategy
	Settings Settings
}

// Registry is the process-wide vendor catalog. It is built once at startup
// and never mutated afterwards, so concurrent reads need no locking.
type Registry struct {
	vendors map[VendorType]Vendor
	order   []VendorType
}

func NewRegistry(entries ...Vendor) *Registry {
	registry := &Registry{vendors: make(map[VendorType]Vendor, len(entries))}

	for _, entry := range entries {
		if _, exists := registry.vendors[entry.Type]; exists {
			continue
		}
		registry.vendors[entry.Type] = entry
		registry.order = append(registry.order, entry.Type)
	}

	return registry
}

func (r *Registry) Get(vendorType VendorType) (Vendor, bool) {
	vendor, ok := r.vendors[vendorType]
	return vendor, ok
}

// All returns every registered vendor in registration order, so collection
// runs iterate vendors deterministically.
func (r *Registry) All() []Vendor {
	all := make([]Vendor, 0, len(r.order))
	for _, vendorType := range r.order {
		all = append(all, r.vendors[vendorType])
	}
	return all
}

// Enabled returns the registered vendors whose settings enable collection
func (r *Registry) Enabled() []Vendor {
	var enabled []Vendor
	for _, vendor := range r.All() {
		if vendor.Settings.Enabled {
			enabled = append(enabled, vendor)
		}
	}
	return enabled
}
