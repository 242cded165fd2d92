package catalog

// Product is one catalog entry. Sample products ship with the app and
// have no OwnerEmail; farmer-authored products carry the email of the
// farmer who created them and are the only part of the catalog that is
// ever persisted.
// JSON tags follow the storefront's camelCase field names.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FarmName    string  `json:"farmer"`
	OwnerEmail  string  `json:"ownerEmail,omitempty"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description,omitempty"`
	// Stock is optional; products without stock tracking leave it nil.
	Stock *int `json:"stock,omitempty"`
	// Orders and Sales accumulate as farmer orders reach delivered.
	Orders int `json:"orders"`
	Sales  int `json:"sales"`
}

// AllowedUnits contains the supported sale units.
var AllowedUnits = []string{"lb", "kg", "piece", "dozen", "bunch", "head", "box"}

// AllowedCategories contains the supported product categories used across the app.
var AllowedCategories = []string{
	"Vegetables",
	"Fruits",
	"Grains",
	"Dairy",
	"Herbs",
	"Nuts",
	"Other",
}

// SampleProducts returns the built-in catalog in declaration order.
// These are not editable or deletable and occupy ids 1..6.
func SampleProducts() []Product {
	return []Product{
		{ID: 1, Name: "Organic Tomatoes", FarmName: "Green Valley Farm", Location: "California", Price: 3.99, Unit: "lb", Category: "Vegetables", Image: "https://images.unsplash.com/photo-1546094096-0df4bcaaa337?w=400&h=300&fit=crop"},
		{ID: 2, Name: "Fresh Carrots", FarmName: "Sunrise Acres", Location: "Oregon", Price: 2.49, Unit: "lb", Category: "Vegetables", Image: "https://images.unsplash.com/photo-1598170845058-32b9d6a5da37?w=400&h=300&fit=crop"},
		{ID: 3, Name: "Sweet Corn", FarmName: "Harvest Hills", Location: "Iowa", Price: 4.99, Unit: "dozen", Category: "Vegetables", Image: "https://images.unsplash.com/photo-1551754655-cd27e38d2076?w=400&h=300&fit=crop"},
		{ID: 4, Name: "Red Apples", FarmName: "Orchard Estate", Location: "Washington", Price: 5.99, Unit: "lb", Category: "Fruits", Image: "https://images.unsplash.com/photo-1560806887-1e4cd0b6cbd6?w=400&h=300&fit=crop"},
		{ID: 5, Name: "Fresh Lettuce", FarmName: "Green Leaf Co", Location: "Arizona", Price: 2.99, Unit: "head", Category: "Vegetables", Image: "https://images.unsplash.com/photo-1622206151226-18ca2c9ab4a1?w=400&h=300&fit=crop"},
		{ID: 6, Name: "Bell Peppers", FarmName: "Sunny Fields", Location: "Florida", Price: 3.49, Unit: "lb", Category: "Vegetables", Image: "https://images.unsplash.com/photo-1563565375-f3fdfdbefa83?w=400&h=300&fit=crop"},
	}
}

const maxSampleID = 6
