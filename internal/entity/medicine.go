package entity

import "github.com/rxscan/rx-scanner/constants"

// MedicineRecord is one row of the medicine master, read-only to the engine.
type MedicineRecord struct {
	ID             int64                  `json:"id"`
	ProductName    string                 `json:"product_name"`
	IngredientName string                 `json:"ingredient_name"`
	Specification  string                 `json:"specification"`
	Classification string                 `json:"classification"`
	MedicineType   constants.MedicineType `json:"medicine_type"`
	Manufacturer   string                 `json:"manufacturer"`
	Price          float64                `json:"price"`
}

// MasterStats summarizes the medicine master contents.
type MasterStats struct {
	TotalMedicines     int `json:"total_medicines"`
	TotalManufacturers int `json:"total_manufacturers"`
	TotalIngredients   int `json:"total_ingredients"`
	TotalClasses       int `json:"total_classifications"`
}
