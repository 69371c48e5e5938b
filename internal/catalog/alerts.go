package catalog

// AlertType classifies inventory alerts.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
)

// InventoryAlert flags a product at or below its restock threshold.
type InventoryAlert struct {
	Product Product   `json:"product"`
	Type    AlertType `json:"type"`
}

// Alerts derives inventory alerts from a product set. Out-of-stock wins over
// low-stock for the same product.
func Alerts(products []Product) []InventoryAlert {
	var alerts []InventoryAlert
	for _, p := range products {
		switch {
		case p.Stock <= 0:
			alerts = append(alerts, InventoryAlert{Product: p, Type: AlertOutOfStock})
		case p.Stock <= p.MinStock:
			alerts = append(alerts, InventoryAlert{Product: p, Type: AlertLowStock})
		}
	}
	return alerts
}
