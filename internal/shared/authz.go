package shared

// Warehouse permissions.
const (
	PermInventoryView = "inventory.view"
	PermInventoryEdit = "inventory.edit"

	PermProductsView = "products.view"
	PermProductsEdit = "products.edit"

	PermLocationsView     = "locations.view"
	PermLocationsGenerate = "locations.generate"
)

// WarehouseScopes lists every permission known to the application.
func WarehouseScopes() []string {
	return []string{
		PermInventoryView,
		PermInventoryEdit,
		PermProductsView,
		PermProductsEdit,
		PermLocationsView,
		PermLocationsGenerate,
	}
}
