package rbac

import "github.com/stockgrid/stockgrid/internal/shared"

// Role groups permissions granted together.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Permission represents an atomic capability.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Built-in roles.
var (
	RoleAdmin = Role{
		Name:        "admin",
		Description: "Full warehouse access",
		Permissions: shared.WarehouseScopes(),
	}
	RoleViewer = Role{
		Name:        "viewer",
		Description: "Read-only access to stock and locations",
		Permissions: []string{shared.PermInventoryView, shared.PermProductsView, shared.PermLocationsView},
	}
)

var permissionDescriptions = map[string]string{
	shared.PermInventoryView:     "View assignments and history",
	shared.PermInventoryEdit:     "Assign, adjust, remove and transfer stock",
	shared.PermProductsView:      "Browse the product catalog",
	shared.PermProductsEdit:      "Register products",
	shared.PermLocationsView:     "Browse locations and the warehouse map",
	shared.PermLocationsGenerate: "Generate the location registry",
}
