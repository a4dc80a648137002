package workflow

// Role is the function an actor holds on a project
type Role string

const (
	RoleNone             Role = ""
	RoleEmployee         Role = "employee"
	RoleSiteSupervisor   Role = "site_supervisor"
	RoleLogisticsManager Role = "logistics_manager"
	RoleWorksManager     Role = "works_manager"
	RoleProjectManager   Role = "project_manager"
	RoleSupply           Role = "supply"
	RoleLogistics        Role = "logistics"
	RoleCarrier          Role = "carrier"
	RoleAdmin            Role = "admin"
)

var validRoles = map[Role]bool{
	RoleEmployee:         true,
	RoleSiteSupervisor:   true,
	RoleLogisticsManager: true,
	RoleWorksManager:     true,
	RoleProjectManager:   true,
	RoleSupply:           true,
	RoleLogistics:        true,
	RoleCarrier:          true,
	RoleAdmin:            true,
}

// masterDataEditors may change article name and reference while validating
var masterDataEditors = map[Role]bool{
	RoleSiteSupervisor: true,
	RoleWorksManager:   true,
	RoleProjectManager: true,
	RoleAdmin:          true,
}

// pricingRoles may write issued quantities and unit prices
var pricingRoles = map[Role]bool{
	RoleSupply:    true,
	RoleLogistics: true,
	RoleAdmin:     true,
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsOverride reports whether the role is the privileged override actor
func (r Role) IsOverride() bool {
	return r == RoleAdmin
}

// CanEditMasterData reports whether the role may edit article name and reference
func (r Role) CanEditMasterData() bool {
	return masterDataEditors[r]
}

// CanPrice reports whether the role may update issued quantities and prices
func (r Role) CanPrice() bool {
	return pricingRoles[r]
}

// AllRoles returns every known role in a stable order
func AllRoles() []Role {
	return []Role{
		RoleEmployee,
		RoleSiteSupervisor,
		RoleLogisticsManager,
		RoleWorksManager,
		RoleProjectManager,
		RoleSupply,
		RoleLogistics,
		RoleCarrier,
		RoleAdmin,
	}
}

// Category selects which flow a request follows
type Category string

const (
	CategoryMaterial Category = "material"
	CategoryTooling  Category = "tooling"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// IsValid returns true for the two supported categories
func (c Category) IsValid() bool {
	return c == CategoryMaterial || c == CategoryTooling
}
