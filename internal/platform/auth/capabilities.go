package auth

// Capability names a back-office operation gated by role.
type Capability string

const (
	CapOrdersList   Capability = "orders.list"
	CapOrdersDetail Capability = "orders.detail"
	CapOrdersUpdate Capability = "orders.update"
	CapOrdersRefund Capability = "orders.refund"
	CapOrdersDelete Capability = "orders.delete"
	CapOrdersExport Capability = "orders.export"
)

// capabilityRoles maps each capability to the roles permitted to use it. Admin is implied.
var capabilityRoles = map[Capability][]string{
	CapOrdersList:   {RoleOps, RoleSupport},
	CapOrdersDetail: {RoleOps, RoleSupport},
	CapOrdersUpdate: {RoleOps},
	CapOrdersRefund: {RoleSupport},
	CapOrdersDelete: {},
	CapOrdersExport: {RoleOps},
}

// HasCapability reports whether the provided roles grant the capability.
// Admin users implicitly hold every capability; unknown capabilities are denied.
func HasCapability(roles []string, capability Capability) bool {
	allowed, known := capabilityRoles[capability]
	if !known {
		return false
	}
	for _, role := range roles {
		role = normaliseRole(role)
		if role == RoleAdmin {
			return true
		}
		for _, candidate := range allowed {
			if role == candidate {
				return true
			}
		}
	}
	return false
}

// Can reports whether the identity holds the capability.
func (i *Identity) Can(capability Capability) bool {
	if i == nil {
		return false
	}
	return HasCapability(i.Roles, capability)
}
