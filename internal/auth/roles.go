// Package auth resolves bearer tokens into identities and gates
// operations by role.
package auth

import "rentease/pkg/model"

// Operation names a capability-gated action.
type Operation string

const (
	OpManageUsers     Operation = "users:manage"
	OpVerifyUserID    Operation = "users:verify-id"
	OpManageListings  Operation = "listings:manage"
	OpCreateBooking   Operation = "bookings:create"
	OpDecideBooking   Operation = "bookings:decide"
	OpDeleteBooking   Operation = "bookings:delete"
	OpReadLedger      Operation = "ledger:read"
	OpWriteLedger     Operation = "ledger:write"
	OpExportLedger    Operation = "ledger:export"
	OpViewAdminStats  Operation = "stats:view"
	OpManageRevenue   Operation = "revenue:view"
)

// capabilities maps each role to the operations it may perform. Rentors
// (guests) can create bookings and act on their own resources; per-resource
// ownership checks live in the services.
var capabilities = map[string]map[Operation]bool{
	model.RoleAdmin: {
		OpManageUsers:    true,
		OpVerifyUserID:   true,
		OpManageListings: true,
		OpCreateBooking:  true,
		OpDecideBooking:  true,
		OpDeleteBooking:  true,
		OpReadLedger:     true,
		OpWriteLedger:    true,
		OpExportLedger:   true,
		OpViewAdminStats: true,
		OpManageRevenue:  true,
	},
	model.RoleStaff: {
		OpManageListings: true,
		OpCreateBooking:  true,
		OpDecideBooking:  true,
		OpDeleteBooking:  true,
		OpReadLedger:     true,
		OpWriteLedger:    true,
		OpViewAdminStats: true,
		OpManageRevenue:  true,
	},
	model.RoleRentor: {
		OpCreateBooking: true,
	},
}

// Can reports whether a role may perform an operation.
func Can(role string, op Operation) bool {
	ops, ok := capabilities[role]
	if !ok {
		return false
	}
	return ops[op]
}

// IsStaffOrAdmin reports whether the role carries back-office privileges.
func IsStaffOrAdmin(role string) bool {
	return role == model.RoleAdmin || role == model.RoleStaff
}
