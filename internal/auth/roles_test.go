package auth

import (
	"testing"

	"rentease/pkg/model"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		op       Operation
		expected bool
	}{
		{"admin verifies IDs", model.RoleAdmin, OpVerifyUserID, true},
		{"admin decides bookings", model.RoleAdmin, OpDecideBooking, true},
		{"admin exports ledger", model.RoleAdmin, OpExportLedger, true},
		{"staff decides bookings", model.RoleStaff, OpDecideBooking, true},
		{"staff cannot verify IDs", model.RoleStaff, OpVerifyUserID, false},
		{"staff cannot manage users", model.RoleStaff, OpManageUsers, false},
		{"staff cannot export ledger", model.RoleStaff, OpExportLedger, false},
		{"rentor creates bookings", model.RoleRentor, OpCreateBooking, true},
		{"rentor cannot decide bookings", model.RoleRentor, OpDecideBooking, false},
		{"rentor cannot read ledger", model.RoleRentor, OpReadLedger, false},
		{"unknown role has nothing", "ghost", OpCreateBooking, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.role, tt.op); got != tt.expected {
				t.Errorf("Can(%q, %q) = %v, want %v", tt.role, tt.op, got, tt.expected)
			}
		})
	}
}

func TestIsStaffOrAdmin(t *testing.T) {
	if !IsStaffOrAdmin(model.RoleAdmin) || !IsStaffOrAdmin(model.RoleStaff) {
		t.Error("expected admin and staff to be back-office roles")
	}
	if IsStaffOrAdmin(model.RoleRentor) {
		t.Error("expected rentor not to be a back-office role")
	}
}
