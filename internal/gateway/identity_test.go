package gateway

import "testing"

func TestIdentityPresent(t *testing.T) {
	cases := []struct {
		name string
		id   Identity
		want bool
	}{
		{"admin", Identity{UserID: 1, Username: "root", Role: RoleAdmin}, true},
		{"user", Identity{UserID: 2, Username: "alice", Role: RoleUser}, true},
		{"viewer", Identity{UserID: 3, Username: "bob", Role: RoleViewer}, true},
		{"zero value", Identity{}, false},
		{"missing user id", Identity{Role: RoleUser}, false},
		{"unknown role", Identity{UserID: 4, Role: Role("superuser")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.id.Present(); got != tc.want {
				t.Errorf("Present() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIdentityIsAdmin(t *testing.T) {
	if !(Identity{UserID: 1, Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role not recognized")
	}
	if (Identity{UserID: 2, Role: RoleUser}).IsAdmin() {
		t.Error("user role treated as admin")
	}
}
