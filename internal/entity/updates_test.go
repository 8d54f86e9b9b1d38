package entity

import "testing"

func TestUserUpdatesToMap(t *testing.T) {
	if !(UserUpdates{}).IsEmpty() {
		t.Fatal("expected empty updates")
	}

	email := "new@example.com"
	hash := "hash"
	updates := UserUpdates{Email: &email, PasswordHash: &hash}
	m := updates.ToMap()
	if len(m) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(m))
	}
	if m["email"] != email || m["password_hash"] != hash {
		t.Fatalf("unexpected map %v", m)
	}
	if _, ok := m["name"]; ok {
		t.Fatal("name must not be set")
	}
}
