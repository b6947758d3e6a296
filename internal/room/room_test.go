package room

import "testing"

func TestID(t *testing.T) {
	tests := []struct {
		name  string
		userA string
		userB string
		want  string
	}{
		{"sorted_pair", "u1", "u2", "u1:u2"},
		{"reversed_pair", "u2", "u1", "u1:u2"},
		{"same_user", "u1", "u1", "u1:u1"},
		{"uuid_like", "b7f9", "a0c3", "a0c3:b7f9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ID(tt.userA, tt.userB)
			if got != tt.want {
				t.Errorf("ID(%q, %q) = %q, want %q", tt.userA, tt.userB, got, tt.want)
			}
		})
	}
}

func TestID_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"zed", "alpha"},
		{"a:b", "c"},
		{"50%", "100%"},
	}

	for _, p := range pairs {
		if ID(p[0], p[1]) != ID(p[1], p[0]) {
			t.Errorf("ID(%q, %q) != ID(%q, %q)", p[0], p[1], p[1], p[0])
		}
	}
}

// Identities containing the separator must not collide with a different
// pair whose concatenation happens to read the same.
func TestID_SeparatorSafe(t *testing.T) {
	tests := []struct {
		name  string
		pairA [2]string
		pairB [2]string
	}{
		{"shifted_separator", [2]string{"a:b", "c"}, [2]string{"a", "b:c"}},
		{"embedded_full_id", [2]string{"a:b:c", "d"}, [2]string{"a", "b:c:d"}},
		{"escape_char_in_id", [2]string{"a%3Ab", "c"}, [2]string{"a:b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idA := ID(tt.pairA[0], tt.pairA[1])
			idB := ID(tt.pairB[0], tt.pairB[1])
			if idA == idB {
				t.Errorf("distinct pairs %v and %v collided on %q", tt.pairA, tt.pairB, idA)
			}
		})
	}
}
