package placement

import "testing"

func TestPositionTable(t *testing.T) {
	want := map[[2]int]int{
		{1, 1}: 3, {1, 2}: 6, {1, 3}: 9, {1, 4}: 12,
		{2, 1}: 15, {2, 2}: 18, {2, 3}: 21, {2, 4}: 24,
		{3, 1}: 27, {3, 2}: 30, {3, 3}: 33, {3, 4}: 36,
	}
	seen := make(map[int]bool)
	for coord, pos := range want {
		got := Position(coord[0], coord[1])
		if got != pos {
			t.Errorf("Position(%d,%d) = %d, want %d", coord[0], coord[1], got, pos)
		}
		if seen[got] {
			t.Errorf("position %d mapped by more than one coordinate", got)
		}
		seen[got] = true
	}
	if len(seen) != 12 {
		t.Errorf("expected 12 distinct positions, got %d", len(seen))
	}
}

func TestPositionDeterminism(t *testing.T) {
	if Position(2, 3) != Position(2, 3) {
		t.Error("Position must be pure")
	}
}

func TestPositionPanicsOutOfRange(t *testing.T) {
	cases := [][2]int{{0, 1}, {4, 1}, {1, 0}, {1, 5}, {-1, 2}}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Position(%d,%d) should panic", c[0], c[1])
				}
			}()
			Position(c[0], c[1])
		}()
	}
}
