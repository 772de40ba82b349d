package muteblacklist

import "testing"

func TestShouldMute(t *testing.T) {
	cases := []struct {
		bundleID      string
		total, beamed int
		want          bool
	}{
		{"com.google.Chrome", 3, 1, false},
		{"com.google.Chrome", 1, 1, true},
		{"com.apple.Safari", 5, 1, true},
		{"com.google.Chrome", 0, 0, true},
	}
	for _, c := range cases {
		if got := ShouldMute(c.bundleID, c.total, c.beamed); got != c.want {
			t.Errorf("ShouldMute(%q, %d, %d) = %v, want %v", c.bundleID, c.total, c.beamed, got, c.want)
		}
	}
}

func TestListContains(t *testing.T) {
	l := NewList([]string{"com.acme.App"})
	if !l.Contains("com.acme.App") {
		t.Fatal("expected blacklist to contain seeded bundle ID")
	}
	if l.Contains("com.other.App") {
		t.Fatal("did not expect unseeded bundle ID in blacklist")
	}
}

func TestNilListNeverMutes(t *testing.T) {
	var l *List
	if l.Contains("anything") {
		t.Fatal("nil list should never report containment")
	}
	if !l.ShouldMute("anything", 10, 0) {
		t.Fatal("nil list should always permit muting")
	}
}
