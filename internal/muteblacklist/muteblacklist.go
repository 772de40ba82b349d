// Package muteblacklist implements the per-application audio mute policy
// described in spec §4.7.1: some applications run a single audio process
// shared by every window of that bundle, so muting the captured window
// would silence sibling windows that are not being beamed.
package muteblacklist

// DefaultBundleIDs is the configuration default from §6.6: bundle
// identifiers known to multiplex audio across all windows of the same
// application, so muting one beamed window would also mute unrelated
// windows of the same app. Operators can extend this set via config.
var DefaultBundleIDs = []string{
	"com.google.Chrome",
}

// List is a set of bundle identifiers subject to the mute blacklist rule.
// The zero value is an empty blacklist; use NewList or NewDefaultList to
// populate one.
type List struct {
	ids map[string]struct{}
}

// NewList builds a List from an explicit set of bundle identifiers.
func NewList(bundleIDs []string) *List {
	l := &List{ids: make(map[string]struct{}, len(bundleIDs))}
	for _, id := range bundleIDs {
		l.ids[id] = struct{}{}
	}
	return l
}

// NewDefaultList builds a List seeded with DefaultBundleIDs.
func NewDefaultList() *List {
	return NewList(DefaultBundleIDs)
}

// Contains reports whether bundleID is in the blacklist.
func (l *List) Contains(bundleID string) bool {
	if l == nil {
		return false
	}
	_, ok := l.ids[bundleID]
	return ok
}

// ShouldMute implements spec §4.7.1's rule: mute is suppressed (returns
// false) iff bundleID is on the blacklist AND there exist windows of that
// app beyond the ones currently being beamed. In every other case — the app
// isn't on the blacklist, or every window of it is already beamed — the
// capture is free to mute locally.
func (l *List) ShouldMute(bundleID string, totalWindows, beamedWindows int) bool {
	if l.Contains(bundleID) && totalWindows > beamedWindows {
		return false
	}
	return true
}

// ShouldMute is the package-level convenience form using NewDefaultList's
// blacklist, for callers that don't need a custom list.
func ShouldMute(bundleID string, totalWindows, beamedWindows int) bool {
	return defaultList.ShouldMute(bundleID, totalWindows, beamedWindows)
}

var defaultList = NewDefaultList()
