package core

// LinkKind identifies what backs a managed link: nothing at all (virtual,
// used for loopback and testing) or a real wireless interface attached to
// the local discovery daemon.
type LinkKind int

const (
	KindVirtual LinkKind = iota
	KindWifi
)

var linkKindNames = map[LinkKind]string{
	KindVirtual: "virtual",
	KindWifi:    "wifi",
}

func (k LinkKind) valid() bool {
	_, ok := linkKindNames[k]
	return ok
}

// String returns the stable textual tag for a kind, or "" for an
// unrecognized value. The tag is part of every link's registry name, so it
// must never change for existing kinds.
func (k LinkKind) String() string {
	return linkKindNames[k]
}

// KindFromString parses a kind tag produced by String. The second return
// value reports whether the tag was recognized.
func KindFromString(s string) (LinkKind, bool) {
	for k, name := range linkKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}
