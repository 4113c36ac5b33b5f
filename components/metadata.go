package components

// String returns the display name for a Kind.
func (k Kind) String() string {
	names := KindNames()
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// KindNames returns the config names of all kinds.
// The order matches the Kind constants.
func KindNames() []string {
	return []string{"rigid", "skeletal", "fragment", "mesh"}
}

// ParseKind maps a config name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range KindNames() {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}
