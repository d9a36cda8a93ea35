package core

import (
	"fmt"
	"strings"
)

// maxNameComponent bounds both the kind tag and the interface name.
// Interface names normally come from the OS and are far shorter; the bound
// rejects malformed ones before they reach the registry.
const maxNameComponent = 255

// MakeLinkName derives the globally unique registry name for a link from
// its kind and interface: escapeLabel("<kind>:<iface>"). The result is safe
// for external exposure (object paths, label namespaces) and stable across
// versions. Distinct (kind, iface) pairs never collide because the escape
// is injective.
func MakeLinkName(kind LinkKind, iface string) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidLinkKind, int(kind))
	}
	if iface == "" {
		return "", ErrEmptyInterface
	}
	if len(kind.String()) > maxNameComponent || len(iface) > maxNameComponent {
		return "", fmt.Errorf("%w: %q", ErrNameTooLong, iface)
	}
	return escapeLabel(kind.String() + ":" + iface), nil
}

const hexDigits = "0123456789abcdef"

// escapeLabel escapes a string into a label containing only [A-Za-z0-9_].
// Every byte outside [A-Za-z0-9] becomes "_xx" (lowercase hex); a leading
// digit is escaped too so the label never starts with one. The empty string
// maps to "_". Since '_' itself is always escaped the mapping is injective,
// and it is reversible in principle although nothing here unescapes.
func escapeLabel(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		plain := c >= 'a' && c <= 'z' ||
			c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' && i > 0
		if plain {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0xf])
	}
	return b.String()
}
