package types

import "fmt"

// AccessContext is the visibility scope under which members are offered
type AccessContext uint8

const (
	AccessPublic AccessContext = iota
	AccessPrivate
	AccessStatic
)

// String returns the lower-case context name used in logs and JSON output
func (a AccessContext) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessStatic:
		return "static"
	default:
		return "public"
	}
}

// MarshalText implements encoding.TextMarshaler
func (a AccessContext) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AccessContext) UnmarshalText(text []byte) error {
	switch string(text) {
	case "public":
		*a = AccessPublic
	case "private":
		*a = AccessPrivate
	case "static":
		*a = AccessStatic
	default:
		return fmt.Errorf("unknown access context %q", text)
	}
	return nil
}

// ResolvedClass is the class an access operator was resolved to, together
// with the context its members should be filtered by.
type ResolvedClass struct {
	Name          string        `json:"name"`
	AccessContext AccessContext `json:"access_context"`
}

// IsZero reports whether no class is held
func (r ResolvedClass) IsZero() bool {
	return r.Name == ""
}
