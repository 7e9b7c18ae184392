package types

// MemberKind distinguishes the callable members of a class
type MemberKind uint8

const (
	MemberMethod MemberKind = iota
	MemberProperty
	MemberConstant
)

// String returns the member kind name
func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberConstant:
		return "constant"
	default:
		return "method"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k MemberKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MemberInfo describes one member found in a class source file.
// Parameters hold bare names only (no type hints, defaults or sigils).
type MemberInfo struct {
	Name       string     `json:"name"`
	Kind       MemberKind `json:"kind"`
	Parameters []string   `json:"parameters"`
}

// MemberSet maps member name to its info; later definitions replace earlier ones
type MemberSet map[string]MemberInfo
