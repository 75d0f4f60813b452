package auth

import (
	"database/sql/driver"
	"fmt"
)

// Role is the closed set of account types. The zero value is invalid so an
// unset role never passes an authorization check.
type Role uint8

const (
	RoleFarmer Role = iota + 1
	RoleBuyer
)

// ParseRole converts the wire form ("farmer", "buyer") into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "farmer":
		return RoleFarmer, nil
	case "buyer":
		return RoleBuyer, nil
	default:
		return 0, fmt.Errorf("auth: unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleFarmer:
		return "farmer"
	case RoleBuyer:
		return "buyer"
	default:
		return ""
	}
}

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("auth: invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role as its wire string.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("auth: invalid role %d", r)
	}
	return r.String(), nil
}

func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("auth: cannot scan %T into Role", src)
	}
}
