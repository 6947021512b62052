package domain

import "fmt"

// Role is the closed set of principal kinds.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// ParseRole accepts only known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleEmployee:
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// CanReviewPayments reports whether the role may verify and submit payments.
func (r Role) CanReviewPayments() bool {
	switch r {
	case RoleEmployee:
		return true
	case RoleCustomer:
		return false
	default:
		return false
	}
}

// CanSubmitPayments reports whether the role may create payments.
func (r Role) CanSubmitPayments() bool {
	switch r {
	case RoleCustomer:
		return true
	case RoleEmployee:
		return false
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
