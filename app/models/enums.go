package models

// PunchType defines the direction of an attendance punch.
type PunchType string

const (
	PunchIn  PunchType = "in"
	PunchOut PunchType = "out"
)

// Valid reports whether the punch type is one of the known values.
func (t PunchType) Valid() bool {
	return t == PunchIn || t == PunchOut
}

// Role defines the possible roles for a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)
