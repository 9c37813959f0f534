package domain

import "time"

// User is the identity recorded on every start trigger.
type User struct {
	ID        int64
	Username  string
	FirstName string
	Language  string
}

// DisplayName prefers the first name and falls back to the username.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Profile aggregates identity data with membership and interest statistics.
type Profile struct {
	User          User
	RegisteredAt  time.Time
	LastActive    time.Time
	GroupCount    int
	InterestCount int
}

// MembershipResult reports whether RecordMembership created a new relation.
type MembershipResult int

const (
	MembershipJoined MembershipResult = iota + 1
	MembershipAlreadyMember
)
