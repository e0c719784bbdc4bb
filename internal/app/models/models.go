package models

// MembershipKind selects which entity/edge table pair a membership operation targets.
type MembershipKind string

const (
	MembershipCommunity MembershipKind = "community"
	MembershipGroup     MembershipKind = "group"
)

// Valid reports whether k names a known membership table pair.
func (k MembershipKind) Valid() bool {
	return k == MembershipCommunity || k == MembershipGroup
}

// FriendRequestStatus is the lifecycle state of a friend request
type FriendRequestStatus string

const (
	RequestPending  FriendRequestStatus = "pending"
	RequestAccepted FriendRequestStatus = "accepted"
	RequestRejected FriendRequestStatus = "rejected"
)

// VoteDirection is the value stored in the vote ledger
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is up or down.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// RatingTargetTeacher is the only rating target this service writes.
const RatingTargetTeacher = "teacher"

// Relations published on the realtime channel.
const (
	RelationNotifications = "notifications"
	RelationMessages      = "messages"
)
