package models

import "time"

// FriendRequest is a directed edge awaiting a decision by the receiver.
type FriendRequest struct {
	ID         string              `json:"id" db:"id"`
	SenderID   string              `json:"senderId" db:"sender_id"`
	ReceiverID string              `json:"receiverId" db:"receiver_id"`
	Status     FriendRequestStatus `json:"status" db:"status"`
	CreatedAt  time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time           `json:"updatedAt" db:"updated_at"`
}

// Friendship is an undirected edge stored with ProfileID1 < ProfileID2.
type Friendship struct {
	ID         string    `json:"id" db:"id"`
	ProfileID1 string    `json:"profileId1" db:"profile_id_1"`
	ProfileID2 string    `json:"profileId2" db:"profile_id_2"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Other returns the endpoint of f that is not profileID.
func (f *Friendship) Other(profileID string) string {
	if f.ProfileID1 == profileID {
		return f.ProfileID2
	}
	return f.ProfileID1
}

// CanonicalPair orders two profile ids so the lexicographically smaller one is first.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
