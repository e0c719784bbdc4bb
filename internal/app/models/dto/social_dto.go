package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// Friend is a friendship resolved to the other profile
type Friend struct {
	ProfileSummary
	FriendshipID string    `json:"friendshipId"`
	Since        time.Time `json:"since"`
}

// FriendRequestView is a request joined with the counterpart's summary.
// Incoming requests carry Sender, sent requests carry Receiver.
type FriendRequestView struct {
	ID        string                     `json:"id"`
	Status    models.FriendRequestStatus `json:"status"`
	CreatedAt time.Time                  `json:"createdAt"`
	Sender    *ProfileSummary            `json:"sender,omitempty"`
	Receiver  *ProfileSummary            `json:"receiver,omitempty"`
}

// DiscoverableUser is a schoolmate ranked by shared interests
type DiscoverableUser struct {
	ProfileSummary
	SharedInterests   []string `json:"sharedInterests"`
	HasPendingRequest bool     `json:"hasPendingRequest"`
}

// SendFriendRequest names the receiver of a new request
type SendFriendRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,uuid"`
}

// InterestRequest names one catalogue tag
type InterestRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// InterestsResponse lists a profile's tags alongside the catalogue
type InterestsResponse struct {
	Interests []string `json:"interests"`
	Catalogue []string `json:"catalogue"`
}
