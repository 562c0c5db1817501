package models

import "time"

// FamilyConnection is a directed edge: UserID can see FamilyMemberID's data.
type FamilyConnection struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"userId"`
	FamilyMemberID int64  `json:"familyMemberId"`
	Relationship   string `json:"relationship"`
}

// FamilyMember is a user as seen through one of the caller's connections.
// It is derived on read and never stored.
type FamilyMember struct {
	User
	Relationship string    `json:"relationship"`
	LastSeen     time.Time `json:"lastSeen"`
}

// FamilyCheckIn pairs a family member with their most recent check-in
type FamilyCheckIn struct {
	MemberID     int64     `json:"memberId"`
	MemberName   string    `json:"memberName"`
	Relationship string    `json:"relationship"`
	CheckIn      CheckIn   `json:"checkin"`
	LastSeen     time.Time `json:"lastSeen"`
}
