package core

import (
	"github.com/dkeye/Relay/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// Merge folds another result into r.
func (r *PublishResult) Merge(o PublishResult) {
	r.SendTo += o.SendTo
	r.Dropped = append(r.Dropped, o.Dropped...)
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Members() []SessionID
	Has(sid SessionID) bool

	// AddMember reports whether sid was newly added.
	AddMember(sid SessionID, conn SignalConnection) bool
	// RemoveMember reports whether sid was a member.
	RemoveMember(sid SessionID) bool
	// Broadcast delivers to every member except exclude (empty for none).
	Broadcast(exclude SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID   `json:"id"`
	Kind        domain.RoomKind `json:"kind"`
	MemberCount int             `json:"member_count"`
}

// RoomManager owns every room's membership and the broadcast primitives.
// Rooms exist only while they have members.
type RoomManager interface {
	// Join reports whether sid was newly added.
	Join(roomID domain.RoomID, sid SessionID) (bool, error)
	Leave(roomID domain.RoomID, sid SessionID) bool
	// LeaveAll drops sid from every room and returns the rooms it left.
	LeaveAll(sid SessionID) []domain.RoomID

	BroadcastToRoom(roomID domain.RoomID, data Frame, exclude SessionID) PublishResult
	BroadcastToUser(userID domain.UserID, data Frame) PublishResult

	List() []RoomInfo
	Members(roomID domain.RoomID) []SessionID
	RoomsOf(sid SessionID) []domain.RoomID
}
