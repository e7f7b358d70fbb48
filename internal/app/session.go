package app

import (
	"sync"

	"hotel_scout/internal/adapters/observability"
	"hotel_scout/internal/domain"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingCity
	stateAwaitingCitySelection
	stateAwaitingCheckIn
	stateAwaitingCheckOut
	stateAwaitingRoomCount
	stateAwaitingAdults
	stateAwaitingChildCount
	stateAwaitingChildAge
	stateAwaitingResultCount
	stateAwaitingPhotoCount
	stateAwaitingCommand
	stateAwaitingPriceMin
	stateAwaitingPriceMax
	stateAwaitingDistanceMin
	stateAwaitingDistanceMax
)

type roomDraft struct {
	adults    int
	childAges []int
}

// session is the working parameter set for one chat: destination candidates,
// raw dates, occupancy under construction and BEST_DEAL bounds. It is owned by
// exactly one chat id and discarded on completion, abort or restart.
type session struct {
	chatID int64
	state  sessionState

	candidates []domain.Destination

	checkIn domain.Day

	rooms         []roomDraft
	curRoom       int
	curChild      int
	totalChildren int

	price    domain.Range
	distance domain.Range

	// repeat path: the pending search was derived from a prior one
	again bool
}

func (s *session) resetCollection() {
	s.candidates = nil
	s.checkIn = domain.Day{}
	s.rooms = nil
	s.curRoom = 0
	s.curChild = 0
	s.totalChildren = 0
	s.price = domain.Range{}
	s.distance = domain.Range{}
	s.again = false
}

// totalOccupants counts adults plus children across the drafts so far.
func (s *session) totalOccupants() int {
	total := 0
	for _, r := range s.rooms {
		total += r.adults + len(r.childAges)
	}
	return total
}

// sessionRegistry keys working parameter sets by chat id. Each chat owns its
// own entry, so one user's in-progress collection cannot clobber another's.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[int64]*session)}
}

func (r *sessionRegistry) get(chatID int64) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		s = &session{chatID: chatID, state: stateIdle}
		r.sessions[chatID] = s
		observability.ActiveSessions.Inc()
	}
	return s
}

func (r *sessionRegistry) drop(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[chatID]; ok {
		delete(r.sessions, chatID)
		observability.ActiveSessions.Dec()
	}
}
