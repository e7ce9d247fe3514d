package services

import "sync"

// BookingLocks serializes work per booking inside this process. Different
// bookings never wait on each other. The database row lock still guards
// against other processes.
type BookingLocks struct {
	mu    sync.Mutex
	locks map[int64]*bookingLock
}

type bookingLock struct {
	mu   sync.Mutex
	refs int
}

func NewBookingLocks() *BookingLocks {
	return &BookingLocks{locks: map[int64]*bookingLock{}}
}

// Lock blocks until the booking is free and returns the unlock func.
func (l *BookingLocks) Lock(bookingID int64) func() {
	if l == nil {
		return func() {}
	}
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[int64]*bookingLock{}
	}
	bl, ok := l.locks[bookingID]
	if !ok {
		bl = &bookingLock{}
		l.locks[bookingID] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.mu.Lock()
	return func() {
		bl.mu.Unlock()
		l.mu.Lock()
		bl.refs--
		if bl.refs == 0 {
			delete(l.locks, bookingID)
		}
		l.mu.Unlock()
	}
}

// size is the number of bookings currently locked or waited on.
func (l *BookingLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
