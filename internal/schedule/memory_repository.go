package schedule

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryRepository serializes every call behind one mutex. Book holds it
// across the capacity check and the insert.
type memoryRepository struct {
	mu       sync.Mutex
	classes  map[string]*Class
	bookings map[string]*Booking
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		classes:  make(map[string]*Class),
		bookings: make(map[string]*Booking),
	}
}

func (r *memoryRepository) confirmedLocked(classID string) int {
	n := 0
	for _, b := range r.bookings {
		if b.ClassID == classID && b.Status == BookingConfirmed {
			n++
		}
	}
	return n
}

func (r *memoryRepository) classLocked(id string) (*Class, error) {
	stored, ok := r.classes[id]
	if !ok || stored.DeletedAt != nil {
		return nil, ErrClassNotFound
	}
	c := *stored
	c.ConfirmedCount = r.confirmedLocked(id)
	return &c, nil
}

func (r *memoryRepository) withClassLocked(b *Booking) BookingWithClass {
	c := r.classes[b.ClassID]
	return BookingWithClass{
		Booking:        *b,
		ClassName:      c.Name,
		ClassDate:      c.Date,
		ClassStartTime: c.StartTime,
	}
}

func (r *memoryRepository) CreateClass(_ context.Context, c *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *c
	r.classes[c.ID] = &stored
	return nil
}

func (r *memoryRepository) GetClass(_ context.Context, id string) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classLocked(id)
}

func (r *memoryRepository) ListClasses(_ context.Context, gymID string, includeInactive bool) ([]Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Class{}
	for id, c := range r.classes {
		if c.GymID != gymID || c.DeletedAt != nil || (!includeInactive && !c.IsActive) {
			continue
		}
		cp := *c
		cp.ConfirmedCount = r.confirmedLocked(id)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt().Before(out[j].StartsAt())
	})
	return out, nil
}

func (r *memoryRepository) UpdateClass(_ context.Context, id string, fn func(c *Class) error) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.classLocked(id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	stored := *c
	r.classes[id] = &stored
	return c, nil
}

func (r *memoryRepository) DeleteClass(_ context.Context, id string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[id]
	if !ok || c.DeletedAt != nil {
		return 0, ErrClassNotFound
	}
	deletedAt := at
	c.DeletedAt = &deletedAt
	c.UpdatedAt = at

	cancelled := 0
	for _, b := range r.bookings {
		if b.ClassID == id && b.Status == BookingConfirmed {
			cancelledAt := at
			b.Status = BookingCancelled
			b.CancelledAt = &cancelledAt
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *memoryRepository) Book(_ context.Context, b *Booking, admit func(c *Class) error) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.classLocked(b.ClassID)
	if err != nil {
		return nil, err
	}
	if err := admit(c); err != nil {
		return nil, err
	}

	for _, existing := range r.bookings {
		if existing.ClassID == b.ClassID && existing.UserID == b.UserID && existing.Status == BookingConfirmed {
			return nil, ErrDuplicateBooking
		}
	}
	if c.ConfirmedCount >= c.Capacity {
		return nil, ErrClassFull
	}

	stored := *b
	r.bookings[b.ID] = &stored
	c.ConfirmedCount++
	return c, nil
}

func (r *memoryRepository) GetBooking(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryRepository) CancelBooking(_ context.Context, id string, at time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	next, err := b.Status.Cancel()
	if err != nil {
		return nil, err
	}

	cancelledAt := at
	b.Status = next
	b.CancelledAt = &cancelledAt
	cp := *b
	return &cp, nil
}

func (r *memoryRepository) ListBookingsByUser(_ context.Context, userID string) ([]BookingWithClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []BookingWithClass{}
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, r.withClassLocked(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClassDate.After(out[j].ClassDate.Time) ||
			(out[i].ClassDate.Equal(out[j].ClassDate.Time) && out[i].ClassStartTime > out[j].ClassStartTime)
	})
	return out, nil
}

func (r *memoryRepository) ListBookingsByClass(_ context.Context, classID string) ([]BookingWithClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []BookingWithClass{}
	for _, b := range r.bookings {
		if b.ClassID == classID {
			out = append(out, r.withClassLocked(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) BookingStatsByDay(_ context.Context, gymID string, from, to time.Time) ([]DailyBookingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := make(map[string]*DailyBookingStats)
	for _, b := range r.bookings {
		if b.GymID != gymID || b.CreatedAt.Before(from) || !b.CreatedAt.Before(to) {
			continue
		}
		day := b.CreatedAt.UTC().Format(dateLayout)
		s, ok := byDay[day]
		if !ok {
			s = &DailyBookingStats{Day: day}
			byDay[day] = s
		}
		s.Created++
		if b.Status == BookingCancelled {
			s.Cancelled++
		}
	}

	out := make([]DailyBookingStats, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
