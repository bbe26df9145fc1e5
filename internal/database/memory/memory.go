// Package memory is an in-process implementation of the repository
// interfaces, used by tests and by the "memory" database driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
)

type state struct {
	tickets  map[string]entity.Ticket
	bookings map[string]entity.Booking
	payments map[string]entity.Payment // keyed by transaction id
	users    map[string]entity.User    // keyed by email
	vendors  map[string]entity.Vendor
}

func newState() *state {
	return &state{
		tickets:  make(map[string]entity.Ticket),
		bookings: make(map[string]entity.Booking),
		payments: make(map[string]entity.Payment),
		users:    make(map[string]entity.User),
		vendors:  make(map[string]entity.Vendor),
	}
}

// Store keeps all data in maps. Transactions are serialised: WithinTx holds
// txMu for its whole duration. Repositories handed to a transaction record
// the previous value of every row they touch, and a failed transaction puts
// back only those rows. Writes made outside WithinTx are not isolated from a
// running transaction, but a rollback never discards them unless they hit a
// row the transaction itself changed.
type Store struct {
	txMu sync.Mutex

	mu   sync.RWMutex
	data *state

	repos *repository.Repositories
}

func NewStore() *Store {
	s := &Store{data: newState()}
	s.repos = s.repositories(nil)
	return s
}

var _ repository.Store = (*Store)(nil)

func (s *Store) repositories(undo *undoLog) *repository.Repositories {
	return &repository.Repositories{
		Tickets:  &ticketRepository{store: s, undo: undo},
		Bookings: &bookingRepository{store: s, undo: undo},
		Payments: &paymentRepository{store: s, undo: undo},
		Users:    &userRepository{store: s, undo: undo},
		Vendors:  &vendorRepository{store: s, undo: undo},
	}
}

func (s *Store) Repositories() *repository.Repositories {
	return s.repos
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	undo := newUndoLog()

	defer func() {
		if p := recover(); p != nil {
			s.write(undo.rollback)
			panic(p)
		}
		if err != nil {
			s.write(undo.rollback)
		}
	}()

	return fn(ctx, s.repositories(undo))
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

type ticketRepository struct {
	store *Store
	undo  *undoLog
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	r.store.write(func(d *state) {
		t := *ticket
		t.Perks = append(t.Perks[:0:0], t.Perks...)
		r.undo.ticket(d, t.ID)
		d.tickets[t.ID] = t
	})
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*entity.Ticket, error) {
	var (
		ticket entity.Ticket
		ok     bool
	)
	r.store.read(func(d *state) { ticket, ok = d.tickets[id] })
	if !ok {
		return nil, entity.ErrTicketNotFound
	}
	ticket.Perks = append(ticket.Perks[:0:0], ticket.Perks...)
	return &ticket, nil
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*entity.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) List(ctx context.Context, filter entity.TicketFilter) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	r.store.read(func(d *state) {
		for _, t := range d.tickets {
			if !matchTicket(t, filter) {
				continue
			}
			t := t
			tickets = append(tickets, &t)
		}
	})
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func matchTicket(t entity.Ticket, f entity.TicketFilter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.VendorEmail != "" && t.VendorEmail != f.VendorEmail {
		return false
	}
	if f.From != "" && !containsFold(t.From, f.From) {
		return false
	}
	if f.To != "" && !containsFold(t.To, f.To) {
		return false
	}
	if f.TransportType != "" && t.TransportType != f.TransportType {
		return false
	}
	if f.Advertised != nil && t.Advertised != *f.Advertised {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (r *ticketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	var err error
	r.store.write(func(d *state) {
		current, ok := d.tickets[ticket.ID]
		if !ok {
			err = entity.ErrTicketNotFound
			return
		}
		r.undo.ticket(d, ticket.ID)
		ticket.UpdatedAt = time.Now().UTC()
		current.Title = ticket.Title
		current.From = ticket.From
		current.To = ticket.To
		current.TransportType = ticket.TransportType
		current.Price = ticket.Price
		current.Quantity = ticket.Quantity
		current.DepartureAt = ticket.DepartureAt
		current.Perks = append(ticket.Perks[:0:0], ticket.Perks...)
		current.ImageURL = ticket.ImageURL
		current.UpdatedAt = ticket.UpdatedAt
		d.tickets[ticket.ID] = current
	})
	return err
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	var err error
	r.store.write(func(d *state) {
		if _, ok := d.tickets[id]; !ok {
			err = entity.ErrTicketNotFound
			return
		}
		r.undo.ticket(d, id)
		delete(d.tickets, id)
	})
	return err
}

func (r *ticketRepository) modify(id string, fn func(t *entity.Ticket) error) error {
	var err error
	r.store.write(func(d *state) {
		t, ok := d.tickets[id]
		if !ok {
			err = entity.ErrTicketNotFound
			return
		}
		if err = fn(&t); err != nil {
			return
		}
		r.undo.ticket(d, id)
		t.UpdatedAt = time.Now().UTC()
		d.tickets[id] = t
	})
	return err
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status entity.TicketStatus) error {
	return r.modify(id, func(t *entity.Ticket) error {
		t.Status = status
		return nil
	})
}

func (r *ticketRepository) UpdateStatusByVendor(ctx context.Context, vendorEmail string, status entity.TicketStatus) (int64, error) {
	var n int64
	r.store.write(func(d *state) {
		for id, t := range d.tickets {
			if t.VendorEmail != vendorEmail {
				continue
			}
			r.undo.ticket(d, id)
			t.Status = status
			t.Advertised = false
			t.UpdatedAt = time.Now().UTC()
			d.tickets[id] = t
			n++
		}
	})
	return n, nil
}

func (r *ticketRepository) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	return r.modify(id, func(t *entity.Ticket) error {
		t.Advertised = advertised
		return nil
	})
}

func (r *ticketRepository) CountAdvertised(ctx context.Context) (int, error) {
	var n int
	r.store.read(func(d *state) {
		for _, t := range d.tickets {
			if t.Advertised {
				n++
			}
		}
	})
	return n, nil
}

// LockAdvertising is a no-op: WithinTx already runs one transaction at a time.
func (r *ticketRepository) LockAdvertising(ctx context.Context) error {
	return nil
}

func (r *ticketRepository) AdjustQuantity(ctx context.Context, id string, delta int) (int, error) {
	var quantity int
	err := r.modify(id, func(t *entity.Ticket) error {
		if t.Quantity+delta < 0 {
			return entity.ErrInsufficientInventory
		}
		t.Quantity += delta
		quantity = t.Quantity
		return nil
	})
	return quantity, err
}

func (r *ticketRepository) FindNegativeQuantity(ctx context.Context) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	r.store.read(func(d *state) {
		for _, t := range d.tickets {
			if t.Quantity < 0 {
				t := t
				tickets = append(tickets, &t)
			}
		}
	})
	return tickets, nil
}

type bookingRepository struct {
	store *Store
	undo  *undoLog
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	r.store.write(func(d *state) {
		r.undo.booking(d, booking.ID)
		d.bookings[booking.ID] = *booking
	})
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	var (
		booking entity.Booking
		ok      bool
	)
	r.store.read(func(d *state) { booking, ok = d.bookings[id] })
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return &booking, nil
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id string) (*entity.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id, trackingID, transactionID string) error {
	var err error
	r.store.write(func(d *state) {
		b, ok := d.bookings[id]
		if !ok {
			err = entity.ErrBookingNotFound
			return
		}
		r.undo.booking(d, id)
		b.Status = entity.BookingStatusPaid
		b.TrackingID = trackingID
		b.TransactionID = transactionID
		b.UpdatedAt = time.Now().UTC()
		d.bookings[id] = b
	})
	return err
}

func (r *bookingRepository) Delete(ctx context.Context, id string) (int64, error) {
	var n int64
	r.store.write(func(d *state) {
		if _, ok := d.bookings[id]; ok {
			r.undo.booking(d, id)
			delete(d.bookings, id)
			n = 1
		}
	})
	return n, nil
}

func (r *bookingRepository) filter(keep func(b entity.Booking) bool) []*entity.Booking {
	var bookings []*entity.Booking
	r.store.read(func(d *state) {
		for _, b := range d.bookings {
			if keep(b) {
				b := b
				bookings = append(bookings, &b)
			}
		}
	})
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings
}

func (r *bookingRepository) GetByCustomer(ctx context.Context, email string) ([]*entity.Booking, error) {
	return r.filter(func(b entity.Booking) bool { return b.CustomerEmail == email }), nil
}

func (r *bookingRepository) GetByVendor(ctx context.Context, vendorEmail string) ([]*entity.Booking, error) {
	return r.filter(func(b entity.Booking) bool { return b.VendorEmail == vendorEmail }), nil
}

func (r *bookingRepository) GetStalePending(ctx context.Context, before time.Time) ([]*entity.StaleBooking, error) {
	pending := r.filter(func(b entity.Booking) bool {
		return b.Status == entity.BookingStatusPending && b.CreatedAt.Before(before)
	})

	stale := make([]*entity.StaleBooking, 0, len(pending))
	for i := len(pending) - 1; i >= 0; i-- {
		b := pending[i]
		stale = append(stale, &entity.StaleBooking{
			BookingID:     b.ID,
			TicketID:      b.TicketID,
			CustomerEmail: b.CustomerEmail,
			Quantity:      b.Quantity,
			CreatedAt:     b.CreatedAt,
		})
	}
	return stale, nil
}

type paymentRepository struct {
	store *Store
	undo  *undoLog
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) (bool, error) {
	var inserted bool
	r.store.write(func(d *state) {
		if _, ok := d.payments[payment.TransactionID]; ok {
			return
		}
		r.undo.payment(d, payment.TransactionID)
		d.payments[payment.TransactionID] = *payment
		inserted = true
	})
	return inserted, nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	var (
		payment entity.Payment
		ok      bool
	)
	r.store.read(func(d *state) { payment, ok = d.payments[transactionID] })
	if !ok {
		return nil, entity.ErrPaymentNotFound
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, customerEmail string) ([]*entity.Payment, error) {
	var payments []*entity.Payment
	r.store.read(func(d *state) {
		for _, p := range d.payments {
			if customerEmail == "" || p.CustomerEmail == customerEmail {
				p := p
				payments = append(payments, &p)
			}
		}
	})
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].PaidAt.After(payments[j].PaidAt)
	})
	return payments, nil
}

func (r *paymentRepository) VendorRevenue(ctx context.Context, vendorEmail string) (*entity.VendorRevenue, error) {
	revenue := &entity.VendorRevenue{VendorEmail: vendorEmail}
	r.store.read(func(d *state) {
		for _, p := range d.payments {
			if p.VendorEmail != vendorEmail {
				continue
			}
			revenue.TotalRevenue += p.Amount
			revenue.TicketsSold += p.Quantity
			revenue.Payments++
		}
		for _, t := range d.tickets {
			if t.VendorEmail != vendorEmail {
				continue
			}
			revenue.TicketsListed++
			revenue.ListedQuantity += t.Quantity
		}
	})
	return revenue, nil
}

type userRepository struct {
	store *Store
	undo  *undoLog
}

func (r *userRepository) Upsert(ctx context.Context, user *entity.User) error {
	r.store.write(func(d *state) {
		r.undo.user(d, user.Email)
		existing, ok := d.users[user.Email]
		if !ok {
			d.users[user.Email] = *user
			return
		}
		existing.Name = user.Name
		existing.PhotoURL = user.PhotoURL
		d.users[user.Email] = existing
		*user = existing
	})
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var (
		user entity.User
		ok   bool
	)
	r.store.read(func(d *state) { user, ok = d.users[email] })
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	r.store.read(func(d *state) {
		for _, u := range d.users {
			u := u
			users = append(users, &u)
		}
	})
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) modify(email string, fn func(u *entity.User)) error {
	var err error
	r.store.write(func(d *state) {
		u, ok := d.users[email]
		if !ok {
			err = entity.ErrUserNotFound
			return
		}
		r.undo.user(d, email)
		fn(&u)
		d.users[email] = u
	})
	return err
}

func (r *userRepository) UpdateRole(ctx context.Context, email string, role entity.Role) error {
	return r.modify(email, func(u *entity.User) { u.Role = role })
}

func (r *userRepository) SetFraud(ctx context.Context, email string, fraud bool) error {
	return r.modify(email, func(u *entity.User) { u.Fraud = fraud })
}

type vendorRepository struct {
	store *Store
	undo  *undoLog
}

func (r *vendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	var err error
	r.store.write(func(d *state) {
		for _, v := range d.vendors {
			if v.Email == vendor.Email {
				err = entity.ErrConflict
				return
			}
		}
		r.undo.vendor(d, vendor.ID)
		d.vendors[vendor.ID] = *vendor
	})
	return err
}

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	var (
		vendor entity.Vendor
		ok     bool
	)
	r.store.read(func(d *state) { vendor, ok = d.vendors[id] })
	if !ok {
		return nil, entity.ErrVendorNotFound
	}
	return &vendor, nil
}

func (r *vendorRepository) GetByEmail(ctx context.Context, email string) (*entity.Vendor, error) {
	var found *entity.Vendor
	r.store.read(func(d *state) {
		for _, v := range d.vendors {
			if v.Email == email {
				v := v
				found = &v
				return
			}
		}
	})
	if found == nil {
		return nil, entity.ErrVendorNotFound
	}
	return found, nil
}

func (r *vendorRepository) List(ctx context.Context, status entity.VendorStatus) ([]*entity.Vendor, error) {
	var vendors []*entity.Vendor
	r.store.read(func(d *state) {
		for _, v := range d.vendors {
			if status == "" || v.Status == status {
				v := v
				vendors = append(vendors, &v)
			}
		}
	})
	sort.Slice(vendors, func(i, j int) bool {
		return vendors[i].CreatedAt.After(vendors[j].CreatedAt)
	})
	return vendors, nil
}

func (r *vendorRepository) UpdateStatus(ctx context.Context, id string, status entity.VendorStatus) error {
	var err error
	r.store.write(func(d *state) {
		v, ok := d.vendors[id]
		if !ok {
			err = entity.ErrVendorNotFound
			return
		}
		r.undo.vendor(d, id)
		v.Status = status
		d.vendors[id] = v
	})
	return err
}
