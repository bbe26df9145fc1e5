package memory

import "github.com/ds124wfegd/ticket-marketplace/internal/entity"

// rowLog keeps the value a row had before a transaction first changed it.
// A nil entry means the row did not exist.
type rowLog[T any] map[string]*T

func (l rowLog[T]) save(rows map[string]T, key string) {
	if _, seen := l[key]; seen {
		return
	}
	if v, ok := rows[key]; ok {
		l[key] = &v
		return
	}
	l[key] = nil
}

func (l rowLog[T]) revert(rows map[string]T) {
	for key, v := range l {
		if v == nil {
			delete(rows, key)
			continue
		}
		rows[key] = *v
	}
}

// undoLog is nil for repositories used outside a transaction.
type undoLog struct {
	tickets  rowLog[entity.Ticket]
	bookings rowLog[entity.Booking]
	payments rowLog[entity.Payment]
	users    rowLog[entity.User]
	vendors  rowLog[entity.Vendor]
}

func newUndoLog() *undoLog {
	return &undoLog{
		tickets:  make(rowLog[entity.Ticket]),
		bookings: make(rowLog[entity.Booking]),
		payments: make(rowLog[entity.Payment]),
		users:    make(rowLog[entity.User]),
		vendors:  make(rowLog[entity.Vendor]),
	}
}

func (u *undoLog) ticket(d *state, id string) {
	if u != nil {
		u.tickets.save(d.tickets, id)
	}
}

func (u *undoLog) booking(d *state, id string) {
	if u != nil {
		u.bookings.save(d.bookings, id)
	}
}

func (u *undoLog) payment(d *state, transactionID string) {
	if u != nil {
		u.payments.save(d.payments, transactionID)
	}
}

func (u *undoLog) user(d *state, email string) {
	if u != nil {
		u.users.save(d.users, email)
	}
}

func (u *undoLog) vendor(d *state, id string) {
	if u != nil {
		u.vendors.save(d.vendors, id)
	}
}

func (u *undoLog) rollback(d *state) {
	u.tickets.revert(d.tickets)
	u.bookings.revert(d.bookings)
	u.payments.revert(d.payments)
	u.users.revert(d.users)
	u.vendors.revert(d.vendors)
}
