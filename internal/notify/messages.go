package notify

import (
	"fmt"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
)

// Titles shown to staff.
const (
	TitleOrder       = "Pesanan Baru"
	TitleUrgent      = "PESANAN BARU DARI PELANGGAN"
	TitleReservation = "Reservasi Baru"
)

// ForOrder builds the notification for a newly observed remote order.
func ForOrder(o domain.Order) domain.Notification {
	return domain.Notification{
		Title:    TitleOrder,
		Message:  fmt.Sprintf("#%s - %s", o.DisplayNumber(), format.Currency(o.TotalAmount)),
		Category: domain.CategoryOrder,
		Record:   o,
	}
}

// ForPending builds the urgent notification for a mailbox entry.
func ForPending(p domain.PendingOrder) domain.Notification {
	return domain.Notification{
		Title:    TitleUrgent,
		Message:  fmt.Sprintf("%s - %d items", p.CustomerName, p.ItemCount()),
		Category: domain.CategoryUrgent,
		Record:   p,
	}
}

// ForReservation builds the notification for a newly observed reservation.
func ForReservation(r domain.Reservation) domain.Notification {
	return domain.Notification{
		Title: TitleReservation,
		Message: fmt.Sprintf("%s - %d tamu, %s %s",
			r.CustomerName, r.NumberOfGuests, r.ReservationDate, r.ReservationTime),
		Category: domain.CategoryReservation,
		Record:   r,
	}
}

// ForEvent builds the notification for an in-process new-order event.
// The caller's message is shown verbatim.
func ForEvent(message string, record any) domain.Notification {
	return domain.Notification{
		Title:    TitleOrder,
		Message:  message,
		Category: domain.CategoryOrder,
		Record:   record,
	}
}
