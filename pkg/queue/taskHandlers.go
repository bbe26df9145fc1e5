package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a text message to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TaskHandler обрабатывает задачи из очереди и отправляет уведомления
type TaskHandler struct {
	notifier Notifier
	chatID   string
}

// NewTaskHandler создает новый обработчик задач
func NewTaskHandler(notifier Notifier, chatID string) *TaskHandler {
	return &TaskHandler{
		notifier: notifier,
		chatID:   chatID,
	}
}

// HandleTask обрабатывает задачу
func (h *TaskHandler) HandleTask(ctx context.Context, task *Task) error {
	logrus.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	}).Debug("Handling task")

	var text string
	switch task.Type {
	case TaskTypeBookingPaid:
		text = bookingPaidMessage(task)
	case TaskTypeBookingCancelled:
		text = bookingCancelledMessage(task)
	case TaskTypeInventoryAlert:
		text = inventoryAlertMessage(task)
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrPermanent, task.Type)
	}

	if h.notifier == nil || h.chatID == "" {
		logrus.WithField("task_id", task.ID).Debug("Notifier disabled, dropping message")
		return nil
	}

	if err := h.notifier.SendMessage(ctx, h.chatID, text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// Задача оплаты бронирования
func bookingPaidMessage(task *Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking paid\n")
	fmt.Fprintf(&b, "Ticket: %s\n", task.GetString("ticket_title"))
	fmt.Fprintf(&b, "Customer: %s\n", task.GetString("customer_email"))
	fmt.Fprintf(&b, "Quantity: %d\n", task.GetInt("quantity"))
	fmt.Fprintf(&b, "Tracking ID: %s\n", task.GetString("tracking_id"))
	fmt.Fprintf(&b, "Seats left: %d", task.GetInt("remaining"))
	return b.String()
}

func bookingCancelledMessage(task *Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking cancelled\n")
	fmt.Fprintf(&b, "Booking: %s\n", task.GetString("booking_id"))
	fmt.Fprintf(&b, "Ticket: %s\n", task.GetString("ticket_title"))
	fmt.Fprintf(&b, "Customer: %s\n", task.GetString("customer_email"))
	if restored := task.GetInt("restored"); restored > 0 {
		fmt.Fprintf(&b, "Seats restored: %d", restored)
	} else {
		fmt.Fprintf(&b, "Booking was not paid, inventory unchanged")
	}
	return b.String()
}

func inventoryAlertMessage(task *Task) string {
	return fmt.Sprintf("Inventory audit: %d ticket(s) with negative quantity, %d stale pending booking(s)",
		task.GetInt("negative_tickets"), task.GetInt("stale_bookings"))
}
