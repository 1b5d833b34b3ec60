// Package notify queues user-facing notifications. Delivery (email, push)
// happens in a separate worker that drains the queue.
package notify

import (
	"context"
	"fmt"
	"time"
)

type Kind string

const (
	KindGymStatusChanged    Kind = "gym_status_changed"
	KindMembershipStarted   Kind = "membership_started"
	KindMembershipCancelled Kind = "membership_cancelled"
	KindRequestResolved     Kind = "membership_request_resolved"
	KindBookingConfirmed    Kind = "booking_confirmed"
	KindBookingCancelled    Kind = "booking_cancelled"
)

type Notification struct {
	Kind    Kind              `json:"kind"`
	UserID  string            `json:"user_id"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Tries   int               `json:"tries"`
	Created time.Time         `json:"created"`
}

// Notifier accepts notifications for later delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) error { return nil }

func GymStatusChanged(userID, gymID, gymName, status string) Notification {
	return Notification{
		Kind:    KindGymStatusChanged,
		UserID:  userID,
		Subject: fmt.Sprintf("%s is now %s", gymName, status),
		Body:    fmt.Sprintf("The status of your gym %s changed to %s.", gymName, status),
		Data:    map[string]string{"gym_id": gymID, "status": status},
	}
}

func MembershipStarted(userID, membershipID, planName string, endDate time.Time) Notification {
	return Notification{
		Kind:    KindMembershipStarted,
		UserID:  userID,
		Subject: "Membership active - " + planName,
		Body:    fmt.Sprintf("Your %s membership is active until %s.", planName, endDate.Format("Jan 2, 2006")),
		Data:    map[string]string{"membership_id": membershipID},
	}
}

func MembershipCancelled(userID, membershipID, planName string) Notification {
	return Notification{
		Kind:    KindMembershipCancelled,
		UserID:  userID,
		Subject: "Membership cancelled - " + planName,
		Body:    fmt.Sprintf("Your %s membership has been cancelled.", planName),
		Data:    map[string]string{"membership_id": membershipID},
	}
}

func RequestResolved(userID, requestID, gymName, decision string) Notification {
	return Notification{
		Kind:    KindRequestResolved,
		UserID:  userID,
		Subject: fmt.Sprintf("Membership request %s", decision),
		Body:    fmt.Sprintf("Your request to join %s was %s.", gymName, decision),
		Data:    map[string]string{"request_id": requestID, "decision": decision},
	}
}

func BookingConfirmed(userID, bookingID, className string, when time.Time) Notification {
	return Notification{
		Kind:    KindBookingConfirmed,
		UserID:  userID,
		Subject: "Booking confirmed - " + className,
		Body:    fmt.Sprintf("You are booked for %s on %s.", className, when.Format("Jan 2, 2006 at 15:04")),
		Data:    map[string]string{"booking_id": bookingID},
	}
}

func BookingCancelled(userID, bookingID, className string) Notification {
	return Notification{
		Kind:    KindBookingCancelled,
		UserID:  userID,
		Subject: "Booking cancelled - " + className,
		Body:    fmt.Sprintf("Your booking for %s has been cancelled.", className),
		Data:    map[string]string{"booking_id": bookingID},
	}
}
