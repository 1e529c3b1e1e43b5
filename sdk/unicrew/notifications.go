package unicrew

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// NotificationsService wraps the notification endpoints. The platform has no
// push channel; clients poll.
type NotificationsService struct {
	client *Client
}

// List returns all notifications for the authenticated user, newest first.
func (s *NotificationsService) List(ctx context.Context) ([]Notification, error) {
	return getJSON[[]Notification](ctx, s.client, "users/notifications/")
}

// Unread returns only the unread notifications.
func (s *NotificationsService) Unread(ctx context.Context) ([]Notification, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	unread := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

// MarkRead marks one notification as read.
func (s *NotificationsService) MarkRead(ctx context.Context, id int64) error {
	_, err := s.client.post(ctx, "users/mark_notification_read/", map[string]int64{"notification_id": id})
	return err
}

// MarkAllRead marks every notification as read.
func (s *NotificationsService) MarkAllRead(ctx context.Context) error {
	_, err := s.client.post(ctx, "users/mark_all_notifications_read/", nil)
	return err
}

// Delete removes one notification.
func (s *NotificationsService) Delete(ctx context.Context, id int64) error {
	_, err := s.client.post(ctx, "users/delete_notification/", map[string]int64{"notification_id": id})
	return err
}

// Poll fetches notifications on a fixed interval and delivers each batch to
// the handler until the context ends. Fetch errors are logged and the next
// tick retries; polling never mutates session state.
func (s *NotificationsService) Poll(ctx context.Context, every time.Duration, handler func([]Notification)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := s.List(ctx)
			if err != nil {
				log.Debugf("notifications: poll failed: %v", err)
				continue
			}
			handler(batch)
		}
	}
}
