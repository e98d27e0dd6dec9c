package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/notification"
)

type notificationRepository struct{}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository() *notificationRepository {
	return &notificationRepository{}
}

func (notificationRepository) StudentExists(ctx context.Context, exec core.DBExecutor, studentID int) (bool, error) {
	return studentExists(ctx, exec, studentID)
}

func (notificationRepository) QueryRecipients(ctx context.Context, exec core.DBExecutor, grade string) ([]notification.Recipient, error) {
	recipients := make([]notification.Recipient, 0)
	q := `SELECT student_id, full_name, email FROM students WHERE grade = $1 ORDER BY student_id`
	if err := sqlx.SelectContext(ctx, exec, &recipients, q, grade); err != nil {
		return nil, storeErr(err, "querying recipients")
	}
	return recipients, nil
}

func (notificationRepository) InsertNotification(ctx context.Context, exec core.DBExecutor, n notification.Notification) (notification.Notification, error) {
	q := `INSERT INTO notifications (title, message, type, student_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING notification_id, is_read, created_at`

	err := exec.QueryRowxContext(ctx, q, n.Title, n.Message, n.Type, n.StudentID, n.UserID).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return notification.Notification{}, storeErr(err, "inserting notification")
	}
	return n, nil
}

func (notificationRepository) QueryNotifications(ctx context.Context, exec core.DBExecutor, filter notification.Filter) ([]notification.Notification, error) {
	q := `SELECT notification_id, title, message, type, student_id, user_id, is_read, created_at FROM notifications`
	var arg int
	if filter.UserID > 0 {
		q += ` WHERE user_id = $1`
		arg = filter.UserID
	} else {
		q += ` WHERE student_id = $1`
		arg = filter.StudentID
	}
	q += ` ORDER BY created_at DESC, notification_id DESC`

	notifs := make([]notification.Notification, 0)
	if err := sqlx.SelectContext(ctx, exec, &notifs, q, arg); err != nil {
		return nil, storeErr(err, "querying notifications")
	}
	return notifs, nil
}
