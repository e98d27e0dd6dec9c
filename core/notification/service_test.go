package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/notification"
	"github.com/trezcool/shule/tests"
)

type memRepo struct {
	students   map[int]bool
	recipients map[string][]notification.Recipient
	inserted   []notification.Notification
}

func (r *memRepo) StudentExists(_ context.Context, _ core.DBExecutor, studentID int) (bool, error) {
	return r.students[studentID], nil
}

func (r *memRepo) QueryRecipients(_ context.Context, _ core.DBExecutor, grade string) ([]notification.Recipient, error) {
	return r.recipients[grade], nil
}

func (r *memRepo) InsertNotification(_ context.Context, _ core.DBExecutor, n notification.Notification) (notification.Notification, error) {
	n.ID = len(r.inserted) + 1
	n.CreatedAt = time.Now()
	r.inserted = append(r.inserted, n)
	return n, nil
}

func (r *memRepo) QueryNotifications(_ context.Context, _ core.DBExecutor, filter notification.Filter) ([]notification.Notification, error) {
	var notifs []notification.Notification
	for i := len(r.inserted) - 1; i >= 0; i-- {
		n := r.inserted[i]
		if (filter.StudentID > 0 && n.StudentID.Int == filter.StudentID) || (filter.UserID > 0 && n.UserID.Int == filter.UserID) {
			notifs = append(notifs, n)
		}
	}
	return notifs, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestNewNotification_Validate(t *testing.T) {
	validate := newValidator()

	nn := notification.NewNotification{Title: " Fees ", Message: "Due soon", StudentID: 3}
	require.NoError(t, nn.Validate(validate))
	assert.Equal(t, "Fees", nn.Title)
	assert.Equal(t, notification.TypeInfo, nn.Type)

	nn = notification.NewNotification{Title: "Fees", Message: "Due soon"}
	assert.Error(t, nn.Validate(validate), "a target is required")

	nn = notification.NewNotification{Title: "Fees", Message: "Due soon", UserID: 2, Type: "spam"}
	assert.Error(t, nn.Validate(validate))
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{students: map[int]bool{3: true}}
	svc := notification.NewService(new(testutil.Gateway), repo, new(testutil.EmailService))

	n, err := svc.Send(ctx, notification.NewNotification{Title: "Fees", Message: "Due soon", Type: notification.TypeFee, StudentID: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, n.ID)
	assert.Equal(t, null.IntFrom(3), n.StudentID)
	assert.False(t, n.UserID.Valid)

	_, err = svc.Send(ctx, notification.NewNotification{Title: "Fees", Message: "Due soon", StudentID: 4})
	assert.True(t, core.IsNotFound(err))

	n, err = svc.Send(ctx, notification.NewNotification{Title: "Hi", Message: "Welcome", UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, null.IntFrom(9), n.UserID)

	notifs, err := svc.Query(ctx, notification.Filter{StudentID: 3})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Fees", notifs[0].Title)

	_, err = svc.Query(ctx, notification.Filter{})
	assert.EqualError(t, err, "user_id or student_id is required")

	notifs, err = svc.Query(ctx, notification.Filter{UserID: 1})
	require.NoError(t, err)
	assert.NotNil(t, notifs)
	assert.Empty(t, notifs)
}

func TestService_SendBulk(t *testing.T) {
	ctx := context.Background()
	gw := new(testutil.Gateway)
	mailSvc := new(testutil.EmailService)
	repo := &memRepo{recipients: map[string][]notification.Recipient{
		"5": {
			{StudentID: 1, FullName: "Jane Doe", Email: null.StringFrom("jane@shule.test")},
			{StudentID: 2, FullName: "John Doe"},
			{StudentID: 3, FullName: "Ann Doe", Email: null.StringFrom("ann@shule.test")},
		},
	}}
	svc := notification.NewService(gw, repo, mailSvc)

	res, err := svc.SendBulk(ctx, notification.BulkNotification{Title: "Trip", Message: "Zoo on Friday", Type: notification.TypeInfo, Grade: "5"})
	require.NoError(t, err)
	assert.Equal(t, notification.BulkResult{Grade: "5", RecipientCount: 3, EmailedCount: 2}, res)
	assert.Equal(t, 1, gw.Txs, "all notifications are inserted in one transaction")
	assert.Len(t, repo.inserted, 3)

	require.Len(t, mailSvc.Sent, 2)
	assert.Equal(t, "Trip", mailSvc.Sent[0].Subject)
	assert.Equal(t, "jane@shule.test", mailSvc.Sent[0].To[0].Address)
	assert.Contains(t, mailSvc.Sent[0].TextContent, "Dear parent/guardian of Jane Doe")
	assert.Contains(t, mailSvc.Sent[0].TextContent, "Zoo on Friday")

	_, err = svc.SendBulk(ctx, notification.BulkNotification{Title: "Trip", Message: "Zoo", Grade: "12"})
	assert.True(t, core.IsNotFound(err))
	assert.Len(t, repo.inserted, 3)
	assert.Len(t, mailSvc.Sent, 2)
}
