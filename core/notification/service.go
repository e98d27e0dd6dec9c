package notification

import (
	"context"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

const emailTemplateName = "notification"

var (
	// errors
	ErrNoRecipients = core.NewNotFoundError("students in the specified grade")
	errEmptyFilter  = core.NewValidationError(errors.New("user_id or student_id is required"))

	emailText = `Dear parent/guardian of {{.FullName}},

{{.Message}}
`
	emailHTML = `<p>Dear parent/guardian of <strong>{{.FullName}}</strong>,</p><p>{{.Message}}</p>`
)

func init() {
	if err := core.RegisterEmailTemplate(emailTemplateName, emailText, emailHTML); err != nil {
		panic(err)
	}
}

type (
	Repository interface {
		StudentExists(ctx context.Context, exec core.DBExecutor, studentID int) (bool, error)
		QueryRecipients(ctx context.Context, exec core.DBExecutor, grade string) ([]Recipient, error)
		InsertNotification(ctx context.Context, exec core.DBExecutor, n Notification) (Notification, error)
		// QueryNotifications returns the newest notifications first.
		QueryNotifications(ctx context.Context, exec core.DBExecutor, filter Filter) ([]Notification, error)
	}

	ServiceInterface interface {
		Send(ctx context.Context, nn NewNotification) (Notification, error)
		SendBulk(ctx context.Context, bn BulkNotification) (BulkResult, error)
		Query(ctx context.Context, filter Filter) ([]Notification, error)
	}

	Service struct {
		db      core.Gateway
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.Gateway, repo Repository, mailSvc core.EmailService) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()

	return &Service{db: db, repo: repo, mailSvc: mailSvc}
}

func (svc *Service) Send(ctx context.Context, nn NewNotification) (Notification, error) {
	n := Notification{
		Title:   nn.Title,
		Message: nn.Message,
		Type:    nn.Type,
	}
	if nn.StudentID > 0 {
		n.StudentID = null.IntFrom(nn.StudentID)
	}
	if nn.UserID > 0 {
		n.UserID = null.IntFrom(nn.UserID)
	}

	var created Notification
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		if n.StudentID.Valid {
			exists, err := svc.repo.StudentExists(ctx, tx, n.StudentID.Int)
			if err != nil {
				return errors.Wrap(err, "checking student")
			}
			if !exists {
				return errors.WithStack(student.ErrNotFound)
			}
		}
		var err error
		created, err = svc.repo.InsertNotification(ctx, tx, n)
		return errors.Wrap(err, "inserting notification")
	})
	return created, err
}

// SendBulk notifies every student of a grade in one transaction, then emails the ones having an address.
func (svc *Service) SendBulk(ctx context.Context, bn BulkNotification) (BulkResult, error) {
	var recipients []Recipient
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		var err error
		if recipients, err = svc.repo.QueryRecipients(ctx, tx, bn.Grade); err != nil {
			return errors.Wrap(err, "querying recipients")
		}
		if len(recipients) == 0 {
			return errors.WithStack(ErrNoRecipients)
		}

		for _, r := range recipients {
			n := Notification{
				Title:     bn.Title,
				Message:   bn.Message,
				Type:      bn.Type,
				StudentID: null.IntFrom(r.StudentID),
			}
			if _, err = svc.repo.InsertNotification(ctx, tx, n); err != nil {
				return errors.Wrapf(err, "inserting notification for student %d", r.StudentID)
			}
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	messages := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		if !r.Email.Valid || r.Email.String == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: r.FullName, Address: r.Email.String}},
			Subject:      bn.Title,
			TemplateName: emailTemplateName,
			TemplateData: map[string]string{"FullName": r.FullName, "Message": bn.Message},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}

	return BulkResult{
		Grade:          bn.Grade,
		RecipientCount: len(recipients),
		EmailedCount:   len(messages),
	}, nil
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Notification, error) {
	if filter.IsEmpty() {
		return nil, errEmptyFilter
	}

	var notifs []Notification
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		notifs, err = svc.repo.QueryNotifications(ctx, exec, filter)
		return errors.Wrap(err, "querying notifications")
	})
	if err != nil {
		return nil, err
	}
	if notifs == nil {
		notifs = []Notification{}
	}
	return notifs, nil
}
