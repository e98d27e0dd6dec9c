package core

// Logger is any service that can log application events.
// args may hold errors, maps of extra data or the authenticated user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated user attached to a log entry.
type Person struct {
	ID       string
	Username string
	Email    string
}
