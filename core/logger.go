package core

// Logger reports messages and errors.
// args may hold errors, extra data (map[string]interface{}) and at most one LogPerson.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the authenticated caller in error reports.
type LogPerson struct {
	ID       string
	Name     string
	IsAdmin  bool
	ClassIDs []string
}
