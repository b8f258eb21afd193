package core

// Logger is any service that can log messages.
// args may carry errors, maps of extra fields, or an Actor identifying who triggered the action.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies whoever marked or corrected attendance, staff or the system.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a Actor) IsZero() bool { return a.ID == "" }
