package attendance

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/presence/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Method is how an entry was captured.
type Method string

const (
	MethodManual Method = "manual"
	MethodAuto   Method = "auto"
	MethodOther  Method = "other"
)

func (m Method) Valid() bool {
	switch m {
	case MethodManual, MethodAuto, MethodOther:
		return true
	}
	return false
}

// SystemMarker tags the entries written by the auto-absent job.
const SystemMarker = "system:auto-absent"

// Entry is one ledger row. SubjectID is empty for day-level entries.
type Entry struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id" validate:"required"`
	SubjectID  string     `json:"subject_id"`
	Date       time.Time  `json:"date" validate:"required"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	TimeOut    *time.Time `json:"time_out,omitempty"`
	Status     Status     `json:"status" validate:"required,status"`
	Method     Method     `json:"method" validate:"required,method"`
	Confidence *int       `json:"confidence,omitempty" validate:"omitempty,min=0,max=100"`
	MarkedBy   string     `json:"marked_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Key identifies the single entry a (student, subject, date) may have.
type Key struct {
	StudentID string
	SubjectID string
	Date      string
}

func (e Entry) Key() Key {
	return Key{StudentID: e.StudentID, SubjectID: e.SubjectID, Date: core.DateKey(e.Date)}
}

// IsSystem reports whether the entry was written by the auto-absent job.
func (e Entry) IsSystem() bool { return e.MarkedBy == SystemMarker }

// NewEntry returns an entry with a fresh ID and timestamps set to now.
func NewEntry(studentID, subjectID string, date time.Time, status Status, method Method, now time.Time) Entry {
	return Entry{
		ID:        uuid.New().String(),
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      date,
		Status:    status,
		Method:    method,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

func (c Counts) Attended() int { return c.Present + c.Late }
func (c Counts) Total() int    { return c.Present + c.Absent + c.Late }

func CountStatuses(entries []Entry) Counts {
	var c Counts
	for _, e := range entries {
		switch e.Status {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		case StatusLate:
			c.Late++
		}
	}
	return c
}

// ByDate groups entries by calendar day (core.DateKey).
func ByDate(entries []Entry) map[string][]Entry {
	grouped := make(map[string][]Entry)
	for _, e := range entries {
		k := core.DateKey(e.Date)
		grouped[k] = append(grouped[k], e)
	}
	return grouped
}
