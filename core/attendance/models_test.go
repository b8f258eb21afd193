package attendance

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/presence/core"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func TestCountStatuses(t *testing.T) {
	entries := []Entry{
		{Status: StatusPresent},
		{Status: StatusPresent},
		{Status: StatusLate},
		{Status: StatusAbsent},
	}
	c := CountStatuses(entries)
	assert.Equal(t, Counts{Present: 2, Absent: 1, Late: 1}, c)
	assert.Equal(t, 3, c.Attended())
	assert.Equal(t, 4, c.Total())
}

func TestByDate(t *testing.T) {
	entries := []Entry{
		{StudentID: "a", Date: monday},
		{StudentID: "b", Date: monday.Add(9 * time.Hour)},
		{StudentID: "a", Date: monday.AddDate(0, 0, 1)},
	}
	grouped := ByDate(entries)
	assert.Len(t, grouped["2025-03-03"], 2)
	assert.Len(t, grouped["2025-03-04"], 1)
}

func TestEntry_Key(t *testing.T) {
	now := monday.Add(8 * time.Hour)
	a := NewEntry("s1", "math", monday, StatusPresent, MethodManual, now)
	b := NewEntry("s1", "math", monday.Add(10*time.Hour), StatusAbsent, MethodOther, now)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, Key{StudentID: "s1", SubjectID: "math", Date: "2025-03-03"}, a.Key())
	assert.False(t, a.IsSystem())

	b.MarkedBy = SystemMarker
	assert.True(t, b.IsSystem())
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	valid := NewEntry("s1", "math", monday, StatusLate, MethodAuto, monday)
	conf := 87
	valid.Confidence = &conf
	require.NoError(t, validate.Struct(valid))

	tooConfident := valid
	over := 101
	tooConfident.Confidence = &over

	tests := []struct {
		name    string
		entry   Entry
		wantFld string
		wantMsg string
	}{
		{
			name:    "unknown status",
			entry:   NewEntry("s1", "math", monday, Status("excused"), MethodManual, monday),
			wantFld: "Entry.status",
			wantMsg: "status must be one of present, absent, late",
		},
		{
			name:    "unknown method",
			entry:   NewEntry("s1", "math", monday, StatusPresent, Method("face"), monday),
			wantFld: "Entry.method",
			wantMsg: "method must be one of manual, auto, other",
		},
		{
			name:    "missing student",
			entry:   NewEntry("", "math", monday, StatusPresent, MethodManual, monday),
			wantFld: "Entry.student_id",
			wantMsg: "this field is required",
		},
		{
			name:    "confidence out of range",
			entry:   tooConfident,
			wantFld: "Entry.confidence",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.TranslateErrors(validate.Struct(tt.entry), translator)
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "want *core.ValidationError, got %T", err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, tt.wantFld, vErr.Fields[0].Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, vErr.Fields[0].Error)
			}
		})
	}
}
