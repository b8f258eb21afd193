package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/achievement"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/daystatus"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/core/report"
	"github.com/trezcool/presence/tests"
)

// setup wires the CLI over a school week of 3 students, on the Friday evening of that week.
func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	testutil.SchoolWeek(env.DB, testutil.Cohort, testutil.Monday)
	testutil.CreateStudents(env.DB, testutil.Cohort, "s", 3)
	testutil.MockNow(t, testutil.At(testutil.Monday.AddDate(0, 0, 4), 18, 0))

	out := new(bytes.Buffer)
	cli := &commandLine{
		migrate:   migrator(nil),
		svc:       env.Service,
		overrides: env.Periods,
		loc:       env.Conf.Location,
		out:       out,
	}
	return cli, env, out
}

// runJSON runs the command and decodes its output into v.
func runJSON(t *testing.T, cli *commandLine, out *bytes.Buffer, v interface{}, args ...string) {
	t.Helper()
	out.Reset()
	require.NoError(t, cli.run(append([]string{"admin"}, args...)))
	require.NoError(t, json.Unmarshal(out.Bytes(), v), out.String())
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_commandLine_help(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command"},
		{name: "unknown command", args: []string{"lol"}},
		{name: "migrate: no subcommand", args: []string{"migrate"}},
		{name: "classify: no student", args: []string{"classify", "-date", "2025-03-03"}},
		{name: "aggregate: no from", args: []string{"aggregate", "-student", "s-01"}},
		{name: "aggregate: no target", args: []string{"aggregate", "-from", "2025-03-03"}},
		{name: "subjects: no student", args: []string{"subjects"}},
		{name: "bulkmark: no file", args: []string{"bulkmark"}},
		{name: "streaks: no student", args: []string{"streaks"}},
		{name: "badges: no student", args: []string{"badges"}},
		{name: "override: no subcommand", args: []string{"override"}},
		{name: "override: unknown subcommand", args: []string{"override", "lol"}},
		{name: "override create: no file", args: []string{"override", "create"}},
		{name: "override activate: no id", args: []string{"override", "activate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			assert.Equal(t, errHelp, err)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var got []string
	orig := migrateFunc
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		if command == "lol" {
			return fmt.Errorf("%q: no such command", command)
		}
		got = append([]string{command}, args...)
		return nil
	}
	t.Cleanup(func() { migrateFunc = orig })

	tests := []struct {
		name       string
		args       []string
		wantErrStr string
	}{
		{name: "up", args: []string{"up"}},
		{name: "up-to", args: []string{"up-to", "2"}},
		{name: "create", args: []string{"create", "semester_notes", "sql"}},
		{name: "unknown", args: []string{"lol"}, wantErrStr: `"lol": no such command`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			err := cli.run(append([]string{"admin", "migrate"}, tt.args...))
			if tt.wantErrStr != "" {
				assert.EqualError(t, err, tt.wantErrStr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.args, got)
		})
	}
}

func Test_commandLine_reports(t *testing.T) {
	cli, env, out := setup(t)
	monday := testutil.Monday
	env.DB.PutEntries(
		testutil.NewEntry("s-01", "math", monday, attendance.StatusPresent, testutil.At(monday, 8, 5)),
		testutil.NewEntry("s-01", "physics", monday, attendance.StatusPresent, testutil.At(monday, 10, 35)),
	)

	t.Run("period", func(t *testing.T) {
		var p period.Period
		runJSON(t, cli, out, &p, "period", "-date", "2025-03-03")
		assert.Equal(t, period.TypeSpring, p.Type)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, period.SourceDefault, p.Source)
	})

	t.Run("classify", func(t *testing.T) {
		var day daystatus.Day
		runJSON(t, cli, out, &day, "classify", "-student", "s-01", "-date", "2025-03-03")
		assert.Equal(t, daystatus.StatusPresent, day.Status)
		assert.Equal(t, 2, day.Expected)

		runJSON(t, cli, out, &day, "classify", "-student", "s-01")
		assert.Equal(t, "2025-03-07", core.DateKey(day.Date), "defaults to today")

		err := cli.run([]string{"admin", "classify", "-student", "nobody", "-date", "2025-03-03"})
		assert.True(t, core.IsNotFound(err))

		err = cli.run([]string{"admin", "classify", "-student", "s-01", "-date", "03/03/2025"})
		assert.Error(t, err)
	})

	t.Run("aggregate student", func(t *testing.T) {
		var summary report.StudentSummary
		runJSON(t, cli, out, &summary, "aggregate", "-student", "s-01", "-from", "2025-03-03", "-to", "2025-03-07")
		assert.Equal(t, "s-01", summary.StudentID)
		assert.Equal(t, 5, summary.TotalDays)
		assert.Equal(t, 1, summary.Present)
	})

	t.Run("aggregate cohort", func(t *testing.T) {
		var summary report.CohortSummary
		runJSON(t, cli, out, &summary,
			"aggregate", "-faculty", testutil.Cohort.FacultyID, "-semester", "2", "-from", "2025-03-03", "-to", "2025-03-07")
		assert.Len(t, summary.Students, 3)
		assert.Equal(t, 15, summary.Totals.TotalDays)
	})

	t.Run("aggregate invalid range", func(t *testing.T) {
		err := cli.run([]string{"admin", "aggregate", "-student", "s-01", "-from", "2025-03-07", "-to", "2025-03-03"})
		assert.Equal(t, core.ErrInvalidRange, errors.Cause(err))
	})

	t.Run("subjects", func(t *testing.T) {
		var breakdown []report.SubjectSummary
		runJSON(t, cli, out, &breakdown, "subjects", "-student", "s-01", "-from", "2025-03-03", "-to", "2025-03-07")
		require.Len(t, breakdown, 2)
		assert.Equal(t, "math", breakdown[0].SubjectID)
		assert.Equal(t, 1, breakdown[0].Present)
		assert.Equal(t, "physics", breakdown[1].SubjectID)
	})

	t.Run("streaks", func(t *testing.T) {
		var streaks achievement.Streaks
		runJSON(t, cli, out, &streaks, "streaks", "-student", "s-01")
		assert.Equal(t, 1, streaks.Longest)
	})

	t.Run("badges", func(t *testing.T) {
		var badges achievement.BadgeSet
		runJSON(t, cli, out, &badges, "badges", "-student", "s-01")
		assert.Nil(t, badges.Streak)
	})
}

func Test_commandLine_writes(t *testing.T) {
	cli, env, out := setup(t)

	t.Run("autoabsent", func(t *testing.T) {
		var rep reconcile.Report
		runJSON(t, cli, out, &rep, "autoabsent", "-date", "2025-03-04")
		assert.Equal(t, 6, rep.NewlyAbsent)
		assert.Len(t, env.DB.Entries(), 6)

		runJSON(t, cli, out, &rep, "autoabsent", "-date", "2025-03-04")
		assert.Equal(t, 0, rep.NewlyAbsent)
		assert.Equal(t, 6, rep.AlreadyCovered)
	})

	t.Run("bulkmark", func(t *testing.T) {
		path := writeFile(t, "mark.json", `{
			"subject_id": "math",
			"date": "2025-03-05",
			"marked_by": "teacher-1",
			"entries": [{"student_id": "s-01", "status": "present"}]
		}`)
		var rep reconcile.CascadeReport
		runJSON(t, cli, out, &rep, "bulkmark", "-file", path)
		assert.Equal(t, reconcile.ModeRecovery, rep.Mode)
		assert.Equal(t, 1, rep.Explicit)
		assert.Equal(t, 5, rep.DefaultAbsent)

		err := cli.run([]string{"admin", "bulkmark", "-file", filepath.Join(t.TempDir(), "missing.json")})
		assert.Error(t, err)

		path = writeFile(t, "bad.json", `{"subject_id": "math", "date": "2025-03-05", "marked_by": "teacher-1", "entries": []}`)
		err = cli.run([]string{"admin", "bulkmark", "-file", path})
		_, ok := errors.Cause(err).(*core.ValidationError)
		assert.True(t, ok, "got %v", err)
	})
}

func Test_commandLine_override(t *testing.T) {
	cli, _, out := setup(t)

	path := writeFile(t, "override.json", `{
		"spring_start": "02-01",
		"spring_end": "06-15",
		"fall_start": "09-01",
		"fall_end": "12-20",
		"reason": "calendar shift",
		"created_by": "admin"
	}`)
	var o period.Override
	runJSON(t, cli, out, &o, "override", "create", "-file", path)
	require.NotEmpty(t, o.ID)
	assert.False(t, o.IsActive)

	var overrides []period.Override
	runJSON(t, cli, out, &overrides, "override", "list")
	assert.Len(t, overrides, 1)

	require.NoError(t, cli.run([]string{"admin", "override", "activate", "-id", o.ID}))

	var p period.Period
	runJSON(t, cli, out, &p, "period", "-date", "2025-03-03")
	assert.Equal(t, period.SourceOverride, p.Source)

	err := cli.run([]string{"admin", "override", "delete", "-id", o.ID})
	assert.Equal(t, core.ErrConflict, errors.Cause(err))

	require.NoError(t, cli.run([]string{"admin", "override", "deactivate", "-id", o.ID}))
	require.NoError(t, cli.run([]string{"admin", "override", "delete", "-id", o.ID}))

	err = cli.run([]string{"admin", "override", "delete", "-id", o.ID})
	assert.True(t, core.IsNotFound(err))
}
