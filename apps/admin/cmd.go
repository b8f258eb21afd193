package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/accounting"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/core/reconcile"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	migrate   func(args []string) error
	svc       *accounting.Service
	overrides *period.Service
	loc       *time.Location
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                   - run a goose command (up, down, status...)")
	fmt.Println("  period [-date YYYY-MM-DD]                                - resolve the semester of a date")
	fmt.Println("  override list|create|activate|deactivate|delete          - administer semester overrides")
	fmt.Println("  classify -student ID [-date YYYY-MM-DD]                  - classify a student's day")
	fmt.Println("  aggregate -student ID | -faculty ID -semester N -from -to - summarize attendance")
	fmt.Println("  subjects -student ID [-from -to]                         - per-subject breakdown")
	fmt.Println("  autoabsent [-date YYYY-MM-DD]                            - fill in absences of finished classes")
	fmt.Println("  bulkmark -file FILE                                      - bulk-mark from a JSON request")
	fmt.Println("  streaks -student ID                                      - current semester streaks")
	fmt.Println("  badges -student ID                                       - current semester badges")
}

func (cli *commandLine) print(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dateFlag parses an optional YYYY-MM-DD flag value, today when empty.
func (cli *commandLine) dateFlag(value string) (time.Time, error) {
	if value == "" {
		return core.DateOf(accounting.NowFunc(), cli.loc), nil
	}
	return core.ParseDate(value, cli.loc)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	periodCmd := flag.NewFlagSet("period", flag.ContinueOnError)
	periodDate := periodCmd.String("date", "", "The date to resolve. Defaults to today.")

	classifyCmd := flag.NewFlagSet("classify", flag.ContinueOnError)
	classifyStudent := classifyCmd.String("student", "", "The student's ID.")
	classifyDate := classifyCmd.String("date", "", "The date to classify. Defaults to today.")

	aggregateCmd := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	aggregateStudent := aggregateCmd.String("student", "", "The student's ID.")
	aggregateFaculty := aggregateCmd.String("faculty", "", "The cohort's faculty ID.")
	aggregateSemester := aggregateCmd.Int("semester", 0, "The cohort's semester.")
	aggregateFrom := aggregateCmd.String("from", "", "First day of the window.")
	aggregateTo := aggregateCmd.String("to", "", "Last day of the window. Defaults to today.")

	subjectsCmd := flag.NewFlagSet("subjects", flag.ContinueOnError)
	subjectsStudent := subjectsCmd.String("student", "", "The student's ID.")
	subjectsFrom := subjectsCmd.String("from", "", "First day of the window. Defaults to the current semester.")
	subjectsTo := subjectsCmd.String("to", "", "Last day of the window.")

	autoAbsentCmd := flag.NewFlagSet("autoabsent", flag.ContinueOnError)
	autoAbsentDate := autoAbsentCmd.String("date", "", "The date to reconcile. Defaults to today.")

	bulkMarkCmd := flag.NewFlagSet("bulkmark", flag.ContinueOnError)
	bulkMarkFile := bulkMarkCmd.String("file", "", "JSON file holding the bulk-mark request.")

	streaksCmd := flag.NewFlagSet("streaks", flag.ContinueOnError)
	streaksStudent := streaksCmd.String("student", "", "The student's ID.")

	badgesCmd := flag.NewFlagSet("badges", flag.ContinueOnError)
	badgesStudent := badgesCmd.String("student", "", "The student's ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "period":
		if err := periodCmd.Parse(args[2:]); err != nil {
			return err
		}
		date, err := cli.dateFlag(*periodDate)
		if err != nil {
			return err
		}
		return cli.print(cli.svc.ResolvePeriod(ctx, date))

	case "override":
		return cli.override(ctx, args[2:])

	case "classify":
		if err := classifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *classifyStudent == "" {
			classifyCmd.Usage()
			return errHelp
		}
		date, err := cli.dateFlag(*classifyDate)
		if err != nil {
			return err
		}
		day, err := cli.svc.ClassifyDay(ctx, *classifyStudent, date)
		if err != nil {
			return err
		}
		return cli.print(day)

	case "aggregate":
		if err := aggregateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *aggregateFrom == "" || (*aggregateStudent == "" && *aggregateFaculty == "") {
			aggregateCmd.Usage()
			return errHelp
		}
		from, err := core.ParseDate(*aggregateFrom, cli.loc)
		if err != nil {
			return err
		}
		to, err := cli.dateFlag(*aggregateTo)
		if err != nil {
			return err
		}
		if *aggregateStudent != "" {
			summary, err := cli.svc.AggregateStudent(ctx, *aggregateStudent, from, to)
			if err != nil {
				return err
			}
			return cli.print(summary)
		}
		cohort := academic.Cohort{FacultyID: *aggregateFaculty, Semester: *aggregateSemester}
		summary, err := cli.svc.AggregateCohort(ctx, cohort, from, to)
		if err != nil {
			return err
		}
		return cli.print(summary)

	case "subjects":
		if err := subjectsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *subjectsStudent == "" {
			subjectsCmd.Usage()
			return errHelp
		}
		var p period.Period
		if *subjectsFrom != "" {
			from, err := core.ParseDate(*subjectsFrom, cli.loc)
			if err != nil {
				return err
			}
			to, err := cli.dateFlag(*subjectsTo)
			if err != nil {
				return err
			}
			p = period.Period{Start: from, End: to}
		}
		breakdown, err := cli.svc.SubjectBreakdown(ctx, *subjectsStudent, p)
		if err != nil {
			return err
		}
		return cli.print(breakdown)

	case "autoabsent":
		if err := autoAbsentCmd.Parse(args[2:]); err != nil {
			return err
		}
		date, err := cli.dateFlag(*autoAbsentDate)
		if err != nil {
			return err
		}
		rep, err := cli.svc.RunAutoAbsent(ctx, date)
		if pErr := cli.print(rep); pErr != nil {
			return pErr
		}
		return err

	case "bulkmark":
		if err := bulkMarkCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *bulkMarkFile == "" {
			bulkMarkCmd.Usage()
			return errHelp
		}
		req, err := cli.readMarkRequest(*bulkMarkFile)
		if err != nil {
			return err
		}
		rep, err := cli.svc.BulkMark(ctx, req)
		if err != nil {
			return err
		}
		return cli.print(rep)

	case "streaks":
		if err := streaksCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *streaksStudent == "" {
			streaksCmd.Usage()
			return errHelp
		}
		streaks, err := cli.svc.ComputeStreaks(ctx, *streaksStudent)
		if err != nil {
			return err
		}
		return cli.print(streaks)

	case "badges":
		if err := badgesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *badgesStudent == "" {
			badgesCmd.Usage()
			return errHelp
		}
		badges, err := cli.svc.ComputeBadges(ctx, *badgesStudent)
		if err != nil {
			return err
		}
		return cli.print(badges)

	default:
		cli.printUsage()
		return errHelp
	}
}

// markRequestFile is the on-disk form of a bulk-mark request; the date is YYYY-MM-DD.
type markRequestFile struct {
	SubjectID string           `json:"subject_id"`
	Date      string           `json:"date"`
	MarkedBy  string           `json:"marked_by"`
	Entries   []reconcile.Mark `json:"entries"`
}

func (cli *commandLine) readMarkRequest(path string) (reconcile.MarkRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reconcile.MarkRequest{}, err
	}
	var f markRequestFile
	if err = json.Unmarshal(data, &f); err != nil {
		return reconcile.MarkRequest{}, err
	}
	date, err := core.ParseDate(f.Date, cli.loc)
	if err != nil {
		return reconcile.MarkRequest{}, err
	}
	return reconcile.MarkRequest{SubjectID: f.SubjectID, Date: date, Entries: f.Entries, MarkedBy: f.MarkedBy}, nil
}
