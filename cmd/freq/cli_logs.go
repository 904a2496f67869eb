package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimdaga/frequency/internal/client"
	"github.com/jimdaga/frequency/internal/stats"
)

const loggedAtLayout = "2006-01-02T15:04:05.000Z"

func cmdLog(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	note := fs.String("note", "", "note for this occurrence")
	at := fs.String("at", "", "ISO-8601 timestamp (default now)")
	positional := parseInterleaved(fs, args)

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	in := client.NewLog{LoggedAt: time.Now().UTC().Format(loggedAtLayout), Note: *note}
	if *at != "" {
		in.LoggedAt = *at
	}

	label := "quick log"
	if len(positional) > 0 {
		actions, err := c.ListActions(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		ref := strings.Join(positional, " ")
		action, ok := resolveAction(actions, ref)
		if !ok {
			fatalf("no action matches %q", ref)
		}
		in.ActionID = &action.ID
		label = action.Name
	}

	entry, err := c.CreateLog(ctx, in)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Logged %s at %s\n", label, entry.Log.LoggedAt)
}

func cmdToday() {
	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	s, err := c.Stats(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("%s: %d logged, streak %d day(s)\n", s.DateInfo, s.TotalToday, s.CurrentStreak)

	entries, err := c.ListLogs(ctx, client.LogQuery{Date: time.Now().UTC().Format("2006-01-02")})
	if err != nil {
		fatalf("%v", err)
	}
	if len(entries) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		name := "quick log"
		if e.Action != nil {
			name = e.Action.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Log.ID, e.Log.LoggedAt, name, e.Log.Note)
	}
	w.Flush()
}

func cmdCalendar(args []string) {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	actionID := fs.String("action", "", "only count logs of this action id")
	server := fs.Bool("server", false, "use the server's UTC summary instead of local aggregation")
	positional := parseInterleaved(fs, args)

	now := time.Now()
	year, month := now.Year(), now.Month()
	if len(positional) > 0 {
		t, err := time.Parse("2006-01", positional[0])
		if err != nil {
			fatalf("month must be YYYY-MM, got %q", positional[0])
		}
		year, month = t.Year(), t.Month()
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	if *server {
		cal, err := c.Calendar(ctx, year, int(month)-1, *actionID)
		if err != nil {
			fatalf("%v", err)
		}
		renderCalendar(os.Stdout, stats.Calendar{
			Year:           cal.Year,
			Month:          cal.Month,
			TotalThisMonth: cal.TotalThisMonth,
			ActiveDays:     cal.ActiveDays,
			CurrentStreak:  cal.CurrentStreak,
		})
		return
	}

	entries, err := c.ListLogs(ctx, client.LogQuery{})
	if err != nil {
		fatalf("%v", err)
	}

	cal := stats.Summarize(localRecords(entries), year, month, *actionID, stats.DateOf(now))
	renderCalendar(os.Stdout, cal)
}

// localRecords converts logs to records bucketed by the local calendar day.
// Unparseable timestamps are skipped.
func localRecords(entries []client.Entry) []stats.Record {
	records := make([]stats.Record, 0, len(entries))
	for _, e := range entries {
		r, err := stats.NewRecord(e.Log.ActionID, e.Log.LoggedAt)
		if err != nil {
			continue
		}
		r.LoggedAt = r.LoggedAt.Local()
		records = append(records, r)
	}
	return records
}

func cmdShowLog(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: freq show-log <log-id>")
		os.Exit(2)
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	entry, err := c.GetLog(ctx, args[0])
	if err != nil {
		fatalf("%v", err)
	}
	printEntry(entry)
}

func cmdEditLog(args []string) {
	fs := flag.NewFlagSet("edit-log", flag.ExitOnError)
	fs.String("at", "", "new ISO-8601 timestamp")
	fs.String("note", "", "new note")
	fs.Bool("clear-note", false, "remove the note")
	positional := parseInterleaved(fs, args)

	fields := logUpdateFields(fs)
	if len(positional) != 1 || len(fields) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: freq edit-log <log-id> [--at ISO] [--note N | --clear-note]")
		os.Exit(2)
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	entry, err := c.UpdateLog(ctx, positional[0], fields)
	if err != nil {
		fatalf("%v", err)
	}
	printEntry(entry)
}

// logUpdateFields builds a partial log update from the flags the user set.
func logUpdateFields(fs *flag.FlagSet) map[string]interface{} {
	fields := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "at":
			fields["loggedAt"] = f.Value.String()
		case "note":
			fields["note"] = f.Value.String()
		case "clear-note":
			if f.Value.String() == "true" {
				fields["note"] = nil
			}
		}
	})
	return fields
}

func cmdRemoveLog(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: freq rm-log <log-id>")
		os.Exit(2)
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	if err := c.DeleteLog(ctx, args[0]); err != nil {
		fatalf("%v", err)
	}
	fmt.Println("Log removed.")
}

func printEntry(e *client.Entry) {
	name := "quick log"
	if e.Action != nil {
		name = e.Action.Name
	}
	fmt.Printf("%s  %s  %s\n", e.Log.ID, e.Log.LoggedAt, name)
	if e.Log.Note != "" {
		fmt.Printf("  %s\n", e.Log.Note)
	}
}
