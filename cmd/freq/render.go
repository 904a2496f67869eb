package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jimdaga/frequency/internal/stats"
)

// renderCalendar prints a Sunday-first month grid with active days marked
// by an asterisk, followed by the month total and current streak.
func renderCalendar(w io.Writer, cal stats.Calendar) {
	month := time.Month(cal.Month + 1)
	first := time.Date(cal.Year, month, 1, 0, 0, 0, 0, time.UTC)

	active := make(map[int]bool, len(cal.ActiveDays))
	for _, d := range cal.ActiveDays {
		active[d] = true
	}

	fmt.Fprintf(w, "%s %d\n", month, cal.Year)
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")

	col := int(first.Weekday())
	for i := 0; i < col; i++ {
		fmt.Fprint(w, "    ")
	}
	for day := 1; day <= stats.DaysIn(cal.Year, month); day++ {
		mark := " "
		if active[day] {
			mark = "*"
		}
		fmt.Fprintf(w, "%3d%s", day, mark)
		col++
		if col == 7 {
			fmt.Fprintln(w)
			col = 0
		}
	}
	if col != 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nTotal this month: %d\n", cal.TotalThisMonth)
	fmt.Fprintf(w, "Current streak:   %d day(s)\n", cal.CurrentStreak)
}
