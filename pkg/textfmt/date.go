// Package textfmt turns raw answers into their displayed Portuguese form and
// substitutes them into template text. Every function is pure.
package textfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// FormatDate renders value as "5 de março de 2024". Values that already
// contain " de " are returned unchanged, so FormatDate is idempotent.
// YYYY-MM-DD is read as calendar components with no zone conversion.
// Unparseable input is returned verbatim.
func FormatDate(value string) string {
	if strings.Contains(value, " de ") {
		return value
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	if m := isoDate.FindStringSubmatch(trimmed); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		// time.Date normalises out-of-range components the same way a
		// calendar constructor would (2024-02-30 -> 1 de março).
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return longDate(d)
	}

	parsed, err := dateparse.ParseIn(trimmed, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return value
	}
	return longDate(parsed)
}

func longDate(d time.Time) string {
	return fmt.Sprintf("%d de %s de %d", d.Day(), monthNames[d.Month()-1], d.Year())
}

// ShortDateTime is the trailer timestamp format, e.g. "05/03/2024 às 14:30".
func ShortDateTime(t time.Time) string {
	return t.Format("02/01/2006") + " às " + t.Format("15:04")
}
