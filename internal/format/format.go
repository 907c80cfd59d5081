// Package format renders amounts, dates and contact details the way the
// café staff read them (Indonesian locale).
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// Currency formats a rupiah amount with Indonesian digit grouping and no
// fraction digits, e.g. 25000 -> "Rp 25.000".
func Currency(amount int64) string {
	if amount < 0 {
		return "-Rp " + printer.Sprintf("%d", -amount)
	}
	return "Rp " + printer.Sprintf("%d", amount)
}

// Number formats an integer with Indonesian digit grouping.
func Number(n int64) string {
	return printer.Sprintf("%d", n)
}

var weekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Date formats t as a long Indonesian date, e.g. "Rabu, 1 Mei 2024".
func Date(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year())
}

// Time formats t as two-digit hour and minute, e.g. "09.30".
func Time(t time.Time) string {
	return t.Format("15.04")
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,13}$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is a 10 to 13 digit phone number. Spaces,
// dashes and a leading plus are ignored.
func ValidPhone(s string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(s)
	return phonePattern.MatchString(cleaned)
}
