package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v", event.Seq, event.Step, event.Result)
			if event.Error != "" {
				fmt.Fprintf(&buf, " error=%s", event.Error)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates every assertion and returns the messages of
// those that failed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertNotificationCount:
		return compareCount(result, a.Type, "notifications", a.Count, len(result.Notifications))
	case AssertDismissedCount:
		return compareCount(result, a.Type, "dismissals", a.Count, len(result.Dismissed))
	case AssertMailboxDepth:
		return compareCount(result, a.Type, "mailbox entries", a.Count, result.Final.MailboxDepth)
	case AssertHistoryCount:
		return compareCount(result, a.Type, "history entries", a.Count, result.Final.History)

	case AssertNotificationTitles:
		if titles := result.Titles(); !slices.Equal(titles, a.Titles) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%q", a.Titles),
				Actual:   fmt.Sprintf("%q", titles),
				Trace:    result.Trace,
			}
		}
		return nil

	case AssertNotificationContains:
		for _, n := range result.Notifications {
			if (a.Title == "" || n.Title == a.Title) && strings.Contains(n.Message, a.Message) {
				return nil
			}
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("notification titled %q containing %q", a.Title, a.Message),
			Actual:   "not found",
			Trace:    result.Trace,
		}

	case AssertCursor:
		actual := result.Final.OrderCursor
		if a.Key == CursorReservations {
			actual = result.Final.ReservationCursor
		}
		if actual != a.Value {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s cursor %d", a.Key, a.Value),
				Actual:   fmt.Sprintf("%s cursor %d", a.Key, actual),
			}
		}
		return nil

	case AssertDashboard:
		if result.Final.DashboardOrders != a.Orders || result.Final.DashboardRevenue != a.Revenue {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d orders, revenue %d", a.Orders, a.Revenue),
				Actual:   fmt.Sprintf("%d orders, revenue %d", result.Final.DashboardOrders, result.Final.DashboardRevenue),
			}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func compareCount(result *Result, kind, noun string, expected, actual int) error {
	if expected == actual {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d %s", expected, noun),
		Actual:   fmt.Sprintf("%d %s", actual, noun),
		Trace:    result.Trace,
	}
}

// matchExpect compares a step's result with its expect clause (subset
// match) and returns a description of the first mismatch, or "".
func matchExpect(event TraceEvent, expect map[string]any) string {
	if len(expect) == 0 {
		return ""
	}
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := expect[key]
		if key == "error" {
			if fmt.Sprint(want) != event.Error {
				return fmt.Sprintf("expected error %v, got %q", want, event.Error)
			}
			continue
		}
		got, ok := event.Result[key]
		if !ok {
			return fmt.Sprintf("result has no field %q", key)
		}
		if !valuesEqual(got, want) {
			return fmt.Sprintf("field %q = %v, expected %v", key, got, want)
		}
	}
	return ""
}

// valuesEqual compares scalars by their printed form so that YAML ints
// match the int and int64 values steps report.
func valuesEqual(actual, expected any) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}
