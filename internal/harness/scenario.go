package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Step kinds.
const (
	StepRemote         = "remote"
	StepPush           = "push"
	StepMailbox        = "mailbox"
	StepEvent          = "event"
	StepAdvance        = "advance"
	StepSetCursor      = "set_cursor"
	StepCorruptMailbox = "corrupt_mailbox"
	StepSink           = "sink"
)

// Assertion types.
const (
	AssertNotificationCount    = "notification_count"
	AssertNotificationTitles   = "notification_titles"
	AssertNotificationContains = "notification_contains"
	AssertDismissedCount       = "dismissed_count"
	AssertCursor               = "cursor"
	AssertMailboxDepth         = "mailbox_depth"
	AssertHistoryCount         = "history_count"
	AssertDashboard            = "dashboard"
)

// Cursor names accepted by set_cursor steps and cursor assertions.
const (
	CursorOrders       = "orders"
	CursorReservations = "reservations"
)

// DefaultStart is the clock start when a scenario does not set one.
var DefaultStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// Scenario is one scripted run of the sync loop.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the fake clock's initial time.
	Start time.Time `yaml:"start,omitempty"`

	Config ScenarioConfig `yaml:"config,omitempty"`
	Setup  Setup          `yaml:"setup,omitempty"`

	// Flow runs in order. Each step may carry an expect clause matched
	// against the step's own result.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated once the flow has finished.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig overrides loop and presenter settings.
type ScenarioConfig struct {
	FetchLimit      int           `yaml:"fetch_limit,omitempty"`
	HistoryCapacity int           `yaml:"history_capacity,omitempty"`
	Reservations    *bool         `yaml:"reservations,omitempty"`
	DisplayDuration time.Duration `yaml:"display_duration,omitempty"`
}

// Setup is the state present before the flow starts.
type Setup struct {
	OrderCursor       int64            `yaml:"order_cursor,omitempty"`
	ReservationCursor int64            `yaml:"reservation_cursor,omitempty"`
	Mailbox           []map[string]any `yaml:"mailbox,omitempty"`
}

// Step is one action in the flow. Which fields apply depends on Step.
type Step struct {
	Step string `yaml:"step"`

	Orders            []map[string]any `yaml:"orders,omitempty"`
	Reservations      []map[string]any `yaml:"reservations,omitempty"`
	Error             string           `yaml:"error,omitempty"`
	ReservationsError string           `yaml:"reservations_error,omitempty"`

	Entry map[string]any `yaml:"entry,omitempty"`

	Message string         `yaml:"message,omitempty"`
	Order   map[string]any `yaml:"order,omitempty"`

	Duration time.Duration `yaml:"duration,omitempty"`

	Key   string `yaml:"key,omitempty"`
	Value int64  `yaml:"value,omitempty"`

	// Expect is a subset match against the step result. The key "error"
	// matches the sync error code, if any.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion validates the notifications or state after the flow.
type Assertion struct {
	Type    string   `yaml:"type"`
	Count   int      `yaml:"count,omitempty"`
	Titles  []string `yaml:"titles,omitempty"`
	Title   string   `yaml:"title,omitempty"`
	Message string   `yaml:"message,omitempty"`
	Key     string   `yaml:"key,omitempty"`
	Value   int64    `yaml:"value,omitempty"`
	Orders  int      `yaml:"orders,omitempty"`
	Revenue int64    `yaml:"revenue,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Start.IsZero() {
		scenario.Start = DefaultStart
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Setup.OrderCursor < 0 || s.Setup.ReservationCursor < 0 {
		return fmt.Errorf("setup cursors must be non-negative")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch step.Step {
	case StepRemote, StepMailbox, StepCorruptMailbox, StepSink:
	case StepPush:
		if step.Entry == nil {
			return fmt.Errorf("flow[%d]: entry is required for push", index)
		}
	case StepEvent:
		if step.Message == "" && step.Order == nil {
			return fmt.Errorf("flow[%d]: event needs a message or an order", index)
		}
	case StepAdvance:
		if step.Duration <= 0 {
			return fmt.Errorf("flow[%d]: duration must be positive for advance", index)
		}
	case StepSetCursor:
		if !validCursor(step.Key) {
			return fmt.Errorf("flow[%d]: key must be %q or %q", index, CursorOrders, CursorReservations)
		}
		if step.Value < 0 {
			return fmt.Errorf("flow[%d]: value must be non-negative", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: step is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown step %q", index, step.Step)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertNotificationCount, AssertDismissedCount, AssertMailboxDepth, AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertNotificationTitles:
		if len(a.Titles) == 0 {
			return fmt.Errorf("assertions[%d]: titles list is required for %s", index, a.Type)
		}
	case AssertNotificationContains:
		if a.Title == "" && a.Message == "" {
			return fmt.Errorf("assertions[%d]: title or message is required for %s", index, a.Type)
		}
	case AssertCursor:
		if !validCursor(a.Key) {
			return fmt.Errorf("assertions[%d]: key must be %q or %q", index, CursorOrders, CursorReservations)
		}
	case AssertDashboard:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validCursor(key string) bool {
	return key == CursorOrders || key == CursorReservations
}
