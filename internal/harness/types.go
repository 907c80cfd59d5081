package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq    int            `json:"seq"`
	Step   string         `json:"step"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NotificationRecord is a rendered notification without its payload.
type NotificationRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

// FinalState is the state left behind by a scenario. MailboxDepth is -1
// when the mailbox slot is corrupt.
type FinalState struct {
	OrderCursor       int64 `json:"order_cursor"`
	ReservationCursor int64 `json:"reservation_cursor"`
	MailboxDepth      int   `json:"mailbox_depth"`
	History           int   `json:"history"`
	DashboardOrders   int   `json:"dashboard_orders"`
	DashboardRevenue  int64 `json:"dashboard_revenue"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace         []TraceEvent         `json:"trace"`
	Notifications []NotificationRecord `json:"notifications"`
	Dismissed     []string             `json:"dismissed"`
	Final         FinalState           `json:"final"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with empty lists.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Notifications: []NotificationRecord{},
		Dismissed:     []string{},
		Errors:        []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Titles returns the notification titles in render order.
func (r *Result) Titles() []string {
	out := make([]string, len(r.Notifications))
	for i, n := range r.Notifications {
		out[i] = n.Title
	}
	return out
}
