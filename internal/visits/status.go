package visits

// DateOrder classifies the incoming record's date against the recorded
// visit's date. OnOrBeforeCurrent means the recorded appointment is on or
// after the incoming date, i.e. the record refers to the currently pending
// appointment. AfterCurrent means the appointment has been pushed later.
type DateOrder int

const (
	OnOrBeforeCurrent DateOrder = iota
	AfterCurrent
)

// Decision is the action a matched transition prescribes.
type Decision struct {
	NewStatus Status
	// MoveDate updates the visit's date to the incoming date; otherwise the
	// recorded date is kept.
	MoveDate bool
}

type transitionKey struct {
	current  Status
	incoming Status
	order    DateOrder
}

// transitions is the full rule table. Anything absent is a no-op: either the
// visit is already closed or no rule makes the incoming record meaningful.
// Only scheduled/rescheduled visits may progress, so a closed visit can never
// regress to scheduled.
var transitions = map[transitionKey]Decision{
	// Updates to the currently pending appointment.
	{StatusScheduled, StatusAttended, OnOrBeforeCurrent}:   {NewStatus: StatusAttended},
	{StatusRescheduled, StatusAttended, OnOrBeforeCurrent}: {NewStatus: StatusAttended},
	{StatusScheduled, StatusMissed, OnOrBeforeCurrent}:     {NewStatus: StatusMissed},
	{StatusRescheduled, StatusMissed, OnOrBeforeCurrent}:   {NewStatus: StatusMissed},

	// The appointment moved to a later date.
	{StatusScheduled, StatusRescheduled, AfterCurrent}: {NewStatus: StatusRescheduled, MoveDate: true},
}

// Transition looks up the rule for (current, incoming, order). ok=false means
// no rule applies and the visit must be left untouched.
func Transition(current, incoming Status, order DateOrder) (Decision, bool) {
	d, ok := transitions[transitionKey{current, incoming, order}]
	return d, ok
}
