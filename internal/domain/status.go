package domain

// RecipientStatus is the persisted signing status of a Recipient.
type RecipientStatus string

const (
	StatusCreated                RecipientStatus = "CREATED"
	StatusSentForSignature       RecipientStatus = "SENT_FOR_SIGNATURE"
	StatusWaitingForCounterparty RecipientStatus = "WAITING_FOR_COUNTERPARTY"
	StatusSigned                 RecipientStatus = "SIGNED"
	StatusRejected               RecipientStatus = "REJECTED"
	StatusError                  RecipientStatus = "ERROR"
)

// transitions lists, for every status, the statuses it may advance to.
// Terminal statuses have no entry.
var transitions = map[RecipientStatus]map[RecipientStatus]bool{
	StatusCreated: {
		StatusSentForSignature:       true,
		StatusWaitingForCounterparty: true,
		StatusSigned:                 true,
		StatusRejected:               true,
		StatusError:                  true,
	},
	StatusSentForSignature: {
		StatusWaitingForCounterparty: true,
		StatusSigned:                 true,
		StatusRejected:               true,
		StatusError:                  true,
	},
	StatusWaitingForCounterparty: {
		StatusSigned:   true,
		StatusRejected: true,
		StatusError:    true,
	},
}

// IsValid reports whether s is one of the known statuses.
func (s RecipientStatus) IsValid() bool {
	switch s {
	case StatusCreated, StatusSentForSignature, StatusWaitingForCounterparty,
		StatusSigned, StatusRejected, StatusError:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s RecipientStatus) IsTerminal() bool {
	return s == StatusSigned || s == StatusRejected || s == StatusError
}

// CanTransition reports whether moving from s to next is an allowed advance.
func (s RecipientStatus) CanTransition(next RecipientStatus) bool {
	return transitions[s][next]
}

// Resolve returns the status a recipient in s ends up in after an update
// proposing next, and whether that differs from s. Re-applying the current
// status, moving backwards, or leaving a terminal status all resolve to s.
func (s RecipientStatus) Resolve(next RecipientStatus) (RecipientStatus, bool) {
	if s == next || !s.CanTransition(next) {
		return s, false
	}
	return next, true
}
