package service

import "errors"

// Sentinel errors shared by all services. The HTTP layer maps them onto
// status codes; callers inside the process match them with errors.Is.
var (
	// ErrPermissionDenied means the acting user is not allowed to perform
	// the operation on this resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEventNotEditable means the event is closed, archived or deleted
	// and no longer accepts changes.
	ErrEventNotEditable = errors.New("event no longer accepts changes")

	// ErrNotEventParticipant means a referenced participant does not belong
	// to the event, or is no longer active in it.
	ErrNotEventParticipant = errors.New("participant does not belong to the event")

	// ErrNotEventFamily means a referenced family does not belong to the event.
	ErrNotEventFamily = errors.New("family does not belong to the event")

	// ErrFamilyWithoutHead means a family cannot take part in splits until
	// a head is assigned to settle on its behalf.
	ErrFamilyWithoutHead = errors.New("family has no head to settle through")

	// ErrParticipantHasExpenses blocks removing a participant who is still
	// referenced by live expenses.
	ErrParticipantHasExpenses = errors.New("participant is referenced by live expenses")

	// ErrParticipantHeadsFamily blocks removing a participant who heads a
	// family. The family needs a new head (or deletion) first.
	ErrParticipantHeadsFamily = errors.New("participant heads a family")

	// ErrFamilyHasExpenses blocks deleting a family that live expenses
	// still split against.
	ErrFamilyHasExpenses = errors.New("family is referenced by live expenses")
)
