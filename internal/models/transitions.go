package models

type statusPair struct {
	from, to RegStatus
}

// allowedTransitions is the full registration status state machine. ATTENDED
// and CANCELLED are terminal; self-transitions are not listed and therefore
// invalid.
var allowedTransitions = map[statusPair]bool{
	{RegPending, RegConfirmed}:    true,
	{RegPending, RegCancelled}:    true,
	{RegPending, RegWaitlisted}:   true,
	{RegConfirmed, RegAttended}:   true,
	{RegConfirmed, RegCancelled}:  true,
	{RegWaitlisted, RegConfirmed}: true,
	{RegWaitlisted, RegCancelled}: true,
}

// CanTransition reports whether a registration may move from one status to
// another.
func CanTransition(from, to RegStatus) bool {
	return allowedTransitions[statusPair{from, to}]
}
