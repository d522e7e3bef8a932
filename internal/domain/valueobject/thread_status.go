package valueobject

// ThreadStatus summarizes a conversation thread by its latest message.
type ThreadStatus struct {
	value string
}

var (
	ThreadStatusInProgress = ThreadStatus{"IN_PROGRESS"}
	ThreadStatusClosed     = ThreadStatus{"CLOSED"}
	ThreadStatusConfirmed  = ThreadStatus{"CONFIRMED"}
	ThreadStatusDisputed   = ThreadStatus{"DISPUTED"}
)

func (s ThreadStatus) String() string {
	return s.value
}
