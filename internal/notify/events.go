package notify

// Verbs used by the board actions. Other callers may pass free text; the
// fanout rules do not depend on the verb content.
const (
	VerbUpdatedStatus = "updated project status"
	VerbReportedIssue = "reported an issue"
)

// ProjectCreatedEvent fans out to the project's members plus every Director,
// excluding the owner.
type ProjectCreatedEvent struct {
	ProjectID     uint
	ProjectName   string
	OwnerID       uint
	OwnerUsername string
	MemberIDs     []uint
}

// IssueActivityEvent fans out to every Director, the project owner when they
// are a Team Lead, and Team Lead members of the project. The actor is never
// notified.
type IssueActivityEvent struct {
	ProjectID   uint
	ProjectName string
	ActorID     uint
	Verb        string
}
