package notify

import (
	"fmt"
	"sort"

	"github.com/gtrack/backend/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DirectorSource yields the user ids currently holding the Director role.
type DirectorSource interface {
	DirectorIDs() ([]uint, error)
}

// Engine turns domain events into per-recipient Notification rows. All
// fanout runs synchronously inside the triggering request; recipient set
// computation is kept in pure functions so the rules are testable without a
// store.
type Engine struct {
	db        *gorm.DB
	directors DirectorSource
	logger    *zap.Logger
}

func NewEngine(db *gorm.DB, directors DirectorSource, logger *zap.Logger) *Engine {
	return &Engine{db: db, directors: directors, logger: logger}
}

// ProjectCreatedRecipients is the canonical project-creation rule:
// members ∪ directors, minus the owner.
func ProjectCreatedRecipients(memberIDs, directorIDs []uint, ownerID uint) []uint {
	set := make(map[uint]struct{}, len(memberIDs)+len(directorIDs))
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	for _, id := range directorIDs {
		set[id] = struct{}{}
	}
	delete(set, ownerID)
	return sortedIDs(set)
}

// IssueActivityRecipients: all directors, the owner if they are a Team Lead,
// and Team Lead members of the project. The actor is always excluded, even
// when they qualify through a role.
func IssueActivityRecipients(directorIDs []uint, ownerID uint, ownerIsLead bool, leadMemberIDs []uint, actorID uint) []uint {
	set := make(map[uint]struct{}, len(directorIDs)+len(leadMemberIDs)+1)
	for _, id := range directorIDs {
		set[id] = struct{}{}
	}
	if ownerIsLead {
		set[ownerID] = struct{}{}
	}
	for _, id := range leadMemberIDs {
		set[id] = struct{}{}
	}
	delete(set, actorID)
	return sortedIDs(set)
}

func (e *Engine) ProjectCreated(ev ProjectCreatedEvent) error {
	directorIDs, err := e.directors.DirectorIDs()
	if err != nil {
		return fmt.Errorf("load directors: %w", err)
	}
	recipients := ProjectCreatedRecipients(ev.MemberIDs, directorIDs, ev.OwnerID)
	verb := fmt.Sprintf("%s created project: %s", ev.OwnerUsername, ev.ProjectName)
	return e.write(recipients, verb, ev.ProjectID)
}

func (e *Engine) IssueActivity(ev IssueActivityEvent) error {
	directorIDs, err := e.directors.DirectorIDs()
	if err != nil {
		return fmt.Errorf("load directors: %w", err)
	}

	var project model.Project
	if err := e.db.Preload("Owner.Profile").First(&project, ev.ProjectID).Error; err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	ownerIsLead := project.Owner != nil &&
		project.Owner.Profile != nil &&
		project.Owner.Profile.Role == model.RoleLead

	var leadMemberIDs []uint
	err = e.db.Model(&model.ProjectMember{}).
		Joins("JOIN profiles ON profiles.user_id = project_members.user_id").
		Where("project_members.project_id = ? AND profiles.role = ?", ev.ProjectID, model.RoleLead).
		Pluck("project_members.user_id", &leadMemberIDs).Error
	if err != nil {
		return fmt.Errorf("load lead members: %w", err)
	}

	recipients := IssueActivityRecipients(directorIDs, project.OwnerID, ownerIsLead, leadMemberIDs, ev.ActorID)
	if len(recipients) == 0 {
		// empty after excluding the actor is a no-op, not an error
		return nil
	}
	verb := fmt.Sprintf("%s – %s", ev.Verb, ev.ProjectName)
	return e.write(recipients, verb, ev.ProjectID)
}

func (e *Engine) write(recipients []uint, verb string, projectID uint) error {
	if len(recipients) == 0 {
		return nil
	}
	rows := make([]model.Notification, 0, len(recipients))
	for _, uid := range recipients {
		pid := projectID
		rows = append(rows, model.Notification{
			UserID:    uid,
			Verb:      verb,
			ProjectID: &pid,
		})
	}
	if err := e.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("write notifications: %w", err)
	}
	e.logger.Debug("notification fanout",
		zap.String("verb", verb),
		zap.Int("recipients", len(rows)))
	return nil
}

func sortedIDs(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
