package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/service"
)

func TestMyTasksDeduplicatesAssigneeAndMember(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	other := seedUser(t, db, "other", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)

	// assignee AND member of the same issue
	both := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "both", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &user.ID,
	})
	require.NoError(t, db.Create(&model.IssueMember{IssueID: both.ID, UserID: user.ID}).Error)

	memberOnly := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "member only", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &other.ID,
	})
	require.NoError(t, db.Create(&model.IssueMember{IssueID: memberOnly.ID, UserID: user.ID}).Error)

	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "unrelated", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &other.ID,
	})

	issues, err := svc.MyTasks(user, service.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 2)
}

func TestMyTasksDueAscOrdering(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)

	d1 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	late := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "late", Status: model.StatusTodo,
		Priority: model.PriorityLow, AssigneeID: &user.ID, DueDate: datePtr(d2),
	})
	early := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "early", Status: model.StatusTodo,
		Priority: model.PriorityLow, AssigneeID: &user.ID, DueDate: datePtr(d1),
	})
	noDue := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "no due", Status: model.StatusTodo,
		Priority: model.PriorityLow, AssigneeID: &user.ID,
	})

	for i := 0; i < 3; i++ {
		issues, err := svc.MyTasks(user, service.TaskFilter{Order: "due_asc"})
		require.NoError(t, err)
		require.Len(t, issues, 3)
		// NULL due dates sort first under ascending order
		require.Equal(t, noDue.ID, issues[0].ID)
		require.Equal(t, early.ID, issues[1].ID)
		require.Equal(t, late.ID, issues[2].ID)
	}
}

func TestMyTasksPriorityOrdersByLabel(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)

	for _, p := range []string{model.PriorityCritical, model.PriorityMedium, model.PriorityHigh, model.PriorityLow} {
		seedIssue(t, db, &model.Issue{
			ProjectID: project.ID, Title: p, Status: model.StatusTodo,
			Priority: p, AssigneeID: &user.ID,
		})
	}

	issues, err := svc.MyTasks(user, service.TaskFilter{Order: "prio_desc"})
	require.NoError(t, err)
	require.Len(t, issues, 4)

	// label-string descending, not severity rank
	got := []string{issues[0].Priority, issues[1].Priority, issues[2].Priority, issues[3].Priority}
	require.Equal(t, []string{
		model.PriorityMedium, model.PriorityLow, model.PriorityHigh, model.PriorityCritical,
	}, got)
}

func TestMyTasksStatusFilter(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)

	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "todo", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &user.ID,
	})
	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "done", Status: model.StatusDone,
		Priority: model.PriorityMedium, AssigneeID: &user.ID,
	})

	issues, err := svc.MyTasks(user, service.TaskFilter{Status: model.StatusDone})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, "done", issues[0].Title)

	issues, err = svc.MyTasks(user, service.TaskFilter{Status: "all"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
}

func TestSummaryCountsAssigneeOnly(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	other := seedUser(t, db, "other", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)

	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "todo overdue", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &user.ID, DueDate: datePtr(past),
	})
	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "done past due", Status: model.StatusDone,
		Priority: model.PriorityMedium, AssigneeID: &user.ID, DueDate: datePtr(past),
	})
	// member-only issues stay out of the personal summary
	memberOnly := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "member only", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &other.ID,
	})
	require.NoError(t, db.Create(&model.IssueMember{IssueID: memberOnly.ID, UserID: user.ID}).Error)

	sum, err := svc.Summary(user.ID, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), sum.Todo)
	require.Equal(t, int64(0), sum.InProgress)
	require.Equal(t, int64(1), sum.Done)
	// done issues never count as overdue
	require.Equal(t, int64(1), sum.Overdue)
}

func TestViewTargetsPreferLatestHiddenIssue(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	user := seedUser(t, db, "user", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", user)
	bare := seedProject(t, db, "Q", "Q", user)

	boardRow := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "board row", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &user.ID, ShowOnBoard: true,
	})
	seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "older hidden", Status: model.StatusTodo,
		Priority: model.PriorityMedium, ShowOnBoard: false,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	hidden := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "latest hidden", Status: model.StatusTodo,
		Priority: model.PriorityMedium, ShowOnBoard: false,
		CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	plain := seedIssue(t, db, &model.Issue{
		ProjectID: bare.ID, Title: "plain", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &user.ID, ShowOnBoard: true,
	})

	targets, err := svc.ViewTargets([]model.Issue{*boardRow, *plain})
	require.NoError(t, err)
	require.Equal(t, hidden.ID, targets[boardRow.ID])
	require.Equal(t, plain.ID, targets[plain.ID])
}

func TestQuickStatusUpdateClaimsBoardSlot(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	actor := seedUser(t, db, "actor", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", actor)

	issue, err := svc.QuickStatusUpdate(project, actor, service.IssueInput{Description: "all good"})
	require.NoError(t, err)
	require.Equal(t, "Status update", issue.Title)
	require.True(t, issue.ShowOnBoard)
	require.NotNil(t, issue.AssigneeID)
	require.Equal(t, actor.ID, *issue.AssigneeID)

	var reloaded model.Project
	require.NoError(t, db.First(&reloaded, project.ID).Error)
	require.NotNil(t, reloaded.BoardIssueID)
	require.Equal(t, issue.ID, *reloaded.BoardIssueID)
}

func TestReportIssueReusesBoardSlot(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	actor := seedUser(t, db, "actor", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", actor)

	first, err := svc.ReportIssue(project, actor, service.IssueInput{Title: "blocker"})
	require.NoError(t, err)

	var reloaded model.Project
	require.NoError(t, db.First(&reloaded, project.ID).Error)
	require.NotNil(t, reloaded.BoardIssueID)
	require.Equal(t, first.ID, *reloaded.BoardIssueID)

	second, err := svc.ReportIssue(&reloaded, actor, service.IssueInput{Title: "blocker update"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "blocker update", second.Title)

	var count int64
	require.NoError(t, db.Model(&model.Issue{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpdateStatusAssigneeOnly(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	assignee := seedUser(t, db, "assignee", model.RoleEmployee, "")
	intruder := seedUser(t, db, "intruder", model.RoleEmployee, "")
	project := seedProject(t, db, "P", "P", assignee)

	issue := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "task", Status: model.StatusTodo,
		Priority: model.PriorityMedium, AssigneeID: &assignee.ID,
	})

	err := svc.UpdateStatus(issue.ID, intruder, model.StatusDone)
	require.Error(t, err)
	require.Contains(t, err.Error(), "40403:")

	require.NoError(t, svc.UpdateStatus(issue.ID, assignee, model.StatusDone))

	var reloaded model.Issue
	require.NoError(t, db.First(&reloaded, issue.ID).Error)
	require.Equal(t, model.StatusDone, reloaded.Status)
}

func TestDeleteCommentPermissions(t *testing.T) {
	db := openTestDB(t)
	svc := newIssueService(db)

	author := seedUser(t, db, "author", model.RoleEmployee, "")
	stranger := seedUser(t, db, "stranger", model.RoleEmployee, "")
	boss := seedUser(t, db, "boss", model.RoleBoss, "")
	project := seedProject(t, db, "P", "P", author)

	issue := seedIssue(t, db, &model.Issue{
		ProjectID: project.ID, Title: "task", Status: model.StatusTodo,
		Priority: model.PriorityMedium,
	})
	comment, err := svc.AddComment(issue.ID, author.ID, "first")
	require.NoError(t, err)

	err = svc.DeleteComment(comment.ID, stranger)
	require.Error(t, err)
	require.Contains(t, err.Error(), "40303:")

	require.NoError(t, svc.DeleteComment(comment.ID, boss))
}
