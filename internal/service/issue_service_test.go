package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/classify"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

var (
	resident      = domain.Actor{Type: domain.SubjectTypeResident, ID: "res-1", Name: "Rita Resident"}
	otherResident = domain.Actor{Type: domain.SubjectTypeResident, ID: "res-2", Name: "Omar Other"}
	staff         = domain.Actor{Type: domain.SubjectTypeStaff, ID: "emp-1", Name: "Sam Staff"}
)

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

type issueServiceFixture struct {
	service    *IssueService
	repo       *repository.MemoryIssueRepository
	directory  *repository.MemoryEmployeeDirectory
	dispatcher *recordingDispatcher
}

func newIssueServiceFixture(t *testing.T) *issueServiceFixture {
	t.Helper()
	repo := repository.NewMemoryIssueRepository()
	directory := repository.NewMemoryEmployeeDirectory()
	dispatcher := &recordingDispatcher{}
	svc := NewIssueService(IssueDependencies{
		IssueRepo:   repo,
		Assignments: NewAssignmentService(directory),
		Suggester:   classify.NewSuggester(nil, zap.NewNop()),
		Dispatcher:  dispatcher,
	})
	return &issueServiceFixture{service: svc, repo: repo, directory: directory, dispatcher: dispatcher}
}

func (f *issueServiceFixture) seedEmployee(t *testing.T, id string, department domain.Category, active bool) {
	t.Helper()
	err := f.directory.Create(context.Background(), &domain.Employee{
		ID:         id,
		Name:       "Employee " + id,
		Email:      id + "@city.test",
		Department: department,
		Active:     active,
	})
	require.NoError(t, err)
}

func (f *issueServiceFixture) createIssue(t *testing.T, input IssueCreateInput) *domain.Issue {
	t.Helper()
	if input.Title == "" {
		input.Title = "Broken streetlight"
	}
	if input.Description == "" {
		input.Description = "The streetlight at the corner has been dark for a week"
	}
	issue, err := f.service.Create(context.Background(), resident, input)
	require.NoError(t, err)
	return issue
}

func TestCreateSeedsHistoryAndDefaults(t *testing.T) {
	f := newIssueServiceFixture(t)

	issue := f.createIssue(t, IssueCreateInput{
		Title:       "  Pothole on Main St  ",
		Description: "Deep pothole near the crosswalk on the road",
		Category:    domain.CategoryRoads,
	})

	require.Equal(t, "Pothole on Main St", issue.Title)
	require.Equal(t, domain.StatusPending, issue.Status)
	require.Equal(t, domain.PriorityMedium, issue.Priority)
	require.Equal(t, resident.ID, issue.ReporterID)
	require.Nil(t, issue.ResolvedAt)

	require.Len(t, issue.StatusHistory, 1)
	seed := issue.StatusHistory[0]
	require.Equal(t, domain.StatusPending, seed.Status)
	require.Equal(t, "system", seed.ChangedBy)
	require.Equal(t, "created", seed.Note)
	require.False(t, seed.ChangedAt.IsZero())

	require.Len(t, f.dispatcher.events, 1)
	require.Equal(t, events.EventIssueCreated, f.dispatcher.events[0].Type)
}

func TestCreateRequiresTitleAndDescription(t *testing.T) {
	f := newIssueServiceFixture(t)

	_, err := f.service.Create(context.Background(), resident, IssueCreateInput{
		Title:       "   ",
		Description: "something",
		Category:    domain.CategoryRoads,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.service.Create(context.Background(), resident, IssueCreateInput{
		Title:       "something",
		Description: "",
		Category:    domain.CategoryRoads,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateRejectsUnknownCategoryAndPriority(t *testing.T) {
	f := newIssueServiceFixture(t)

	_, err := f.service.Create(context.Background(), resident, IssueCreateInput{
		Title:       "title",
		Description: "description",
		Category:    domain.Category("plumbing"),
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.service.Create(context.Background(), resident, IssueCreateInput{
		Title:       "title",
		Description: "description",
		Category:    domain.CategoryRoads,
		Priority:    domain.IssuePriority("asap"),
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateCoordinateValidation(t *testing.T) {
	f := newIssueServiceFixture(t)
	lat, lon := 40.7128, -74.0060
	badLat := 123.0

	_, err := f.service.Create(context.Background(), resident, IssueCreateInput{
		Title: "t", Description: "d", Category: domain.CategoryRoads, Latitude: &lat,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "latitude without longitude must fail")

	_, err = f.service.Create(context.Background(), resident, IssueCreateInput{
		Title: "t", Description: "d", Category: domain.CategoryRoads, Latitude: &badLat, Longitude: &lon,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "out-of-range latitude must fail")

	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads, Latitude: &lat, Longitude: &lon})
	require.Equal(t, lat, *issue.Latitude)
	require.Equal(t, lon, *issue.Longitude)
}

func TestCreateClassifiesWhenCategoryOmitted(t *testing.T) {
	f := newIssueServiceFixture(t)

	issue := f.createIssue(t, IssueCreateInput{
		Title:       "Water pipe burst",
		Description: "Water is flooding the street near the drain",
	})

	require.Equal(t, domain.CategoryWater, issue.Category)
	require.NotNil(t, issue.Confidence)
	require.GreaterOrEqual(t, *issue.Confidence, 0.6)
	require.NotEmpty(t, issue.Keywords)
}

func TestCreateSkipsClassificationForExplicitCategory(t *testing.T) {
	f := newIssueServiceFixture(t)

	issue := f.createIssue(t, IssueCreateInput{
		Title:       "Water pipe burst",
		Description: "Water is flooding the street near the drain",
		Category:    domain.CategoryRoads,
	})

	require.Equal(t, domain.CategoryRoads, issue.Category)
	require.Nil(t, issue.Confidence)
	require.Empty(t, issue.Keywords)
}

func TestUpdateStatusTransitionMatrix(t *testing.T) {
	allowed := map[domain.IssueStatus]map[domain.IssueStatus]bool{
		domain.StatusPending:    {domain.StatusInProgress: true, domain.StatusResolved: true, domain.StatusRejected: true},
		domain.StatusInProgress: {domain.StatusPending: true, domain.StatusResolved: true, domain.StatusRejected: true},
		domain.StatusResolved:   {},
		domain.StatusRejected:   {domain.StatusPending: true, domain.StatusInProgress: true},
	}
	statuses := []domain.IssueStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusResolved, domain.StatusRejected}

	for _, from := range statuses {
		for _, to := range statuses {
			from, to := from, to
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				f := newIssueServiceFixture(t)
				issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})
				forceStatus(t, f.repo, issue.ID, from)

				updated, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, to, "")
				if from == to || allowed[from][to] {
					require.NoError(t, err)
					require.Equal(t, to, updated.Status)
				} else {
					require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
				}
			})
		}
	}
}

// forceStatus puts an issue directly into a status without going through the
// transition graph, so matrix tests can start from any state.
func forceStatus(t *testing.T, repo *repository.MemoryIssueRepository, issueID string, status domain.IssueStatus) {
	t.Helper()
	ctx := context.Background()
	issue, err := repo.Get(ctx, issueID)
	require.NoError(t, err)
	issue.Status = status
	require.NoError(t, repo.Put(ctx, issue))
}

func TestUpdateStatusRequiresStaff(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.UpdateStatus(context.Background(), resident, issue.ID, domain.StatusInProgress, "")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.IssueStatus("archived"), "")
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := newIssueServiceFixture(t)

	_, err := f.service.UpdateStatus(context.Background(), staff, "missing", domain.StatusInProgress, "")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateStatusSameStatusAppendsHistory(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	updated, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.StatusPending, "re-triaged")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, updated.Status)
	require.Len(t, updated.StatusHistory, 2)
	require.Equal(t, "re-triaged", updated.StatusHistory[1].Note)
	require.Equal(t, staff.Name, updated.StatusHistory[1].ChangedBy)
}

func TestResolvedAtStickyAcrossReopen(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	resolved, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.StatusResolved, "fixed")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	firstResolvedAt := *resolved.ResolvedAt

	reopened, err := f.service.RejectResolution(context.Background(), resident, issue.ID, "still broken")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, reopened.Status)
	require.NotNil(t, reopened.ResolvedAt, "reopen must not clear resolvedAt")
	require.Equal(t, firstResolvedAt, *reopened.ResolvedAt)

	resolvedAgain, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.StatusResolved, "fixed again")
	require.NoError(t, err)
	require.Equal(t, firstResolvedAt, *resolvedAgain.ResolvedAt, "resolvedAt keeps the first resolution time")
}

func TestAssignSetsAssignmentFields(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.seedEmployee(t, "emp-roads", domain.CategoryRoads, true)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	assigned, err := f.service.Assign(context.Background(), staff, issue.ID, domain.CategoryRoads, "emp-roads")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryRoads, *assigned.Department)
	require.Equal(t, "emp-roads", *assigned.AssignedEmployeeID)
	require.Equal(t, "Employee emp-roads", *assigned.AssignedEmployeeName)
	require.Equal(t, staff.Name, *assigned.AssignedBy)
	require.Equal(t, domain.StatusPending, assigned.Status, "assignment does not change status")

	require.Len(t, assigned.StatusHistory, 2)
	entry := assigned.StatusHistory[1]
	require.Equal(t, domain.StatusPending, entry.Status)
	require.Contains(t, entry.Note, "assigned to Employee emp-roads")
}

func TestAssignRejectsEmployeeOutsidePool(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.seedEmployee(t, "emp-water", domain.CategoryWater, true)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.Assign(context.Background(), staff, issue.ID, domain.CategoryRoads, "emp-water")
	require.True(t, apperrors.IsCode(err, "INVALID_ASSIGNMENT"))

	// the failed assignment must leave the stored issue untouched
	stored, getErr := f.repo.Get(context.Background(), issue.ID)
	require.NoError(t, getErr)
	require.Nil(t, stored.Department)
	require.Nil(t, stored.AssignedEmployeeID)
	require.Len(t, stored.StatusHistory, 1)
}

func TestAssignRejectsInactiveEmployee(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.seedEmployee(t, "emp-retired", domain.CategoryRoads, false)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.Assign(context.Background(), staff, issue.ID, domain.CategoryRoads, "emp-retired")
	require.True(t, apperrors.IsCode(err, "INVALID_ASSIGNMENT"))
}

func TestAssignUnknownDepartment(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.Assign(context.Background(), staff, issue.ID, domain.Category("sanitation"), "emp-1")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAssignRequiresStaff(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.Assign(context.Background(), resident, issue.ID, domain.CategoryRoads, "emp-1")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestConfirmResolution(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.ConfirmResolution(context.Background(), resident, issue.ID)
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"), "cannot confirm a pending issue")

	_, err = f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.StatusResolved, "")
	require.NoError(t, err)

	_, err = f.service.ConfirmResolution(context.Background(), otherResident, issue.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"), "only the reporter can confirm")

	_, err = f.service.ConfirmResolution(context.Background(), staff, issue.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"), "staff cannot confirm on the resident's behalf")

	confirmed, err := f.service.ConfirmResolution(context.Background(), resident, issue.ID)
	require.NoError(t, err)
	require.True(t, confirmed.ResidentConfirmed)
	require.Equal(t, domain.StatusResolved, confirmed.Status)
}

func TestRejectResolution(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	_, err := f.service.UpdateStatus(context.Background(), staff, issue.ID, domain.StatusResolved, "")
	require.NoError(t, err)

	_, err = f.service.RejectResolution(context.Background(), resident, issue.ID, "   ")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "feedback is mandatory")

	_, err = f.service.RejectResolution(context.Background(), otherResident, issue.ID, "not fixed")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	rejected, err := f.service.RejectResolution(context.Background(), resident, issue.ID, "the pothole is still there")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, rejected.Status)
	require.True(t, rejected.ResidentRejected)
	require.Equal(t, "the pothole is still there", *rejected.ResidentFeedback)

	last := rejected.StatusHistory[len(rejected.StatusHistory)-1]
	require.Equal(t, domain.StatusInProgress, last.Status)
	require.Equal(t, "the pothole is still there", last.Note)

	_, err = f.service.RejectResolution(context.Background(), resident, issue.ID, "again")
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"), "issue is no longer resolved")
}

func TestUpdateStaffNotesNoHistoryEntry(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	updated, err := f.service.UpdateStaffNotes(context.Background(), staff, issue.ID, "crew scheduled for Monday")
	require.NoError(t, err)
	require.Equal(t, "crew scheduled for Monday", *updated.StaffNotes)
	require.Len(t, updated.StatusHistory, 1)

	cleared, err := f.service.UpdateStaffNotes(context.Background(), staff, issue.ID, "  ")
	require.NoError(t, err)
	require.Nil(t, cleared.StaffNotes)
}

func TestGetForResidentOwnership(t *testing.T) {
	f := newIssueServiceFixture(t)
	issue := f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})

	got, err := f.service.GetForResident(context.Background(), resident.ID, issue.ID)
	require.NoError(t, err)
	require.Equal(t, issue.ID, got.ID)

	_, err = f.service.GetForResident(context.Background(), otherResident.ID, issue.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestListForResidentReturnsOwnIssuesOnly(t *testing.T) {
	f := newIssueServiceFixture(t)
	f.createIssue(t, IssueCreateInput{Category: domain.CategoryRoads})
	_, err := f.service.Create(context.Background(), otherResident, IssueCreateInput{
		Title: "Fallen tree", Description: "A tree fell in the park", Category: domain.CategoryParks,
	})
	require.NoError(t, err)

	mine, err := f.service.ListForResident(context.Background(), resident.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, resident.ID, mine[0].ReporterID)
}
