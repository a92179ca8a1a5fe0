package escalations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/testutil"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

type countingRecorder struct {
	transitions []string
	missing     []string
}

func (r *countingRecorder) RecordTransition(from, to string) {
	r.transitions = append(r.transitions, from+">"+to)
}

func (r *countingRecorder) RecordHistoryMissing(op string) { r.missing = append(r.missing, op) }

type ServiceTestSuite struct {
	suite.Suite
	now     time.Time
	repo    *testutil.EscalationRepo
	history *testutil.HistoryRepo
	sink    *testutil.RecordingSink
	pub     *testutil.CapturePublisher
	rec     *countingRecorder
	inv     *testutil.Invalidations
	svc     Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.now = time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	s.repo = new(testutil.EscalationRepo)
	s.history = new(testutil.HistoryRepo)
	s.sink = &testutil.RecordingSink{}
	s.pub = &testutil.CapturePublisher{}
	s.rec = &countingRecorder{}
	s.inv = &testutil.Invalidations{}

	svc, err := NewService(Deps{
		Repo:        s.repo,
		History:     s.history,
		Authz:       testutil.RoleAuthorizer{},
		Events:      events.NewEmitter(s.pub, nil, logging.NewNopLogger()),
		Notify:      s.sink,
		Metrics:     s.rec,
		Invalidator: s.inv,
		Logger:      logging.NewNopLogger(),
		Now:         testutil.FixedClock(s.now),
	})
	s.Require().NoError(err)
	s.svc = svc
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func raiseInput() escalation.RaiseInput {
	return escalation.RaiseInput{
		ProductID:  "p-1",
		ScopeLevel: escalation.ScopeCity,
		CityID:     "city-5",
		POC:        "dana",
		Reason:     "partner ready",
		RaisedBy:   "spoofed",
	}
}

func (s *ServiceTestSuite) TestRaise_WritesEscalationThenHistory() {
	var order []string
	s.repo.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { order = append(order, "create") }).Return(nil)
	s.history.On("Append", mock.Anything, mock.Anything).Run(func(mock.Arguments) { order = append(order, "append") }).Return(nil)

	res, err := s.svc.Raise(testutil.AsUser(user.RoleEditor), raiseInput())
	s.Require().NoError(err)
	s.Equal([]string{"create", "append"}, order)
	s.True(res.HistoryRecorded)
	s.Equal(escalation.StatusSubmitted, res.Escalation.Status)
	s.Equal("u-editor", res.Escalation.RaisedBy)

	entry := s.history.Calls[0].Arguments.Get(1).(*escalation.HistoryEntry)
	s.Equal(escalation.Status(""), entry.OldStatus)
	s.Equal(escalation.StatusSubmitted, entry.NewStatus)
	s.Equal(res.Escalation.ID, entry.EscalationID)
	s.Equal(common.NotifySuccess, s.sink.Last().Level)
	s.Equal(1, s.inv.Count())
}

func (s *ServiceTestSuite) TestRaise_HistoryFailureKeepsEscalation() {
	s.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	s.history.On("Append", mock.Anything, mock.Anything).Return(errors.New("network error"))

	res, err := s.svc.Raise(testutil.AsUser(user.RoleEditor), raiseInput())
	s.Require().NoError(err)
	s.False(res.HistoryRecorded)
	s.NotNil(res.Escalation)
	s.repo.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything)
	s.Equal([]string{"raise"}, s.rec.missing)
	s.Equal(common.NotifyWarning, s.sink.Last().Level)
	s.Contains(s.pub.Types(), common.EventEscalationHistoryMissing)
}

func (s *ServiceTestSuite) TestRaise_ValidationAndPermission() {
	in := raiseInput()
	in.POC = ""
	_, err := s.svc.Raise(testutil.AsUser(user.RoleEditor), in)
	s.True(apperrors.IsValidation(err))

	_, err = s.svc.Raise(testutil.AsUser(user.RoleViewer), raiseInput())
	s.Equal(apperrors.ErrCodeForbidden, apperrors.GetCode(err))

	s.repo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestRaise_CreateFailure() {
	s.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := s.svc.Raise(testutil.AsUser(user.RoleEditor), raiseInput())
	s.Error(err)
	s.history.AssertNotCalled(s.T(), "Append", mock.Anything, mock.Anything)
	s.Equal(common.NotifyError, s.sink.Last().Level)
}

func (s *ServiceTestSuite) submitted() *escalation.Escalation {
	return &escalation.Escalation{
		ID: "esc-1", ProductID: "p-1", ScopeLevel: escalation.ScopeCity, CityID: "city-5",
		Status: escalation.StatusSubmitted, CreatedAt: s.now.Add(-time.Hour),
	}
}

func (s *ServiceTestSuite) TestChangeStatus_ExactlyOneHistoryRow() {
	s.repo.On("GetByID", mock.Anything, "esc-1").Return(s.submitted(), nil)
	s.repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil)
	s.history.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := s.svc.ChangeStatus(testutil.AsUser(user.RoleAdmin), "esc-1",
		escalation.StatusChangePatch{Status: escalation.StatusResolvedLaunched, Notes: "signed off"})
	s.Require().NoError(err)
	s.True(res.HistoryRecorded)

	s.history.AssertNumberOfCalls(s.T(), "Append", 1)
	entry := s.history.Calls[0].Arguments.Get(1).(*escalation.HistoryEntry)
	s.Equal(escalation.StatusSubmitted, entry.OldStatus)
	s.Equal(escalation.StatusResolvedLaunched, entry.NewStatus)
	s.Equal("u-admin", entry.Actor)
	s.Equal("signed off", entry.Notes)

	s.Require().NotNil(res.Escalation.AlignedAt)
	s.Require().NotNil(res.Escalation.ResolvedAt)
	s.Equal(s.now, *res.Escalation.ResolvedAt)
	s.Equal([]string{"SUBMITTED>RESOLVED_LAUNCHED"}, s.rec.transitions)
}

func (s *ServiceTestSuite) TestChangeStatus_AdminOnly() {
	_, err := s.svc.ChangeStatus(testutil.AsUser(user.RoleEditor), "esc-1",
		escalation.StatusChangePatch{Status: escalation.StatusInDiscussion})
	s.Equal(apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	s.repo.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestChangeStatus_RejectsTransition() {
	e := s.submitted()
	e.Status = escalation.StatusResolvedLaunched
	s.repo.On("GetByID", mock.Anything, "esc-1").Return(e, nil)

	_, err := s.svc.ChangeStatus(testutil.AsUser(user.RoleAdmin), "esc-1",
		escalation.StatusChangePatch{Status: escalation.StatusInDiscussion})
	s.True(apperrors.IsCode(err, apperrors.ErrCodeTransitionNotAllowed))
	s.repo.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything)
	s.history.AssertNotCalled(s.T(), "Append", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestChangeStatus_HistoryFailure() {
	s.repo.On("GetByID", mock.Anything, "esc-1").Return(s.submitted(), nil)
	s.repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil)
	s.history.On("Append", mock.Anything, mock.Anything).Return(errors.New("timeout"))

	res, err := s.svc.ChangeStatus(testutil.AsUser(user.RoleAdmin), "esc-1",
		escalation.StatusChangePatch{Status: escalation.StatusInDiscussion})
	s.Require().NoError(err)
	s.False(res.HistoryRecorded)
	s.Equal(escalation.StatusInDiscussion, res.Escalation.Status)
	s.Equal([]string{"status_change"}, s.rec.missing)
}

func (s *ServiceTestSuite) TestChangeStatus_UnknownEscalation() {
	s.repo.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.New(apperrors.ErrCodeEscalationNotFound, "escalation not found"))

	_, err := s.svc.ChangeStatus(testutil.AsUser(user.RoleAdmin), "nope",
		escalation.StatusChangePatch{Status: escalation.StatusInDiscussion})
	s.True(apperrors.IsNotFound(err))
}

func (s *ServiceTestSuite) TestGet_IncludesWorkflowHints() {
	s.repo.On("GetByID", mock.Anything, "esc-1").Return(s.submitted(), nil)

	d, err := s.svc.Get(testutil.AsUser(user.RoleViewer), "esc-1")
	s.Require().NoError(err)
	s.Equal(escalation.StatusInDiscussion, d.Next)
	s.Equal([]escalation.Status{
		escalation.StatusInDiscussion,
		escalation.StatusResolvedBlocked,
		escalation.StatusResolvedLaunching,
		escalation.StatusResolvedLaunched,
	}, d.Allowed)
}

func (s *ServiceTestSuite) TestList_RejectsUnknownStatus() {
	_, err := s.svc.List(testutil.AsUser(user.RoleViewer), escalation.Filter{Statuses: []escalation.Status{"DONE"}})
	s.True(apperrors.IsValidation(err))
}

func (s *ServiceTestSuite) TestHistory() {
	s.repo.On("GetByID", mock.Anything, "esc-1").Return(s.submitted(), nil)
	s.history.On("ListByEscalation", mock.Anything, "esc-1").Return([]*escalation.HistoryEntry{{ID: "h-1"}}, nil)

	got, err := s.svc.History(testutil.AsUser(user.RoleViewer), "esc-1")
	s.Require().NoError(err)
	s.Len(got, 1)

	_, err = s.svc.History(context.Background(), "esc-1")
	s.Equal(apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
}
