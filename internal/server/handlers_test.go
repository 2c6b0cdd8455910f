package server

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/staffboard/staffboard/internal/app"
	"github.com/staffboard/staffboard/internal/config"
	"github.com/staffboard/staffboard/internal/domain"
)

// mockAppService implements AppService with overridable function fields.
type mockAppService struct {
	registerFn           func(ctx context.Context, employeeNo, name, email, password string, departmentID, positionID *uuid.UUID) (*domain.Employee, error)
	loginFn              func(ctx context.Context, employeeNo, password string) (string, *domain.Employee, error)
	getEmployeeFn        func(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	createPostFn         func(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error)
	listPostsFn          func(ctx context.Context, limit, offset int) ([]domain.Post, error)
	createCommentFn      func(ctx context.Context, postID, authorID uuid.UUID, body string) (*domain.Comment, error)
	toggleCommentVoteFn  func(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
	togglePostVoteFn     func(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
	publishAnnouncement  func(ctx context.Context, authorID uuid.UUID, title, body string, priority domain.Priority, targetDepartments, targetPositions []uuid.UUID) (*domain.Announcement, domain.FanOutResult, error)
	listNotificationsFn  func(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error)
	unreadCountFn        func(ctx context.Context, recipientID uuid.UUID) (int, error)
	markReadFn           func(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error)
	updateSettingsFn     func(ctx context.Context, settings domain.NotificationSettings) error
	verifyTokenFn        func(token string) (*app.Claims, error)
}

func (m *mockAppService) Register(ctx context.Context, employeeNo, name, email, password string, departmentID, positionID *uuid.UUID) (*domain.Employee, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, employeeNo, name, email, password, departmentID, positionID)
	}
	return &domain.Employee{ID: uuid.New(), EmployeeNo: employeeNo, Name: name, Email: email}, nil
}

func (m *mockAppService) Login(ctx context.Context, employeeNo, password string) (string, *domain.Employee, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, employeeNo, password)
	}
	return "", nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) GetEmployee(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	if m.getEmployeeFn != nil {
		return m.getEmployeeFn(ctx, id)
	}
	return &domain.Employee{ID: id, Name: "Alex"}, nil
}

func (m *mockAppService) ApproveEmployee(context.Context, uuid.UUID) error    { return nil }
func (m *mockAppService) DeactivateEmployee(context.Context, uuid.UUID) error { return nil }

func (m *mockAppService) CreatePost(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, authorID, title, body)
	}
	return &domain.Post{ID: uuid.New(), AuthorID: authorID, Title: title, Body: body}, nil
}

func (m *mockAppService) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return &domain.Post{ID: id}, nil
}

func (m *mockAppService) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockAppService) CreateComment(ctx context.Context, postID, authorID uuid.UUID, body string) (*domain.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, postID, authorID, body)
	}
	return &domain.Comment{ID: uuid.New(), PostID: postID, AuthorID: authorID, Body: body}, nil
}

func (m *mockAppService) ListComments(context.Context, uuid.UUID) ([]domain.Comment, error) {
	return nil, nil
}

func (m *mockAppService) ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if m.toggleCommentVoteFn != nil {
		return m.toggleCommentVoteFn(ctx, commentID, kind, employeeID)
	}
	return &domain.VoteResult{}, nil
}

func (m *mockAppService) TogglePostVote(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if m.togglePostVoteFn != nil {
		return m.togglePostVoteFn(ctx, postID, kind, employeeID)
	}
	return &domain.VoteResult{}, nil
}

func (m *mockAppService) PublishAnnouncement(ctx context.Context, authorID uuid.UUID, title, body string, priority domain.Priority, targetDepartments, targetPositions []uuid.UUID) (*domain.Announcement, domain.FanOutResult, error) {
	if m.publishAnnouncement != nil {
		return m.publishAnnouncement(ctx, authorID, title, body, priority, targetDepartments, targetPositions)
	}
	return &domain.Announcement{ID: uuid.New(), AuthorID: authorID, Title: title, Priority: priority}, domain.FanOutResult{}, nil
}

func (m *mockAppService) GetAnnouncement(ctx context.Context, id uuid.UUID) (*domain.Announcement, error) {
	return &domain.Announcement{ID: id}, nil
}

func (m *mockAppService) ListAnnouncements(context.Context, int, int) ([]domain.Announcement, error) {
	return nil, nil
}

func (m *mockAppService) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	if m.listNotificationsFn != nil {
		return m.listNotificationsFn(ctx, recipientID, limit)
	}
	return nil, nil
}

func (m *mockAppService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, recipientID)
	}
	return 0, nil
}

func (m *mockAppService) MarkNotificationRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, notificationID, recipientID)
	}
	return &domain.Notification{ID: notificationID, RecipientID: recipientID, IsRead: true}, nil
}

func (m *mockAppService) MarkAllNotificationsRead(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockAppService) GetNotificationSettings(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error) {
	return &domain.NotificationSettings{EmployeeID: employeeID}, nil
}

func (m *mockAppService) UpdateNotificationSettings(ctx context.Context, settings domain.NotificationSettings) error {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(ctx, settings)
	}
	return nil
}

func (m *mockAppService) VerifyToken(token string) (*app.Claims, error) {
	if m.verifyTokenFn != nil {
		return m.verifyTokenFn(token)
	}
	return nil, fmt.Errorf("not implemented")
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, appSvc AppService) *Server {
	t.Helper()
	cfg := &config.Config{
		AppEnv:            "test",
		Port:              "8080",
		MaxClientsPerUser: 5,
	}
	return NewServer(cfg, appSvc, nil, stubPinger{}, stubPinger{})
}

// newAuthedContext builds an echo context with the employee identity set,
// as requireAuth would have done.
func newAuthedContext(srv *Server, method, path string, body io.Reader, id uuid.UUID, isAdmin bool) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set(ctxKeyEmployeeID, id)
	c.Set(ctxKeyIsAdmin, isAdmin)
	return c, rec
}
