package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
	"github.com/staffboard/staffboard/internal/votes"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
)

// VoteEngine is the toggle entry point the service delegates to.
type VoteEngine interface {
	Toggle(ctx context.Context, target votes.Target, targetID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
}

// NotificationPipeline is the subset of the notify pipeline the service uses.
type NotificationPipeline interface {
	FanOutAnnouncement(ctx context.Context, announcement *domain.Announcement) (domain.FanOutResult, error)
	NotifyComment(ctx context.Context, post *domain.Post, comment *domain.Comment, authorName string) (domain.FanOutResult, error)
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	GetSettings(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error)
	UpdateSettings(ctx context.Context, settings domain.NotificationSettings) error
	PurgeRead(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service is the application layer, the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	employees     domain.EmployeeRepository
	posts         domain.PostRepository
	comments      domain.CommentRepository
	announcements domain.AnnouncementRepository
	voteEngine    VoteEngine
	pipeline      NotificationPipeline
	issuer        *TokenIssuer
	clock         clockwork.Clock
	retention     time.Duration
}

func NewService(
	employees domain.EmployeeRepository,
	posts domain.PostRepository,
	comments domain.CommentRepository,
	announcements domain.AnnouncementRepository,
	voteEngine VoteEngine,
	pipeline NotificationPipeline,
	issuer *TokenIssuer,
	clock clockwork.Clock,
	retention time.Duration,
) *Service {
	return &Service{
		employees:     employees,
		posts:         posts,
		comments:      comments,
		announcements: announcements,
		voteEngine:    voteEngine,
		pipeline:      pipeline,
		issuer:        issuer,
		clock:         clock,
		retention:     retention,
	}
}

// --- Accounts ---

// Register creates a new employee account. Accounts start unapproved;
// an admin must approve them before login succeeds.
func (s *Service) Register(ctx context.Context, employeeNo, name, email, password string, departmentID, positionID *uuid.UUID) (*domain.Employee, error) {
	employeeNo = strings.TrimSpace(employeeNo)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if employeeNo == "" || name == "" || email == "" {
		return nil, apperrors.ValidationError("employee_no, name and email are required")
	}
	if len(password) < 8 {
		return nil, apperrors.ValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	employee, err := s.employees.Create(ctx, employeeNo, name, email, string(hash), departmentID, positionID)
	if errors.Is(err, domain.ErrDuplicateEmployee) {
		return nil, apperrors.ConflictError("employee number or email already registered")
	}
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// Login verifies credentials and returns a signed token plus the employee.
func (s *Service) Login(ctx context.Context, employeeNo, password string) (string, *domain.Employee, error) {
	employee, err := s.employees.GetByEmployeeNo(ctx, strings.TrimSpace(employeeNo))
	if errors.Is(err, domain.ErrEmployeeNotFound) {
		return "", nil, apperrors.UnauthorizedError("invalid credentials")
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)) != nil {
		return "", nil, apperrors.UnauthorizedError("invalid credentials")
	}
	if !employee.IsActive {
		return "", nil, apperrors.UnauthorizedError("account is deactivated")
	}
	if !employee.IsApproved {
		return "", nil, apperrors.ForbiddenError("account pending approval")
	}

	token, err := s.issuer.Issue(employee.ID, employee.IsAdmin)
	if err != nil {
		return "", nil, apperrors.InternalError("failed to issue token", err)
	}
	return token, employee, nil
}

func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *Service) ApproveEmployee(ctx context.Context, id uuid.UUID) error {
	return s.employees.Approve(ctx, id)
}

func (s *Service) DeactivateEmployee(ctx context.Context, id uuid.UUID) error {
	return s.employees.Deactivate(ctx, id)
}

// --- Board ---

func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return nil, apperrors.ValidationError("title must be 1-200 characters")
	}
	if len(body) > maxBodyLength {
		return nil, apperrors.ValidationError("body too long")
	}
	return s.posts.Create(ctx, authorID, title, body)
}

func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, limit, offset)
}

// CreateComment adds a comment and notifies the post author. The comment is
// committed before the notification runs; a delivery failure never unwinds it.
func (s *Service) CreateComment(ctx context.Context, postID, authorID uuid.UUID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxBodyLength {
		return nil, apperrors.ValidationError("comment body must be 1-10000 characters")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.Create(ctx, postID, authorID, body)
	if err != nil {
		return nil, err
	}

	author, err := s.employees.GetByID(ctx, authorID)
	authorName := "Someone"
	if err == nil {
		authorName = author.Name
	}

	if _, err := s.pipeline.NotifyComment(ctx, post, comment, authorName); err != nil {
		slog.Error("Comment notification failed",
			"comment_id", comment.ID.String(),
			"post_id", postID.String(),
			"error", err,
		)
	}

	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// --- Votes ---

func (s *Service) ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	return s.voteEngine.Toggle(ctx, votes.TargetComment, commentID, kind, employeeID)
}

func (s *Service) TogglePostVote(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	return s.voteEngine.Toggle(ctx, votes.TargetPost, postID, kind, employeeID)
}

// --- Announcements ---

// PublishAnnouncement creates the announcement, then fans notifications out.
// The announcement persists even when fan-out fails; the returned
// FanOutResult reports exactly how far delivery got.
func (s *Service) PublishAnnouncement(ctx context.Context, authorID uuid.UUID, title, body string, priority domain.Priority, targetDepartments, targetPositions []uuid.UUID) (*domain.Announcement, domain.FanOutResult, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return nil, domain.FanOutResult{}, apperrors.ValidationError("title must be 1-200 characters")
	}
	if !priority.Valid() {
		return nil, domain.FanOutResult{}, apperrors.ValidationError("priority must be one of urgent, high, normal, low")
	}

	announcement, err := s.announcements.Create(ctx, authorID, title, body, priority, targetDepartments, targetPositions)
	if err != nil {
		return nil, domain.FanOutResult{}, err
	}

	result, err := s.pipeline.FanOutAnnouncement(ctx, announcement)
	if err != nil {
		slog.Error("Announcement fan-out failed",
			"announcement_id", announcement.ID.String(),
			"requested", result.Requested,
			"created", result.Created,
			"error", err,
		)
	}

	return announcement, result, nil
}

func (s *Service) GetAnnouncement(ctx context.Context, id uuid.UUID) (*domain.Announcement, error) {
	return s.announcements.GetByID(ctx, id)
}

func (s *Service) ListAnnouncements(ctx context.Context, limit, offset int) ([]domain.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.announcements.List(ctx, limit, offset)
}

// --- Notifications ---

func (s *Service) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	return s.pipeline.ListForRecipient(ctx, recipientID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.pipeline.UnreadCount(ctx, recipientID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error) {
	return s.pipeline.MarkRead(ctx, notificationID, recipientID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.pipeline.MarkAllRead(ctx, recipientID)
}

func (s *Service) GetNotificationSettings(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error) {
	return s.pipeline.GetSettings(ctx, employeeID)
}

func (s *Service) UpdateNotificationSettings(ctx context.Context, settings domain.NotificationSettings) error {
	return s.pipeline.UpdateSettings(ctx, settings)
}

// PurgeNotifications deletes read notifications older than the configured
// retention window. Run by the maintenance binary, not the API server.
func (s *Service) PurgeNotifications(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-s.retention)
	return s.pipeline.PurgeRead(ctx, cutoff)
}

// VerifyToken validates a bearer token for the HTTP middleware.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.issuer.Verify(token)
}
