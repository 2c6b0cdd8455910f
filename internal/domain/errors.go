package domain

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSettingsNotFound     = errors.New("notification settings not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotApproved          = errors.New("employee not approved")
	ErrDuplicateEmployee    = errors.New("employee already exists")
)
