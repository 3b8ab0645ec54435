package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrTemplateNotFound = errors.New("template not found")
)
