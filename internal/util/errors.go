package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPathNotFound       = errors.New("learning path not found")
	ErrStepNotFound       = errors.New("step not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrNotPathOwner       = errors.New("not the owner of this learning path")
	ErrCheckpointLocked   = errors.New("checkpoint not yet unlocked")
	ErrInvalidLevel       = errors.New("invalid level, must be beginner/intermediate/advanced")
	ErrInvalidCondition   = errors.New("invalid branch condition")
	ErrEmptyTopic         = errors.New("topic is required")
	ErrEmptyAnswers       = errors.New("answers are required")
)
