package services

import "errors"

var (
	ErrFlowActive      = errors.New("another input flow is already active")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPIN      = errors.New("pin must be exactly 6 digits")
	ErrEmptyWord       = errors.New("banned word is empty")
	ErrDuplicateWord   = errors.New("banned word already present")
	ErrUnknownWord     = errors.New("banned word not present")
	ErrInvalidChannel  = errors.New("channel must start with https://t.me/ or @")
	ErrEmptyBroadcast  = errors.New("message is empty")
	ErrInvalidSetting  = errors.New("setting value out of range")
	ErrUnsupportedFlow = errors.New("unsupported input flow")
)
