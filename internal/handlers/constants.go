package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgUserIDNotFound     = "User ID not found"
	ErrMsgUserNotFound       = "User not found"
	ErrMsgHomeworkNotFound   = "Homework not found"
	ErrMsgInternalError      = "Internal server error"
)
