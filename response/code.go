package response

// ErrorCode is a stable machine-readable code carried next to the human
// message. The frontend branches on these strings, so they are part of
// the API contract and must not be renamed.
type ErrorCode string

const (
	OK ErrorCode = ""

	InvalidRequest ErrorCode = "INVALID_REQUEST"
	Unauthorized   ErrorCode = "UNAUTHORIZED"
	Forbidden      ErrorCode = "FORBIDDEN"
	NotFound       ErrorCode = "NOT_FOUND"

	TaskListNotEmpty     ErrorCode = "TASK_LIST_NOT_EMPTY"
	TaskListWrongProject ErrorCode = "TASK_LIST_WRONG_PROJECT"
	UserNotInTeam        ErrorCode = "USER_NOT_IN_TEAM"
	EmailTaken           ErrorCode = "EMAIL_TAKEN"
	EquipmentCodeTaken   ErrorCode = "EQUIPMENT_CODE_TAKEN"
	UploadRejected       ErrorCode = "UPLOAD_REJECTED"

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = "NOT_SPECIFIED"
)
