package constants

// Standard Response Field Keys
const (
	ResponseFieldSuccess   = "success"
	ResponseFieldMessage   = "message"
	ResponseFieldDetails   = "details"
	ResponseFieldCode      = "code"
	ResponseFieldUser      = "user"
	ResponseFieldSessionID = "sessionId"
	ResponseFieldSessions  = "sessions"
)

// BuildErrorResponse builds the failure envelope. details is omitted when nil so
// internal errors never leak anything beyond the message.
func BuildErrorResponse(message string, code string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldSuccess: false,
		ResponseFieldMessage: message,
	}

	if code != "" {
		response[ResponseFieldCode] = code
	}
	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}

func BuildSuccessResponse(message string) map[string]any {
	response := map[string]any{
		ResponseFieldSuccess: true,
	}
	if message != "" {
		response[ResponseFieldMessage] = message
	}
	return response
}
