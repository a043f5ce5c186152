package validation

func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "email is required",
			"email":    "email is not a valid address",
			"max":      "email is too long",
		},
		"Password": {
			"required": "password is required",
			"max":      "password must be at most 72 bytes",
		},
		"NewPassword": {
			"required": "newPassword is required",
			"max":      "newPassword must be at most 72 bytes",
		},
		"OldPassword": {
			"required": "oldPassword is required",
		},
		"Name": {
			"required": "name is required",
			"min":      "name must be at least 2 characters",
			"max":      "name must be at most 100 characters",
		},
		"CompanyID": {
			"required": "companyId is required",
		},
		"RoleID": {
			"required": "roleId is required",
		},
		"UserID": {
			"required": "userId is required",
		},
		"Token": {
			"required": "token is required",
		},
	}
	return customValidationMessages[field]
}
