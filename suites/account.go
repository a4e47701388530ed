package suites

// Account database schema, keyed by username:
//
//	username: str
//	password: str
//	session_token: str|null  (non-null means logged in)
//	email: str
//	phone: str
//	name: str
//	verification_code: str   (present only during a password reset)

import (
	"github.com/AltairaLabs/ReplayKit/tools"
)

// AccountSuite builds the account-management tools.
func AccountSuite() Suite {
	return Suite{
		Name:        "AccountTools",
		Description: "This API contains tools for account management.",
		Tools: []tools.Tool{
			newGetAccountInformation(),
			newDeleteAccount(),
			newUserLogin(),
			newLogoutUser(),
			newChangePassword(),
			newRegisterUser(),
			newSendVerificationCode(),
			newResetPassword(),
			newQueryUser(),
			newUpdateAccountInformation(),
		},
	}
}

func newUserLogin() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "UserLogin",
			Suite:       "AccountTools",
			Description: "Logs in a user returns a token.",
			Parameters: []tools.ParamSpec{
				{Name: "username", Type: "string", Description: "The username of the user.", Required: true},
				{Name: "password", Type: "string", Description: "The password of the user.", Required: true},
			},
			Output: []tools.FieldSpec{
				{Name: "session_token", Type: "string", Description: "The token of the user."},
			},
			Database: AccountDB,
			IsAction: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			username, _ := strParam(params, "username")
			password, _ := strParam(params, "password")
			record, ok := env.Database.Record(username)
			if !ok {
				return nil, tools.NewAPIError("The username does not exist.")
			}
			if record["password"] != password {
				return nil, tools.NewAPIError("The password is incorrect.")
			}
			if token, ok := record["session_token"].(string); ok && token != "" {
				return nil, tools.NewAPIError("The user is already logged in.")
			}
			token := env.IDs.Segments(8, 4, 4)
			record["session_token"] = token
			return map[string]any{"session_token": token}, nil
		},
	}
}

func newLogoutUser() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:         "LogoutUser",
			Suite:        "AccountTools",
			Description:  "Logs user out.",
			Parameters:   nil,
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed."}},
			Database:     AccountDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			record["session_token"] = nil
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newRegisterUser() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "RegisterUser",
			Suite:       "AccountTools",
			Description: "Register a new user.",
			Parameters: []tools.ParamSpec{
				{Name: "username", Type: "string", Description: "The username of the user.", Required: true},
				{Name: "password", Type: "string", Description: "The password of the user.", Required: true},
				{Name: "email", Type: "string", Description: "The email of the user.", Required: true},
				{Name: "name", Type: "string", Description: "The name of the user."},
				{Name: "phone", Type: "string", Description: "The phone of the user in the format xxx-xxx-xxxx."},
			},
			Output: []tools.FieldSpec{
				{Name: "session_token", Type: "string", Description: "The token of the user."},
				{Name: "user", Type: "object", Description: "The account information of the user."},
			},
			Database: AccountDB,
			IsAction: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			username, _ := strParam(params, "username")
			password, _ := strParam(params, "password")
			email, _ := strParam(params, "email")
			if _, exists := env.Database[username]; exists {
				return nil, tools.NewAPIError("The username already exists.")
			}
			if !validEmail(email) {
				return nil, tools.NewAPIError("The email format is invalid.")
			}
			var name, phone any
			if s, ok := strParam(params, "name"); ok {
				name = s
			}
			if s, ok := strParam(params, "phone"); ok {
				if !validPhone(s) {
					return nil, tools.NewAPIError("The phone number format is invalid.")
				}
				phone = s
			}
			token := env.IDs.Segments(8, 4, 4)
			env.Database[username] = map[string]any{
				"username":      username,
				"password":      password,
				"session_token": token,
				"email":         email,
				"phone":         phone,
				"name":          name,
			}
			return map[string]any{
				"session_token": token,
				"user": map[string]any{
					"username": username,
					"email":    email,
					"phone":    phone,
					"name":     name,
				},
			}, nil
		},
	}
}

func newDeleteAccount() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "DeleteAccount",
			Suite:       "AccountTools",
			Description: "Deletes a user's account, requires user to be logged in.",
			Parameters: []tools.ParamSpec{
				{Name: "password", Type: "string", Description: "The password of the user.", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed."}},
			Database:     AccountDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			password, _ := strParam(params, "password")
			if record["password"] != password {
				return nil, tools.NewAPIError("The password is incorrect.")
			}
			delete(env.Database, usernameOf(record))
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newGetAccountInformation() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:         "GetAccountInformation",
			Suite:        "AccountTools",
			Description:  "Retrieves account information of logged in user.",
			Output:       []tools.FieldSpec{{Name: "user", Type: "object", Description: "The account information of the user."}},
			Database:     AccountDB,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"user": map[string]any{
					"username": record["username"],
					"email":    record["email"],
					"phone":    record["phone"],
					"name":     record["name"],
				},
			}, nil
		},
	}
}

func newChangePassword() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "ChangePassword",
			Suite:       "AccountTools",
			Description: "Changes the password of an account.",
			Parameters: []tools.ParamSpec{
				{Name: "old_password", Type: "string", Description: "The old password of the user.", Required: true},
				{Name: "new_password", Type: "string", Description: "The new password of the user.", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database:     AccountDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			oldPassword, _ := strParam(params, "old_password")
			if record["password"] != oldPassword {
				return nil, tools.NewAPIError("The old password is incorrect.")
			}
			newPassword, _ := strParam(params, "new_password")
			record["password"] = newPassword
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newSendVerificationCode() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "SendVerificationCode",
			Suite:       "AccountTools",
			Description: "Initiates a password reset for a user by sending a verification code to a backup email.",
			Parameters: []tools.ParamSpec{
				{Name: "username", Type: "string", Description: "The username of the user.", Required: true},
				{Name: "email", Type: "string", Description: "The email of the user.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database: AccountDB,
			IsAction: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			username, _ := strParam(params, "username")
			record, ok := env.Database.Record(username)
			if !ok {
				return nil, tools.NewAPIError("The username does not exist.")
			}
			email, _ := strParam(params, "email")
			if record["email"] != email {
				return nil, tools.NewAPIError("The email is incorrect.")
			}
			record["verification_code"] = env.IDs.Digits(6)
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newResetPassword() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "ResetPassword",
			Suite:       "AccountTools",
			Description: "Resets the password of a user using a verification code.",
			Parameters: []tools.ParamSpec{
				{Name: "username", Type: "string", Description: "The username of the user.", Required: true},
				{Name: "verification_code", Type: "string", Description: "The 6 digit verification code sent to the user.", Required: true},
				{Name: "new_password", Type: "string", Description: "The new password of the user.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database: AccountDB,
			IsAction: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			username, _ := strParam(params, "username")
			record, ok := env.Database.Record(username)
			if !ok {
				return nil, tools.NewAPIError("The username does not exist.")
			}
			code, _ := strParam(params, "verification_code")
			stored, ok := record["verification_code"].(string)
			if !ok || stored != code {
				return nil, tools.NewAPIError("The verification code is incorrect.")
			}
			newPassword, _ := strParam(params, "new_password")
			record["password"] = newPassword
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newQueryUser() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "QueryUser",
			Suite:       "AccountTools",
			Description: "Finds users given a username or email.",
			Parameters: []tools.ParamSpec{
				{Name: "username", Type: "string", Description: "The username of the user, required if email is not supplied."},
				{Name: "email", Type: "string", Description: "The email of the user, required if username is not supplied. May match multiple users"},
			},
			Output:       []tools.FieldSpec{{Name: "users", Type: "array", Description: "Users matching the query."}},
			Database:     AccountDB,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			if _, err := userByToken(env, params); err != nil {
				return nil, err
			}
			username, hasUsername := strParam(params, "username")
			email, hasEmail := strParam(params, "email")
			if !hasUsername && !hasEmail {
				return nil, tools.NewAPIError("You need to provide at least one of username and email.")
			}
			publicInfo := func(name string, record map[string]any) map[string]any {
				return map[string]any{
					"username": name,
					"email":    record["email"],
					"phone":    record["phone"],
					"name":     record["name"],
				}
			}
			users := []any{}
			if !hasUsername {
				for name, v := range env.Database {
					record, ok := v.(map[string]any)
					if ok && record["email"] == email {
						users = append(users, publicInfo(name, record))
					}
				}
			} else if record, ok := env.Database.Record(username); ok {
				users = append(users, publicInfo(username, record))
			}
			return map[string]any{"users": users}, nil
		},
	}
}

func newUpdateAccountInformation() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "UpdateAccountInformation",
			Suite:       "AccountTools",
			Description: "Updates account information of a user.",
			Parameters: []tools.ParamSpec{
				{Name: "password", Type: "string", Description: "The password of the user.", Required: true},
				{Name: "new_email", Type: "string", Description: "The new email of the user."},
				{Name: "new_phone_number", Type: "string", Description: "The new phone number of the user in the format xxx-xxx-xxxx."},
				{Name: "new_name", Type: "string", Description: "The new name of the user."},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed."}},
			Database:     AccountDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			password, _ := strParam(params, "password")
			if record["password"] != password {
				return nil, tools.NewAPIError("The password is incorrect.")
			}
			newEmail, hasEmail := strParam(params, "new_email")
			newPhone, hasPhone := strParam(params, "new_phone_number")
			if !hasEmail && !hasPhone {
				return nil, tools.NewAPIError("You need to provide at least one of new_email and new_phone_number.")
			}
			if hasEmail {
				if !validEmail(newEmail) {
					return nil, tools.NewAPIError("The email is invalid.")
				}
				record["email"] = newEmail
			}
			if hasPhone {
				if !validPhone(newPhone) {
					return nil, tools.NewAPIError("The phone number is invalid.")
				}
				record["phone"] = newPhone
			}
			if newName, ok := strParam(params, "new_name"); ok {
				record["name"] = newName
			}
			return map[string]any{"status": "success"}, nil
		},
	}
}
