package unicrew

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// AccountService wraps the authentication and account management endpoints.
// It rides on the anonymous client: sign-in and registration run before any
// credentials exist, so no session bearer is ever attached. Change-password
// passes its token explicitly.
type AccountService struct {
	client *Client
}

// Login exchanges credentials for a token pair.
func (a *AccountService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	pair, err := postJSON[TokenPair](ctx, a.client, "login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return TokenPair{}, err
	}
	if strings.TrimSpace(pair.Access) == "" || strings.TrimSpace(pair.Refresh) == "" {
		return TokenPair{}, fmt.Errorf("unicrew account: login response missing tokens")
	}
	return pair, nil
}

// RegisterStep1 submits the registration form. The backend emails a
// confirmation code to be presented in step two.
func (a *AccountService) RegisterStep1(ctx context.Context, username, email, password1, password2 string) (string, error) {
	data, err := a.client.post(ctx, "register-step1/", map[string]string{
		"username":  username,
		"email":     email,
		"password1": password1,
		"password2": password2,
	})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// RegisterStep2 confirms the emailed code and finalizes the account.
func (a *AccountService) RegisterStep2(ctx context.Context, email, code string) (string, error) {
	data, err := a.client.post(ctx, "register-step2/", map[string]string{
		"email": email,
		"code":  code,
	})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// RequestPasswordReset asks the backend to email password recovery
// instructions.
func (a *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	data, err := a.client.post(ctx, "password-reset/", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// ChangePassword updates the password of the authenticated user. The access
// token is passed per-request so this works even before the session-wide
// default header has been updated.
func (a *AccountService) ChangePassword(ctx context.Context, oldPassword, newPassword1, newPassword2, accessToken string) (string, error) {
	data, err := a.client.post(ctx, "change-password/", map[string]string{
		"old_password":  oldPassword,
		"new_password1": newPassword1,
		"new_password2": newPassword2,
	}, WithBearer(accessToken))
	if err != nil {
		return "", err
	}
	return responseDetail(data), nil
}

// responseDetail pulls the backend's human readable acknowledgement out of a
// success body, tolerating both {"detail": ...} and {"message": ...}.
func responseDetail(body []byte) string {
	if detail := gjson.GetBytes(body, "detail"); detail.Exists() {
		return detail.String()
	}
	return gjson.GetBytes(body, "message").String()
}
