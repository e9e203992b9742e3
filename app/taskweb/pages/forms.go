package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

// Phase is where a credential form is in one submission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Messages shown by the credential forms.
const (
	MsgLoginRequired      = "Email and password are required"
	MsgSignupRequired     = "All fields are required"
	MsgPasswordMismatch   = "Passwords do not match"
	MsgPasswordTooShort   = "Password must be at least 8 characters"
	MsgInvalidEmail       = "Please enter a valid email address"
	MsgInvalidCredentials = "Incorrect email or password. Please try again."
	MsgAccountNotFound    = "Account not found. Please sign up first."
	MsgDuplicateAccount   = "An account with this email already exists. Please sign in instead."
	MsgSignInFailed       = "Failed to sign in. Please try again."
	MsgSignUpFailed       = "Failed to create account. Please try again."
)

// ValidateLogin returns the first violated rule for a sign-in, or "".
func ValidateLogin(email, password string) string {
	if strings.TrimSpace(email) == "" || password == "" {
		return MsgLoginRequired
	}
	return ""
}

// SignupInput is what the signup form collects. Name is ignored when the
// form does not ask for it.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateSignup returns the first violated rule for a sign-up, or "".
func ValidateSignup(in SignupInput, requireName bool) string {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || in.ConfirmPassword == "" ||
		(requireName && strings.TrimSpace(in.Name) == "") {
		return MsgSignupRequired
	}
	if in.Password != in.ConfirmPassword {
		return MsgPasswordMismatch
	}
	if len(in.Password) < authcase.MinPasswordLength {
		return MsgPasswordTooShort
	}
	if !validation.IsEmail(strings.TrimSpace(in.Email)) {
		return MsgInvalidEmail
	}
	return ""
}

// AuthErrorMessage picks the message for a failed sign-in or sign-up.
// Errors that are not *taskclient.AuthError, or carry no message, fall
// back to fallback.
func AuthErrorMessage(err error, fallback string) string {
	var authErr *taskclient.AuthError
	if !errors.As(err, &authErr) {
		return fallback
	}

	switch authErr.Kind {
	case taskclient.KindInvalidCredentials:
		return MsgInvalidCredentials
	case taskclient.KindAccountNotFound:
		return MsgAccountNotFound
	case taskclient.KindDuplicateAccount:
		return MsgDuplicateAccount
	case taskclient.KindUnknown:
		if authErr.Message != "" {
			return authErr.Message
		}
	}
	return fallback
}

// LoginForm drives one sign-in submission.
type LoginForm struct {
	Email string
	Phase Phase
	Error string

	auth AuthAPI
}

// NewLoginForm returns an idle form.
func NewLoginForm(auth AuthAPI) *LoginForm {
	return &LoginForm{auth: auth}
}

// Submit validates and signs in. A form that is submitting or has
// succeeded ignores further submissions.
func (f *LoginForm) Submit(ctx context.Context, email, password string) (taskclient.Session, bool) {
	if f.Phase == PhaseSubmitting || f.Phase == PhaseSucceeded {
		return taskclient.Session{}, false
	}

	f.Email = strings.TrimSpace(email)
	f.Error = ""
	f.Phase = PhaseValidating
	if msg := ValidateLogin(f.Email, password); msg != "" {
		f.fail(msg)
		return taskclient.Session{}, false
	}

	f.Phase = PhaseSubmitting
	session, err := f.auth.SignIn(ctx, f.Email, password)
	if err != nil {
		f.fail(AuthErrorMessage(err, MsgSignInFailed))
		return taskclient.Session{}, false
	}

	f.Phase = PhaseSucceeded
	return session, true
}

func (f *LoginForm) fail(msg string) {
	f.Phase = PhaseFailed
	f.Error = msg
}

// SignupForm drives one sign-up submission. With RequireName unset the
// display name is derived from the email's local part.
type SignupForm struct {
	Name        string
	Email       string
	RequireName bool
	Phase       Phase
	Error       string

	auth AuthAPI
}

// NewSignupForm returns an idle form.
func NewSignupForm(auth AuthAPI, requireName bool) *SignupForm {
	return &SignupForm{auth: auth, RequireName: requireName}
}

// Submit validates and creates the account. A form that is submitting or
// has succeeded ignores further submissions.
func (f *SignupForm) Submit(ctx context.Context, in SignupInput) (taskclient.Session, bool) {
	if f.Phase == PhaseSubmitting || f.Phase == PhaseSucceeded {
		return taskclient.Session{}, false
	}

	f.Email = strings.TrimSpace(in.Email)
	f.Name = strings.TrimSpace(in.Name)
	f.Error = ""
	f.Phase = PhaseValidating
	if msg := ValidateSignup(in, f.RequireName); msg != "" {
		f.fail(msg)
		return taskclient.Session{}, false
	}

	name := f.Name
	if !f.RequireName {
		name = validation.EmailLocalPart(f.Email)
	}

	f.Phase = PhaseSubmitting
	session, err := f.auth.SignUp(ctx, f.Email, in.Password, name)
	if err != nil {
		f.fail(AuthErrorMessage(err, MsgSignUpFailed))
		return taskclient.Session{}, false
	}

	f.Phase = PhaseSucceeded
	return session, true
}

func (f *SignupForm) fail(msg string) {
	f.Phase = PhaseFailed
	f.Error = msg
}
