// ABOUTME: Client-side validation for poll creation, login and registration
// ABOUTME: Rejects bad input with user-facing messages before any request is sent

package forms

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/markalston/quickpoll/internal/client"
)

// User-facing validation messages
const (
	MsgTitleRequired      = "Please enter a poll title"
	MsgTwoOptions         = "Please provide at least 2 options"
	MsgIdentifierRequired = "Please enter your username or email"
	MsgPasswordRequired   = "Please enter your password"
	MsgUsernameRequired   = "Please enter a username"
	MsgEmailInvalid       = "Please enter a valid email address"
	MsgPasswordTooShort   = "Password must be at least 8 characters"
)

// MinOptions is the fewest non-blank options a poll may have
const MinOptions = 2

// MinPasswordLength applies to registration only
const MinPasswordLength = 8

// Error is a validation failure on one field
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// messages maps struct field and failed tag to the message shown to the user
var messages = map[string]string{
	"Title.required":      MsgTitleRequired,
	"Options.min":         MsgTwoOptions,
	"Identifier.required": MsgIdentifierRequired,
	"Password.required":   MsgPasswordRequired,
	"Password.min":        MsgPasswordTooShort,
	"Username.required":   MsgUsernameRequired,
	"Email.required":      MsgEmailInvalid,
	"Email.email":         MsgEmailInvalid,
}

// check runs struct validation and returns the first failure as *Error
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := messages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = "Invalid " + strings.ToLower(fe.Field())
	}
	return &Error{Field: fe.Field(), Message: msg}
}

// PollDraft is the create-poll form as typed
type PollDraft struct {
	Title         string
	Description   string
	Options       []string
	AllowMultiple bool
}

type pollRules struct {
	Title   string   `validate:"required"`
	Options []string `validate:"min=2"`
}

// NewPollDraft starts a draft with two empty option rows
func NewPollDraft() PollDraft {
	return PollDraft{Options: make([]string, MinOptions)}
}

// Build validates the draft and produces the request body. Title and
// options are trimmed and blank options dropped.
func (d PollDraft) Build() (client.CreatePollRequest, error) {
	title := strings.TrimSpace(d.Title)
	options := make([]string, 0, len(d.Options))
	for _, opt := range d.Options {
		if o := strings.TrimSpace(opt); o != "" {
			options = append(options, o)
		}
	}

	if err := check(pollRules{Title: title, Options: options}); err != nil {
		return client.CreatePollRequest{}, err
	}

	return client.CreatePollRequest{
		Title:         title,
		Description:   strings.TrimSpace(d.Description),
		Options:       options,
		AllowMultiple: d.AllowMultiple,
	}, nil
}

// AddOption appends an empty option row
func (d *PollDraft) AddOption() {
	d.Options = append(d.Options, "")
}

// RemoveOption deletes row i. It refuses to go below two rows.
func (d *PollDraft) RemoveOption(i int) bool {
	if len(d.Options) <= MinOptions || i < 0 || i >= len(d.Options) {
		return false
	}
	d.Options = append(d.Options[:i], d.Options[i+1:]...)
	return true
}

// LoginForm holds login credentials
type LoginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

// Validate checks both fields are filled in
func (f LoginForm) Validate() error {
	return check(LoginForm{
		Identifier: strings.TrimSpace(f.Identifier),
		Password:   f.Password,
	})
}

// RegisterForm holds new-account details
type RegisterForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Validate checks username, email shape and password length
func (f RegisterForm) Validate() error {
	return check(RegisterForm{
		Username: strings.TrimSpace(f.Username),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	})
}

// ValidateTitle checks a poll title on its own, for inline field validation
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &Error{Field: "Title", Message: MsgTitleRequired}
	}
	return nil
}

// ValidateOptions checks that enough options are filled in
func ValidateOptions(options []string) error {
	n := 0
	for _, opt := range options {
		if strings.TrimSpace(opt) != "" {
			n++
		}
	}
	if n < MinOptions {
		return &Error{Field: "Options", Message: MsgTwoOptions}
	}
	return nil
}

// SplitOptions turns text with one option per line into option rows
func SplitOptions(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
