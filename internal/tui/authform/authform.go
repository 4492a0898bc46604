// ABOUTME: Login and registration forms as bubbletea models
// ABOUTME: Validates with the forms package and keeps the form editable after a failure

package authform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/quickpoll/internal/forms"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// Mode selects login or registration
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// SubmitMsg carries validated credentials
type SubmitMsg struct {
	Mode     Mode
	Login    forms.LoginForm
	Register forms.RegisterForm
}

// CancelledMsg is sent when the form is cancelled
type CancelledMsg struct{}

// Form is a login or registration form
type Form struct {
	mode   Mode
	form   *huh.Form
	notice string
	err    string

	identifier string
	username   string
	email      string
	password   string
}

// NewLogin creates a login form. notice is shown above it, e.g. why login is needed.
func NewLogin(notice string) *Form {
	f := &Form{mode: ModeLogin, notice: notice}
	f.form = f.build()
	return f
}

// NewRegister creates a registration form
func NewRegister() *Form {
	f := &Form{mode: ModeRegister}
	f.form = f.build()
	return f
}

func (f *Form) build() *huh.Form {
	var group *huh.Group
	if f.mode == ModeLogin {
		group = huh.NewGroup(
			huh.NewInput().
				Title("Username or email").
				Value(&f.identifier),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
		).Title(icons.Lock.String() + " Log in")
	} else {
		group = huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&f.username),
			huh.NewInput().
				Title("Email").
				Value(&f.email),
			huh.NewInput().
				Title("Password").
				Description("At least 8 characters").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
		).Title(icons.User.String() + " Create an account")
	}
	return huh.NewForm(group).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Mode returns whether this is a login or registration form
func (f *Form) Mode() Mode {
	return f.mode
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	if f.form.State != huh.StateCompleted {
		return f, cmd
	}

	return f, f.submit()
}

// submit validates the entered values and emits them, or reopens the form with the error
func (f *Form) submit() tea.Cmd {
	msg := SubmitMsg{Mode: f.mode}
	var err error
	if f.mode == ModeLogin {
		msg.Login = forms.LoginForm{Identifier: strings.TrimSpace(f.identifier), Password: f.password}
		err = msg.Login.Validate()
	} else {
		msg.Register = forms.RegisterForm{
			Username: strings.TrimSpace(f.username),
			Email:    strings.TrimSpace(f.email),
			Password: f.password,
		}
		err = msg.Register.Validate()
	}
	if err != nil {
		return f.SetError(err.Error())
	}
	return func() tea.Msg { return msg }
}

// SetError shows msg and reopens the form. Entered values are kept except the password.
func (f *Form) SetError(msg string) tea.Cmd {
	f.err = msg
	f.password = ""
	f.form = f.build()
	return f.form.Init()
}

// Err returns the banner message
func (f *Form) Err() string {
	return f.err
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	if f.notice != "" {
		sb.WriteString(widgets.StatusText(f.notice, widgets.StatusInfo))
		sb.WriteString("\n\n")
	}
	if f.err != "" {
		sb.WriteString(widgets.StatusText(f.err, widgets.StatusCritical))
		sb.WriteString("\n\n")
	}
	sb.WriteString(f.form.View())
	return sb.String()
}
