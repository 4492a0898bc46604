// ABOUTME: Create-poll form as a bubbletea model
// ABOUTME: Three huh steps with a progress indicator; validation matches the forms package

package pollform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/quickpoll/internal/client"
	"github.com/markalston/quickpoll/internal/forms"
	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
	"github.com/markalston/quickpoll/internal/tui/widgets"
)

// CompleteMsg is sent when the form produced a valid request
type CompleteMsg struct {
	Request client.CreatePollRequest
}

// CancelledMsg is sent when the form is cancelled
type CancelledMsg struct{}

// Step names for progress indicator
var stepNames = []string{"Question", "Options", "Settings"}

// Form collects a new poll
type Form struct {
	draft forms.PollDraft
	form  *huh.Form
	step  int
	width int
	err   string

	// huh binds to plain strings and bools
	title       string
	description string
	options     string
	multiple    bool
	confirm     bool
}

// New starts an empty form on step 1
func New() *Form {
	f := &Form{step: 1, confirm: true}
	f.form = f.createStep1Form()
	return f
}

func (f *Form) createStep1Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Question").
				Placeholder("e.g., Where should we eat?").
				CharLimit(200).
				Value(&f.title).
				Validate(forms.ValidateTitle),
			huh.NewText().
				Title("Description").
				Description("Optional").
				CharLimit(1000).
				Lines(3).
				Value(&f.description),
		).Title("Step 1: Question").
			Description("What do you want to ask?"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (f *Form) createStep2Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Options").
				Description("One option per line, at least 2").
				Lines(6).
				Value(&f.options).
				Validate(func(s string) error {
					return forms.ValidateOptions(forms.SplitOptions(s))
				}),
		).Title("Step 2: Options").
			Description("What can people choose from?"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (f *Form) createStep3Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow multiple choices?").
				Affirmative("Yes").
				Negative("No").
				Value(&f.multiple),
			huh.NewConfirm().
				Title("Create this poll?").
				Affirmative("Create").
				Negative("Cancel").
				Value(&f.confirm),
		).Title("Step 3: Settings").
			Description("Voters can pick one option unless you allow more"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		form, cmd := f.form.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			f.form = hf
		}
		return f, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return f, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		return f.advanceStep()
	}
	return f, cmd
}

func (f *Form) advanceStep() (tea.Model, tea.Cmd) {
	switch f.step {
	case 1:
		f.err = ""
		f.draft.Title = f.title
		f.draft.Description = f.description
		f.step = 2
		f.form = f.createStep2Form()
		return f, f.form.Init()

	case 2:
		f.draft.Options = forms.SplitOptions(f.options)
		f.step = 3
		f.form = f.createStep3Form()
		return f, f.form.Init()

	case 3:
		if !f.confirm {
			return f, func() tea.Msg { return CancelledMsg{} }
		}
		f.draft.AllowMultiple = f.multiple
		req, err := f.draft.Build()
		if err != nil {
			// Back to the step that owns the failing field
			f.err = err.Error()
			f.step = 1
			f.form = f.createStep1Form()
			return f, f.form.Init()
		}
		return f, func() tea.Msg { return CompleteMsg{Request: req} }
	}
	return f, nil
}

// SetError shows a server-side failure and reopens the last step for another try
func (f *Form) SetError(msg string) tea.Cmd {
	f.err = msg
	f.step = 3
	f.confirm = true
	f.form = f.createStep3Form()
	return f.form.Init()
}

// Err returns the banner message
func (f *Form) Err() string {
	return f.err
}

// Step returns the current step, starting at 1
func (f *Form) Step() int {
	return f.step
}

// SetWidth sets the form width for proper rendering
func (f *Form) SetWidth(width int) {
	f.width = width
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder

	sb.WriteString(f.renderProgress())
	sb.WriteString("\n\n")
	if f.err != "" {
		sb.WriteString(widgets.StatusText(f.err, widgets.StatusCritical))
		sb.WriteString("\n\n")
	}
	sb.WriteString(f.form.View())
	return sb.String()
}

// renderProgress renders the step progress indicator
func (f *Form) renderProgress() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum < f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	// "│  " + bar + " │"
	barWidth := width - 5
	filledWidth := (f.step * barWidth) / len(stepNames)
	progressBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth)) +
		lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", barWidth-filledWidth))

	title := "New poll"
	topBorder := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", max(0, width-5-lipgloss.Width(title))) + "┐"
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", max(0, width-4-lipgloss.Width(stepsLine))) + " │"
	progressLinePadded := "│  " + progressBar + " │"
	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}
