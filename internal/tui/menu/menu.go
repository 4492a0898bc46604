// ABOUTME: Main menu for the TUI
// ABOUTME: A huh select embedded as a bubbletea model; entries depend on the session

package menu

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/quickpoll/internal/tui/icons"
	"github.com/markalston/quickpoll/internal/tui/styles"
)

// Item is a menu entry
type Item int

const (
	ItemHome Item = iota
	ItemBrowse
	ItemCreate
	ItemProfile
	ItemLogin
	ItemRegister
	ItemLogout
	ItemQuit
)

// SelectedMsg is sent when an entry is chosen
type SelectedMsg struct {
	Item Item
}

type option struct {
	label     string
	value     Item
	protected bool
}

// Menu is the main menu model
type Menu struct {
	options  []option
	selected Item
	username string
	form     *huh.Form
}

// New builds the menu for the given user; an empty username means anonymous
func New(username string) *Menu {
	m := &Menu{
		options:  optionsFor(username),
		selected: ItemHome,
		username: username,
	}
	m.form = m.buildForm()
	return m
}

func optionsFor(username string) []option {
	opts := []option{
		{label: "Home", value: ItemHome},
		{label: "Browse polls", value: ItemBrowse},
		{label: "Create a poll", value: ItemCreate, protected: true},
		{label: "My profile", value: ItemProfile, protected: true},
	}
	if username == "" {
		opts = append(opts,
			option{label: "Log in", value: ItemLogin},
			option{label: "Register", value: ItemRegister},
		)
	} else {
		opts = append(opts, option{label: fmt.Sprintf("Log out (%s)", username), value: ItemLogout})
	}
	return append(opts, option{label: "Quit", value: ItemQuit})
}

func (m *Menu) buildForm() *huh.Form {
	var options []huh.Option[Item]
	for _, opt := range m.options {
		label := opt.label
		if opt.protected && m.username == "" {
			label = fmt.Sprintf("%s %s", label, icons.Lock.String())
		}
		options = append(options, huh.NewOption(label, opt.value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Item]().
				Title("What would you like to do?").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		item := m.selected
		return m, func() tea.Msg { return SelectedMsg{Item: item} }
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// Has reports whether the menu offers item
func (m *Menu) Has(item Item) bool {
	for _, opt := range m.options {
		if opt.value == item {
			return true
		}
	}
	return false
}

// String returns the string representation of an Item
func (i Item) String() string {
	switch i {
	case ItemHome:
		return "home"
	case ItemBrowse:
		return "browse"
	case ItemCreate:
		return "create"
	case ItemProfile:
		return "profile"
	case ItemLogin:
		return "login"
	case ItemRegister:
		return "register"
	case ItemLogout:
		return "logout"
	case ItemQuit:
		return "quit"
	default:
		return "unknown"
	}
}
