// Package selectui renders the interactive marking and confirmation prompts.
package selectui

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/terminal"
)

var (
	// ErrBack is returned when the user leaves a prompt with Esc.
	ErrBack = errors.New(messages.SelectBack)
	// ErrCancelled is returned when the user aborts with Ctrl+C.
	ErrCancelled = errors.New(messages.SelectCancelled)
)

// maxVisibleOptions caps the list height; longer lists scroll.
const maxVisibleOptions = 20

// Item is one selectable entry.
type Item struct {
	Label string
	Value string
}

// UI defines the interaction methods.
type UI interface {
	MultiSelect(title string, items []Item, selected *[]string) error
	Confirm(title string, description string, value *bool) error
}

// HuhUI implements UI using charmbracelet/huh.
type HuhUI struct {
	isTerminal func() bool
	ctrlCAbort bool // set by key filter during form.Run(); reset before each form
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhUI creates a new HuhUI using terminal.IsInteractive.
func NewHuhUI() *HuhUI {
	return &HuhUI{isTerminal: terminal.IsInteractive}
}

// ensureInteractive returns an error when the UI is invoked without a terminal.
func (ui *HuhUI) ensureInteractive() error {
	checker := ui.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if checker() {
		return nil
	}
	return errors.New(messages.SelectRequiresTerminal)
}

// keyMap binds Esc to back and Ctrl+C to exit; both abort the form and
// runForm tells them apart through ctrlCAbort.
func keyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"))

	escBack := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	km.MultiSelect.Prev = escBack
	km.Confirm.Prev = escBack

	ctrlCExit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "exit"))
	km.MultiSelect.Next = ctrlCExit
	km.Confirm.Next = ctrlCExit
	return km
}

// hintField keeps the Prev/Next hint bindings visible: huh disables them
// for the first and last field, and every form here has a single field.
type hintField struct {
	huh.Field
	km *huh.KeyMap
}

func (f *hintField) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := f.Field.Update(msg)
	if field, ok := model.(huh.Field); ok {
		f.Field = field
	}
	return f, cmd
}

func (f *hintField) WithPosition(p huh.FieldPosition) huh.Field {
	f.Field.WithPosition(p)
	f.WithKeyMap(f.km)
	return f
}

func newHintField(field huh.Field) huh.Field {
	return &hintField{Field: field, km: keyMap()}
}

// formFilter records Ctrl+C key presses and turns interrupts into a quit so
// the renderer clears the form.
func (ui *HuhUI) formFilter() func(tea.Model, tea.Msg) tea.Msg {
	return func(_ tea.Model, msg tea.Msg) tea.Msg {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyCtrlC {
			ui.ctrlCAbort = true
		}
		if _, ok := msg.(tea.InterruptMsg); ok {
			return tea.QuitMsg{}
		}
		return msg
	}
}

// runForm validates terminal availability and runs the provided form.
func (ui *HuhUI) runForm(form *huh.Form) error {
	if err := ui.ensureInteractive(); err != nil {
		return err
	}

	ui.ctrlCAbort = false
	form.WithKeyMap(keyMap())
	form.WithProgramOptions(
		tea.WithOutput(os.Stderr),
		tea.WithReportFocus(),
		tea.WithFilter(ui.formFilter()),
	)

	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		if ui.ctrlCAbort {
			return ErrCancelled
		}
		return ErrBack
	}
	return err
}

// MultiSelect renders a filterable multi-choice list. selected holds the
// values checked on entry and receives the values checked on exit.
func (ui *HuhUI) MultiSelect(title string, items []Item, selected *[]string) error {
	opts := make([]huh.Option[string], len(items))
	checked := make(map[string]bool, len(*selected))
	for _, v := range *selected {
		checked[v] = true
	}
	for i, item := range items {
		opts[i] = huh.NewOption(item.Label, item.Value).Selected(checked[item.Value])
	}
	height := len(items) + 2
	if len(items) > maxVisibleOptions {
		height = maxVisibleOptions + 2
	}

	return ui.runForm(huh.NewForm(
		huh.NewGroup(
			newHintField(huh.NewMultiSelect[string]().
				Title(title).
				Description(messages.SelectMarkHelp).
				Filterable(true).
				Height(height).
				Options(opts...).
				Value(selected)),
		),
	))
}

// Confirm renders a yes/no prompt.
func (ui *HuhUI) Confirm(title string, description string, value *bool) error {
	return ui.runForm(huh.NewForm(
		huh.NewGroup(
			newHintField(huh.NewConfirm().
				Title(title).
				Description(description).
				Value(value)),
		),
	))
}
