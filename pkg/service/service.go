// Package service implements the views behind each command. A service
// calls the API through the app context and renders the result with the
// configured printer.
package service

import (
	"time"

	"github.com/socialconnect/cli/pkg/app"
	"github.com/socialconnect/cli/pkg/output"
	"github.com/socialconnect/cli/pkg/prompter"
)

// Deps is what every service needs
type Deps struct {
	App    *app.App
	Out    *output.Printer
	Prompt *prompter.Prompter
	// Now defaults to time.Now
	Now func() time.Time
}

type base struct {
	app    *app.App
	out    *output.Printer
	prompt *prompter.Prompter
	now    func() time.Time
}

func newBase(d Deps) base {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return base{app: d.App, out: d.Out, prompt: d.Prompt, now: now}
}

// ask returns value, prompting for it when empty
func (b base) ask(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return b.prompt.Required(label)
}

// askSecret returns value, prompting without echo when empty
func (b base) askSecret(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return b.prompt.Password(label)
}

// confirm asks unless yes is already set
func (b base) confirm(yes bool, label string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := b.prompt.Confirm(label)
	if err != nil {
		return false, err
	}
	if !ok {
		b.out.Println("Cancelled.")
	}
	return ok, nil
}

func (b base) pagination(footer string) {
	if footer != "" && !b.out.IsJSON() {
		b.out.Println()
		b.out.Info(footer)
	}
}
