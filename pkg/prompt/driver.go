package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-jsonform/pkg/form"
)

// TextKind selects how a text answer is read.
type TextKind int

const (
	TextLine TextKind = iota
	TextSecret
	TextMultiline
)

// TextQuestion asks for the raw answer of a rendered field. Prompter parses
// the answer against the field type.
type TextQuestion struct {
	Title   string
	Help    string
	Default string
	Kind    TextKind
	// Check runs inline when the driver supports it.
	Check func(string) error
}

// ChoiceQuestion asks for one entry of a select item's titleMap.
type ChoiceQuestion struct {
	Title    string
	Help     string
	Choices  []form.Choice
	Selected int
}

// Toggle is a yes/no question: boolean fields, buttons and adding rows to a
// list node.
type Toggle struct {
	Title   string
	Help    string
	Default bool
}

// Driver is the terminal as seen by a Prompter.
type Driver interface {
	Text(ctx context.Context, q TextQuestion) (string, error)
	// Choose returns the index of the picked choice.
	Choose(ctx context.Context, q ChoiceQuestion) (int, error)
	Toggle(ctx context.Context, q Toggle) (bool, error)
	// Show prints help text and validation messages.
	Show(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a Driver backed by survey on the process terminal.
func NewSurveyDriver() Driver {
	return &surveyDriver{out: os.Stdout}
}

func (d *surveyDriver) Text(ctx context.Context, q TextQuestion) (string, error) {
	var p survey.Prompt
	switch q.Kind {
	case TextSecret:
		p = &survey.Password{Message: q.Title, Help: q.Help}
	case TextMultiline:
		p = &survey.Multiline{Message: q.Title, Help: q.Help, Default: q.Default}
	default:
		p = &survey.Input{Message: q.Title, Help: q.Help, Default: q.Default}
	}

	var opts []survey.AskOpt
	if check := q.Check; check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return check(s)
		}))
	}
	var answer string
	err := d.ask(ctx, p, &answer, opts...)
	return answer, err
}

func (d *surveyDriver) Choose(ctx context.Context, q ChoiceQuestion) (int, error) {
	labels := make([]string, len(q.Choices))
	for i, choice := range q.Choices {
		labels[i] = choice.Label
	}
	p := &survey.Select{Message: q.Title, Help: q.Help, Options: labels}
	if q.Selected >= 0 && q.Selected < len(labels) {
		p.Default = labels[q.Selected]
	}
	// An int answer receives the index, so repeated labels stay distinct.
	var idx int
	err := d.ask(ctx, p, &idx)
	return idx, err
}

func (d *surveyDriver) Toggle(ctx context.Context, q Toggle) (bool, error) {
	var yes bool
	err := d.ask(ctx, &survey.Confirm{Message: q.Title, Help: q.Help, Default: q.Default}, &yes)
	return yes, err
}

func (d *surveyDriver) Show(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func (d *surveyDriver) ask(ctx context.Context, p survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(p, answer, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}
