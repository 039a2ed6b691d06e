package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
	"github.com/mbolis/survey-flow/survey"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E7D32"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	hintStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#999999"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2B6CB0"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
)

const barWidth = 30

// prompter drives a survey.Flow from line-based terminal input.
type prompter struct {
	flow survey.Flow
	in   *bufio.Scanner
	out  io.Writer
}

func newPrompter(flow survey.Flow, in io.Reader, out io.Writer) *prompter {
	return &prompter{flow: flow, in: bufio.NewScanner(in), out: out}
}

// Run asks questions until the response is recorded or the input ends.
// Quitting early keeps the answers for the next run.
func (p *prompter) Run(ctx context.Context) error {
	for {
		if p.flow.Phase() == survey.PhaseSubmitted {
			p.results(ctx)
			return nil
		}

		p.question()
		if !p.in.Scan() {
			return p.in.Err()
		}

		done, err := p.handle(ctx, p.in.Text())
		if err != nil {
			return err
		}
		if done {
			fmt.Fprintln(p.out, faintStyle.Render("Your answers are saved. Run again to continue."))
			return nil
		}
	}
}

// handle applies one input line. On text questions commands need a ':'
// prefix and every other line, empty included, is stored as typed.
func (p *prompter) handle(ctx context.Context, raw string) (quit bool, err error) {
	q := p.flow.CurrentQuestion()
	line := strings.TrimSpace(raw)

	if q.Type == model.Text {
		cmd, ok := strings.CutPrefix(line, ":")
		if !ok {
			if err := p.flow.SetText(ctx, q.ID, raw); err != nil {
				p.report(err)
				return false, nil
			}
			p.advance(ctx)
			return false, nil
		}
		line = cmd
	} else {
		line = strings.TrimPrefix(line, ":")
	}

	switch line {
	case "q":
		return true, nil
	case "b":
		p.report(p.flow.Retreat(ctx))
		return false, nil
	case "n", "":
		p.advance(ctx)
		return false, nil
	}
	if q.Type == model.Text {
		p.report(errors.Errorf("unknown command %q, use :n, :b or :q", ":"+line))
		return false, nil
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(q.Options) {
		p.report(errors.Errorf("type an option number between 1 and %d, n to continue or b to go back", len(q.Options)))
		return false, nil
	}
	optionID := q.Options[n-1].ID
	if q.Type == model.Multiple {
		p.report(p.flow.Toggle(ctx, q.ID, optionID))
	} else {
		p.report(p.flow.SetChoice(ctx, q.ID, optionID))
	}
	return false, nil
}

func (p *prompter) advance(ctx context.Context) {
	outcome, err := p.flow.Advance(ctx)
	if err != nil {
		p.report(err)
		return
	}
	if outcome == survey.OutcomeAlreadySubmitted {
		fmt.Fprintln(p.out, hintStyle.Render("You have already submitted a response to this survey."))
	}
}

func (p *prompter) report(err error) {
	if err == nil {
		return
	}

	var incomplete *survey.IncompleteError
	var submitErr *survey.SubmitError
	switch {
	case errors.As(err, &incomplete):
		fmt.Fprintln(p.out, errorStyle.Render(fmt.Sprintf("Question %d requires an answer.", incomplete.Index+1)))
	case errors.As(err, &submitErr):
		fmt.Fprintln(p.out, errorStyle.Render("Failed to submit: "+submitErr.Err.Error()+". Press n to retry."))
	default:
		fmt.Fprintln(p.out, errorStyle.Render(err.Error()))
	}
}

func (p *prompter) question() {
	sv := p.flow.Survey()
	q := p.flow.CurrentQuestion()
	progress := p.flow.Progress()

	fmt.Fprintln(p.out)
	if progress.Position == 1 {
		fmt.Fprintln(p.out, titleStyle.Render(sv.Title))
		if sv.Description != "" {
			fmt.Fprintln(p.out, faintStyle.Render(sv.Description))
		}
		fmt.Fprintln(p.out)
	}

	fmt.Fprintln(p.out, faintStyle.Render(fmt.Sprintf("Question %d of %d · %d%%", progress.Position, progress.Total, progress.Percent)))
	if q.Heading != "" {
		fmt.Fprintln(p.out, headingStyle.Render(q.Heading))
	}
	text := q.Text
	if !q.IsRequired {
		text += faintStyle.Render(" (optional)")
	}
	fmt.Fprintln(p.out, text)

	answer, _ := p.flow.Answer(q.ID)
	switch q.Type {
	case model.Multiple:
		fmt.Fprintln(p.out, hintStyle.Render("Select all that apply"))
		picked, _ := answer.(model.MultipleChoice)
		for i, opt := range q.Options {
			p.option(i, opt, "[x]", "[ ]", picked.Contains(opt.ID))
		}
	case model.Single:
		picked, ok := answer.(model.SingleChoice)
		for i, opt := range q.Options {
			p.option(i, opt, "(*)", "( )", ok && picked.OptionID == opt.ID)
		}
	case model.Text:
		if t, ok := answer.(model.OpenText); ok && t.Value != "" {
			fmt.Fprintln(p.out, selectedStyle.Render("> "+t.Value))
		}
	}

	prefix := ""
	if q.Type == model.Text {
		prefix = ":"
		fmt.Fprintln(p.out, hintStyle.Render("Type your answer, or an empty line to leave it blank"))
	}
	controls := prefix + "n: next"
	if progress.IsLast {
		controls = prefix + "n: submit"
	}
	if progress.CanGoBack {
		controls += "  " + prefix + "b: back"
	}
	controls += "  " + prefix + "q: quit"
	fmt.Fprintln(p.out, hintStyle.Render(controls))
}

func (p *prompter) option(i int, opt model.Option, on, off string, selected bool) {
	line := fmt.Sprintf("  %d. %s %s", i+1, off, opt.Text)
	if selected {
		line = selectedStyle.Render(fmt.Sprintf("  %d. %s %s", i+1, on, opt.Text))
	}
	fmt.Fprintln(p.out, line)
}

func (p *prompter) results(ctx context.Context) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, titleStyle.Render("Thank you for your response!"))

	res, err := p.flow.Results(ctx)
	if err != nil {
		fmt.Fprintln(p.out, faintStyle.Render("Results are not available for this survey."))
		return
	}

	fmt.Fprintln(p.out, faintStyle.Render(fmt.Sprintf("Here's how %d people answered so far", res.TotalResponses)))
	for _, q := range res.Results {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, headingStyle.Render(q.Text))
		if q.Type == model.Text {
			for _, t := range q.TextAnswers {
				fmt.Fprintln(p.out, "  - "+t)
			}
			if len(q.TextAnswers) == 0 {
				fmt.Fprintln(p.out, hintStyle.Render("  Open text responses are reviewed privately."))
			}
			continue
		}
		for _, opt := range q.Options {
			fmt.Fprintf(p.out, "  %-24s %s %5.1f%% (%d)\n", opt.Text, bar(opt.Percent), opt.Percent, opt.Count)
		}
	}
}

func bar(percent float64) string {
	n := int(percent / 100 * barWidth)
	n = max(0, min(n, barWidth))
	return barStyle.Render(strings.Repeat("█", n)) + faintStyle.Render(strings.Repeat("░", barWidth-n))
}
