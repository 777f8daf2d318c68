package main

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// SurveyIO represents the standard input/output streams for prompts.
type SurveyIO struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err terminal.FileWriter
}

// DefaultSurveyIO prompts on the process terminal.
var DefaultSurveyIO = SurveyIO{
	In:  os.Stdin,
	Out: os.Stdout,
	Err: os.Stderr,
}

// WithStdio returns the survey.WithStdio option for these streams.
func (s SurveyIO) WithStdio() survey.AskOpt {
	return survey.WithStdio(s.In, s.Out, s.Err)
}

// prompter asks the user for the values a command was not given as flags.
type prompter interface {
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Confirm(message string) (bool, error)
}

// surveyPrompter asks through survey on a SurveyIO.
type surveyPrompter struct {
	io SurveyIO
}

func (p surveyPrompter) Input(message, def string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, p.io.WithStdio())
	return out, err
}

func (p surveyPrompter) Password(message string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Password{Message: message}, &out, p.io.WithStdio(), survey.WithValidator(survey.Required))
	return out, err
}

func (p surveyPrompter) Confirm(message string) (bool, error) {
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: message}, &out, p.io.WithStdio())
	return out, err
}
