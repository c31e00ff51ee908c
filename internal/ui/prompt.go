package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   "",
	}

	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		return defaultYes, nil // Return default on error
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// SelectRecord prompts the user to select one of several records.
func SelectRecord(views []provider.RecordView, prompt string) (int, error) {
	if len(views) == 0 {
		return -1, fmt.Errorf("no applications to select from")
	}

	if len(views) == 1 {
		return 0, nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Version | green }} [{{ .Backend | magenta }} {{ .Source.ID | magenta }}]",
		Inactive: "  {{ .Name }} {{ .Version | faint }} [{{ .Backend | faint }} {{ .Source.ID | faint }}]",
		Selected: "✓ {{ .Name | cyan }} {{ .Version | green }} [{{ .Backend | magenta }}]",
		Details: `
--------- Application ----------
{{ "ID:" | faint }}	{{ .ID }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Status:" | faint }}	{{ .Status }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		v := views[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(v.Name), input) || strings.Contains(strings.ToLower(v.ID), input)
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     views,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return -1, err
	}
	return index, nil
}

// SelectSource prompts the user to pick a source of an application. The active
// option is preselected.
func SelectSource(options []sources.Option, active *provider.Record, prompt string) (sources.Option, error) {
	if len(options) == 0 {
		return sources.Option{}, fmt.Errorf("no sources available")
	}

	if len(options) == 1 {
		return options[0], nil
	}

	cursor := 0
	for i, o := range options {
		if o.Record == active {
			cursor = i
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Label | cyan }} {{ .ID | faint }}",
		Inactive: "  {{ .Label }} {{ .ID | faint }}",
		Selected: "✓ {{ .Label | cyan }}",
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     options,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
	}

	index, _, err := p.Run()
	if err != nil {
		return sources.Option{}, err
	}
	return options[index], nil
}
