package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"weft/internal/driver"
	"weft/internal/ui"
)

type buildOutcome struct {
	result *driver.Result
	err    error
}

func runBuildWithUI(ctx context.Context, title string, req driver.Request) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Build(ctx, reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the build keeps sending after an interrupted UI
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
