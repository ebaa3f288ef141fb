package tui

import "github.com/hextract/parking-net/internal/domain"

type probeMsg struct {
	probe domain.ProbeResult
}

type stepStartedMsg struct {
	name  string
	index int
	total int
}

type stepFinishedMsg struct {
	result domain.StepResult
	index  int
	total  int
}

type logMsg struct {
	level string
	text  string
}

type runDoneMsg struct {
	summary domain.RunSummary
	err     error
}
