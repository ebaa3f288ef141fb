package ports

import "github.com/hextract/parking-net/internal/domain"

// RunObserver receives run progress as it happens.
type RunObserver interface {
	ProbeFinished(p domain.ProbeResult)
	StepStarted(name string, index, total int)
	StepFinished(r domain.StepResult, index, total int)
}
