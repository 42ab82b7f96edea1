// Package encoder encodes processed images, optionally searching for the
// highest JPEG quality whose output fits a byte budget.
package encoder

import (
	"image"
)

// Quality bounds and defaults
const (
	MinQuality         = 0
	MaxQuality         = 100
	DefaultQuality     = 75
	DefaultQualityStep = 10
)

// Mode describes how the quality for each attempt is chosen
type Mode string

// Mode constants
const (
	// ModeFixed encodes once at the requested or default quality
	ModeFixed Mode = "fixed"

	// ModeSearch walks down the quality ladder from MaxQuality until the
	// output fits the budget or the ladder reaches MinQuality
	ModeSearch Mode = "search"

	// ModePinned encodes once at the explicit quality and only reports
	// whether the budget was met
	ModePinned Mode = "pinned"
)

// Artifact is the result of one encode run
type Artifact struct {
	Data      []byte
	Quality   int
	Size      int
	Attempts  int
	Mode      Mode
	BudgetMet bool
}

// Budget configures a run of the size-budget encoder
type Budget struct {
	// Quality is the explicit quality, nil when unset
	Quality *int

	// MaxBytes is the output size budget, nil when unset
	MaxBytes *int

	// Step is the ladder decrement used in ModeSearch
	Step int
}

// Mode returns the mode the budget selects
func (b Budget) Mode() Mode {
	switch {
	case b.MaxBytes == nil:
		return ModeFixed
	case b.Quality != nil:
		return ModePinned
	default:
		return ModeSearch
	}
}

// Observer receives every encode attempt. Implementations must not block.
type Observer interface {
	ObserveAttempt(quality, size int)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(quality, size int)

// ObserveAttempt implements Observer
func (f ObserverFunc) ObserveAttempt(quality, size int) { f(quality, size) }

// BudgetEncoder runs an Encoder under a Budget
type BudgetEncoder struct {
	encoder  Encoder
	observer Observer
}

// NewBudgetEncoder creates a budget encoder; observer may be nil
func NewBudgetEncoder(enc Encoder, observer Observer) *BudgetEncoder {
	if enc == nil {
		enc = JPEGEncoder{}
	}
	return &BudgetEncoder{
		encoder:  enc,
		observer: observer,
	}
}

// Encode encodes img according to budget. An unmet budget is not an error:
// the last artifact produced is returned with BudgetMet set to false.
// Errors come only from the underlying encoder and are not retried.
func (e *BudgetEncoder) Encode(img image.Image, budget Budget) (*Artifact, error) {
	mode := budget.Mode()

	if mode == ModeFixed {
		quality := DefaultQuality
		if budget.Quality != nil {
			quality = *budget.Quality
		}
		artifact, err := e.attempt(img, quality, mode, 1)
		if err != nil {
			return nil, err
		}
		artifact.BudgetMet = true
		return artifact, nil
	}

	maxBytes := *budget.MaxBytes
	ladder := Ladder(budget)

	var artifact *Artifact
	for i, quality := range ladder {
		var err error
		artifact, err = e.attempt(img, quality, mode, i+1)
		if err != nil {
			return nil, err
		}
		if artifact.Size <= maxBytes {
			artifact.BudgetMet = true
			break
		}
	}

	return artifact, nil
}

func (e *BudgetEncoder) attempt(img image.Image, quality int, mode Mode, n int) (*Artifact, error) {
	data, err := e.encoder.Encode(img, quality)
	if err != nil {
		return nil, err
	}

	if e.observer != nil {
		e.observer.ObserveAttempt(quality, len(data))
	}

	return &Artifact{
		Data:     data,
		Quality:  quality,
		Size:     len(data),
		Attempts: n,
		Mode:     mode,
	}, nil
}

// Ladder returns the qualities tried for budget, in order. It is never
// empty and strictly decreasing. In ModeSearch it starts at MaxQuality and
// always ends at MinQuality.
func Ladder(budget Budget) []int {
	switch budget.Mode() {
	case ModeFixed, ModePinned:
		if budget.Quality != nil {
			return []int{*budget.Quality}
		}
		return []int{DefaultQuality}
	}

	step := budget.Step
	if step <= 0 {
		step = DefaultQualityStep
	}

	ladder := make([]int, 0, MaxQuality/step+2)
	for q := MaxQuality; q > MinQuality; q -= step {
		ladder = append(ladder, q)
	}
	return append(ladder, MinQuality)
}

// Observers fans attempts out to every non-nil observer
func Observers(observers ...Observer) Observer {
	var list multiObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ObserveAttempt(quality, size int) {
	for _, o := range m {
		o.ObserveAttempt(quality, size)
	}
}
