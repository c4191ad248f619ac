package mesher

import (
	"github.com/dd0wney/cluso-tubemesh/pkg/resolve"
	"github.com/dd0wney/cluso-tubemesh/pkg/validation"
)

// Options is the caller-facing record controlling a generation. Zero
// values are not usable directly; start from DefaultOptions.
type Options struct {
	// Structure is the network layout grammar, e.g. "(1-2-3,3-4,3.2-5)".
	Structure string `validate:"required"`

	ElementsCountAround                     int     `validate:"gte=4"`
	ElementsCountThroughShell               int     `validate:"gte=1"`
	TargetElementDensityAlongLongestSegment float64 `validate:"gte=1"`

	IsCore                    bool
	ElementsCountCoreBoxMinor int
	ElementsCountTransition   int

	UseLinearThroughShell bool
	UseOuterTrimSurfaces  bool
	IsShowTrimSurfaces    bool

	// sparse per-annotation overrides, authoritative over the defaults
	AnnotationElementsCountAround       map[string]int
	AnnotationElementsCountAlong        map[string]int
	AnnotationElementsCountCoreBoxMinor map[string]int
}

// DefaultOptions returns the canonical defaults: an 8-around single-shell
// hollow tube at density 4.
func DefaultOptions() Options {
	return Options{
		ElementsCountAround:                     8,
		ElementsCountThroughShell:               1,
		TargetElementDensityAlongLongestSegment: 4.0,
		ElementsCountCoreBoxMinor:               2,
		ElementsCountTransition:                 1,
	}
}

// Validate checks the options record: struct tags first, then the
// cross-field core constraints and the override maps.
func (o Options) Validate() error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	cv := validation.NewConfigValidator("Options")
	cv.When(o.IsCore, func(cv *validation.ConfigValidator) {
		cv.MultipleOfInt("ElementsCountAround", o.ElementsCountAround, 4)
		cv.MinInt("ElementsCountCoreBoxMinor", o.ElementsCountCoreBoxMinor, 2)
		cv.EvenInt("ElementsCountCoreBoxMinor", o.ElementsCountCoreBoxMinor)
		cv.Positive("ElementsCountTransition", o.ElementsCountTransition)
	})
	cv.Custom("AnnotationElementsCountAround", func() error {
		return validation.ValidateOverrides("AnnotationElementsCountAround", o.AnnotationElementsCountAround, 4)
	})
	cv.Custom("AnnotationElementsCountAlong", func() error {
		return validation.ValidateOverrides("AnnotationElementsCountAlong", o.AnnotationElementsCountAlong, 1)
	})
	cv.Custom("AnnotationElementsCountCoreBoxMinor", func() error {
		return validation.ValidateOverrides("AnnotationElementsCountCoreBoxMinor", o.AnnotationElementsCountCoreBoxMinor, 2)
	})
	return cv.Validate()
}

func (o Options) resolveOptions() resolve.Options {
	boxMinor := 0
	if o.IsCore {
		boxMinor = o.ElementsCountCoreBoxMinor
	}
	return resolve.Options{
		Around:            o.ElementsCountAround,
		Shell:             o.ElementsCountThroughShell,
		Density:           o.TargetElementDensityAlongLongestSegment,
		Core:              o.IsCore,
		BoxMinor:          boxMinor,
		Transition:        o.ElementsCountTransition,
		AroundOverrides:   o.AnnotationElementsCountAround,
		AlongOverrides:    o.AnnotationElementsCountAlong,
		BoxMinorOverrides: o.AnnotationElementsCountCoreBoxMinor,
	}
}
