package llm

import (
	"errors"
	"fmt"
)

// ErrGenerationIncomplete is the base error kind for replies whose
// reasoning segment never resolved into usable output. Both variants
// below match it via errors.Is.
var ErrGenerationIncomplete = errors.New("generation incomplete")

var (
	ErrReasoningOnly       = fmt.Errorf("%w: model only generated thinking process, no insight produced", ErrGenerationIncomplete)
	ErrReasoningUnfinished = fmt.Errorf("%w: incomplete response, thinking process not finished", ErrGenerationIncomplete)
)
