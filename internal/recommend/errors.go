package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is returned for missing identifiers.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelInvocation wraps failures reported by the model.
	ErrModelInvocation = errors.New("model invocation failed")
	// ErrGenerationShortfall is returned when fewer than three replies could be produced.
	ErrGenerationShortfall = errors.New("failed to generate enough recommendations")
)

// Entity kinds reported by NotFoundError.
const (
	EntityCreator      = "creator"
	EntityFan          = "fan"
	EntitySystemPrompt = "system_prompt"
)

// NotFoundError reports which record of a request does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	switch e.Entity {
	case EntityCreator:
		return "Creator not found"
	case EntityFan:
		return "Fan not found"
	case EntitySystemPrompt:
		return "System prompt not found"
	default:
		return fmt.Sprintf("%s not found", e.Entity)
	}
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
