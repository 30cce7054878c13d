package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrLoginNotFound = errors.New("login not found")

type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Cycle, " -> ")
}

type UnknownReferenceError struct {
	Kind      string
	Reference string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("entity kind %q references unregistered kind %q", e.Kind, e.Reference)
}

type DuplicateKindError struct {
	Kind string
}

func (e *DuplicateKindError) Error() string {
	return fmt.Sprintf("entity kind %q registered twice", e.Kind)
}

type RegistryFrozenError struct {
	Kind string
}

func (e *RegistryFrozenError) Error() string {
	return fmt.Sprintf("cannot register %q: entity graph already validated", e.Kind)
}

type GraphNotValidatedError struct{}

func (e *GraphNotValidatedError) Error() string {
	return "entity graph must be validated before planning"
}

// DeletionConstraintError is returned by stores when a delete was refused by
// a still-enforced reference.
type DeletionConstraintError struct {
	Kind string
	Err  error
}

func (e *DeletionConstraintError) Error() string {
	return fmt.Sprintf("delete %s refused by constraint: %v", e.Kind, e.Err)
}

func (e *DeletionConstraintError) Unwrap() error { return e.Err }

type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type MissingHandleError struct {
	Name string
	Kind string
}

func (e *MissingHandleError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("handle %q not found", e.Name)
	}
	return fmt.Sprintf("handle %q has no %s record", e.Name, e.Kind)
}

type DuplicateHandleError struct {
	Name string
	Kind string
}

func (e *DuplicateHandleError) Error() string {
	return fmt.Sprintf("handle %q already holds a %s entry", e.Name, e.Kind)
}

// UserCancelledError means the operator declined the destructive run. It is
// not a failure.
type UserCancelledError struct{}

func (e *UserCancelledError) Error() string {
	return "operation cancelled by user"
}

type OrchestrationError struct {
	Stage string
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
