package view

import (
	"errors"

	ferrors "github.com/figura-dev/figura/internal/errors"
)

var (
	// ErrStructuralTemplate is returned when template markup does not
	// consist of exactly one top-level element.
	ErrStructuralTemplate = errors.New("view must contain exactly one parent element")

	// ErrTypeContract is returned when a value that is not a usable View
	// is registered as a subview.
	ErrTypeContract = errors.New("subview must be a View")
)

func structuralError(count int) error {
	return ferrors.New("F001").
		WithDetailf("template has %d top-level nodes", count).
		WithSuggestion("Wrap the template in a single parent element").
		Wrap(ErrStructuralTemplate)
}

func parseError(err error) error {
	return ferrors.New("F003").Wrap(err)
}

func typeContractError(detail string) error {
	return ferrors.New("F002").
		WithDetail(detail).
		Wrap(ErrTypeContract)
}
