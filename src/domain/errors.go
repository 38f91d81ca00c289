package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// NotFoundError indica que um recurso não existe (ou está soft-deletado
// quando o chamador não pediu include_deleted).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// ConflictError indica violação de unicidade da chave natural.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s='%s' already exists", e.Resource, e.Field, e.Value)
}

// ValidationError indica payload fora do contrato; Field é opcional.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError encapsula falhas de I/O dos stores (Postgres ou Neo4j).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
