package apperrors

import "errors"

// ErrNotFound indicates that a referenced account or transaction does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrCurrencyMismatch indicates an operation across two different currencies:
// posting vs account, posting vs the rest of its transaction, or money arithmetic.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ErrImbalanced indicates that the signed sum of a transaction's postings is not zero.
var ErrImbalanced = errors.New("transaction postings do not balance to zero")

// ErrInsufficientFunds indicates that a posting would drive a restricted account balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrContention indicates that an account lock could not be acquired within the
// allowed wait. No partial state exists; the whole request is safe to retry.
var ErrContention = errors.New("account lock contention")
