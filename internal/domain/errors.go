package domain

import "errors"

var (
	// ErrNotFound marks an absent user or hotel record.
	ErrNotFound = errors.New("hotel_scout: not found")

	// ErrSourceUnavailable marks a transient upstream failure (no payload or an
	// error-flagged payload). Call sites retry a bounded number of times before
	// converting it into ErrSearchFailed.
	ErrSourceUnavailable = errors.New("hotel_scout: source unavailable")

	// ErrSearchFailed is surfaced to the user as a plain retry message after the
	// retry budget for a listing or detail call is exhausted.
	ErrSearchFailed = errors.New("hotel_scout: search failed")

	// ErrConversionUnavailable means the currency helper could not answer;
	// display degrades to the source currency.
	ErrConversionUnavailable = errors.New("hotel_scout: conversion unavailable")
)

// IsTransient reports whether err should be retried at the call site.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
