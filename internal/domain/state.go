package domain

import "fmt"

// Phase is the lifecycle of a single fetch.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	ErrorNetwork  ErrorKind = "network"
	ErrorDecoding ErrorKind = "decoding"
	ErrorUnknown  ErrorKind = "unknown"
)

// ListingError is the user-visible description of the last failed fetch.
type ListingError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ListingState is an immutable snapshot of one listing screen.
type ListingState struct {
	Products    []Product     `json:"products"`
	Total       *int          `json:"total"`
	Filter      FilterSpec    `json:"filter"`
	Sort        SortSpec      `json:"sort"`
	Query       string        `json:"query"`
	Loading     bool          `json:"loading"`
	Phase       Phase         `json:"phase"`
	Err         *ListingError `json:"error,omitempty"`
	CanPaginate bool          `json:"can_paginate"`
	Version     uint64        `json:"version"`
	Accumulated int           `json:"accumulated"`
}

// NotificationKind classifies one-shot notifications.
type NotificationKind string

const (
	NotifyError NotificationKind = "error"
	NotifyInfo  NotificationKind = "info"
)

// Notification is a one-shot message meant for a toast or snackbar.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseLoading, PhaseSuccess, PhaseError} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
