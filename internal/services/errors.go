// Package services defines the business logic for uploads, analyses, history,
// profiles, feedback and the safety assistant. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"

	"github.com/safestudent/safe-student-backend/internal/repo"
)

// Upload-related errors.
var (
	// ErrInvalidOwner is returned when the owner id is empty or cannot be used
	// as a storage key prefix.
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrEmptyFile is returned when an upload carries no bytes.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotImage is returned when the sniffed content type is not image/*.
	ErrNotImage = errors.New("file is not an image")

	// ErrUploadFailed wraps storage or record failures while uploading.
	ErrUploadFailed = errors.New("upload failed")

	// ErrUploadNotFound indicates that the upload does not exist or is not
	// owned by the current user.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrImageDeleteFailed is returned when the stored image could not be
	// removed; the record is left intact.
	ErrImageDeleteFailed = errors.New("failed to delete image")

	// ErrInvalidFilter is returned for an unknown risk level filter.
	ErrInvalidFilter = errors.New("invalid history filter")
)

// Analysis-related errors.
var (
	// ErrInvalidState is returned when the upload's status does not allow the
	// requested analysis (e.g. analyze on an already analyzed upload).
	ErrInvalidState = errors.New("upload is not in a state that allows this operation")

	// ErrAnalysisInProgress is returned when another request is analyzing the
	// same upload.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrAnalysisFailed wraps model, parsing or persistence failures. The
	// upload is left in the error status.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrAnalysisNotFound is returned when an upload has no analysis yet.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// Feedback, profile and assistant errors.
var (
	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrDuplicateFeedback is returned when a user attempts to leave feedback
	// on an analysis that they have already rated.
	ErrDuplicateFeedback = errors.New("feedback already exists")

	// ErrInvalidProfile is returned when a profile field fails validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrEmptyPrompt is returned when an assistant message is empty.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when an assistant message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrAssistantUnavailable is returned when the assistant model failed.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

// notFoundAs replaces a repository ErrNotFound with the service sentinel
// callers match on. Other errors pass through unchanged.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return sentinel
	}
	return err
}
