package attendance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/audio"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/records"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/transcription"
)

// Outcome is the terminal state of a capture cycle
type Outcome string

const (
	OutcomeRecorded       Outcome = "recorded"
	OutcomeCaptureTimeout Outcome = "capture_timeout"
	OutcomeUnintelligible Outcome = "unintelligible"
	OutcomeServiceError   Outcome = "service_error"
	OutcomeStorageError   Outcome = "storage_error"
	OutcomeOtherError     Outcome = "other_error"
)

// Status texts and spoken phrases
const (
	StatusListening = "Listening... Speak the names clearly"

	PhraseRecorded = "Attendance recorded successfully"

	MessageCaptureTimeout = "No speech detected. Please try again."
	MessageUnintelligible = "Could not understand audio. Please try again."

	StatusServiceError = "Could not connect to the speech recognition service"
	PhraseServiceError = "Service error. Please check your internet connection."

	PhraseGenericError = "An error occurred. Please try again."
)

// Classify maps a capture cycle error to its terminal outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeRecorded
	case errors.Is(err, audio.ErrCaptureTimeout):
		return OutcomeCaptureTimeout
	case errors.Is(err, transcription.ErrUnintelligible):
		return OutcomeUnintelligible
	case errors.Is(err, transcription.ErrServiceUnavailable):
		return OutcomeServiceError
	case errors.Is(err, records.ErrWrite):
		return OutcomeStorageError
	default:
		return OutcomeOtherError
	}
}

// recordedStatus lists the names written by a successful capture
func recordedStatus(names []string) string {
	return "Attendance recorded for " + strings.Join(names, ", ")
}

// failureMessages returns the status text and spoken phrase for a failed cycle
func failureMessages(outcome Outcome, err error) (status, phrase string) {
	switch outcome {
	case OutcomeCaptureTimeout:
		return MessageCaptureTimeout, MessageCaptureTimeout
	case OutcomeUnintelligible:
		return MessageUnintelligible, MessageUnintelligible
	case OutcomeServiceError:
		return StatusServiceError, PhraseServiceError
	case OutcomeStorageError:
		return fmt.Sprintf("Error saving attendance: %v", err), PhraseGenericError
	default:
		return fmt.Sprintf("Error: %v", err), PhraseGenericError
	}
}
