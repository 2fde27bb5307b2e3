package db

import "fmt"

// SwipeDirection is the verdict of a swipe.
type SwipeDirection string

const (
	DirectionLeft  SwipeDirection = "left"
	DirectionRight SwipeDirection = "right"
)

// ParseSwipeDirection validates a wire value.
func ParseSwipeDirection(s string) (SwipeDirection, error) {
	switch d := SwipeDirection(s); d {
	case DirectionLeft, DirectionRight:
		return d, nil
	}
	return "", fmt.Errorf("invalid swipe direction %q", s)
}

// SwipeType says what the swiper was evaluating: a person or a job posting.
type SwipeType string

const (
	SwipeCandidate SwipeType = "candidate"
	SwipeJob       SwipeType = "job"
)

// ParseSwipeType validates a wire value.
func ParseSwipeType(s string) (SwipeType, error) {
	switch t := SwipeType(s); t {
	case SwipeCandidate, SwipeJob:
		return t, nil
	}
	return "", fmt.Errorf("invalid swipe type %q", s)
}

// ApplicationStatus is the lifecycle state of an Application.
//
//	Pending → Submitted → Accepted
//	                    → Dismissed
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "Pending"
	StatusSubmitted ApplicationStatus = "Submitted"
	StatusAccepted  ApplicationStatus = "Accepted"
	StatusDismissed ApplicationStatus = "Dismissed"
)

var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:   {StatusSubmitted},
	StatusSubmitted: {StatusAccepted, StatusDismissed},
}

// ParseApplicationStatus validates a wire value.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case StatusPending, StatusSubmitted, StatusAccepted, StatusDismissed:
		return st, nil
	}
	return "", fmt.Errorf("invalid application status %q", s)
}

// CanTransitionTo reports whether next directly follows s in the lifecycle.
// Terminal states have no successors, so status never regresses.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsLinks reports whether links may still be appended in this state.
func (s ApplicationStatus) AcceptsLinks() bool {
	return s == StatusPending || s == StatusSubmitted
}

// TextEditable reports whether application_text may be changed in this state.
func (s ApplicationStatus) TextEditable() bool {
	return s == StatusPending
}

// UserType separates the two sides of the marketplace.
type UserType string

const (
	UserCandidate UserType = "candidate"
	UserEmployer  UserType = "employer"
)

// ParseUserType validates a wire value.
func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserCandidate, UserEmployer:
		return t, nil
	}
	return "", fmt.Errorf("invalid user type %q", s)
}

// ReportTarget names the kind of entity a report points at.
type ReportTarget string

const (
	ReportUser    ReportTarget = "user"
	ReportJob     ReportTarget = "job"
	ReportMessage ReportTarget = "message"
)

// ParseReportTarget validates a wire value.
func ParseReportTarget(s string) (ReportTarget, error) {
	switch t := ReportTarget(s); t {
	case ReportUser, ReportJob, ReportMessage:
		return t, nil
	}
	return "", fmt.Errorf("invalid report target %q", s)
}

// Access levels carried in user_level_id.
const (
	LevelAdmin uint64 = 1
	LevelUser  uint64 = 2
)
