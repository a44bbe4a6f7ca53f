package reservation

import "labreserve/internal/pkg/apperror"

var (
	ErrReservationNotFound = apperror.New(apperror.KindNotFound, "RESERVATION_NOT_FOUND", "reservation not found")
	ErrLabNotFound         = apperror.New(apperror.KindNotFound, "LAB_NOT_FOUND", "lab not found")
	ErrGroupNotFound       = apperror.New(apperror.KindNotFound, "RECURRING_GROUP_NOT_FOUND", "recurring group not found")
	ErrWorkstationNotFound = apperror.New(apperror.KindNotFound, "WORKSTATION_NOT_FOUND", "workstation not found")

	ErrNotAuthorized = apperror.New(apperror.KindNotAuthorized, "NOT_AUTHORIZED", "not authorized to act on this reservation")

	ErrInvalidState              = apperror.New(apperror.KindInvalidState, "INVALID_STATE", "operation not allowed in the current state")
	ErrAlreadyHasPendingProposal = apperror.New(apperror.KindInvalidState, "ALREADY_HAS_PENDING_PROPOSAL", "reservation already has a pending edit proposal")
	ErrNoPendingProposal         = apperror.New(apperror.KindInvalidState, "NO_PENDING_PROPOSAL", "reservation has no pending edit proposal")

	ErrInvalidReservationTime  = apperror.New(apperror.KindInvalidInput, "INVALID_RESERVATION_TIME", "invalid reservation time")
	ErrInvalidRecurringPattern = apperror.New(apperror.KindInvalidInput, "INVALID_RECURRING_PATTERN", "invalid recurring pattern")

	ErrOutsideOperatingHours  = apperror.New(apperror.KindValidationFailed, "OUTSIDE_OPERATING_HOURS", "reservation is outside the lab operating hours")
	ErrLabClosed              = apperror.New(apperror.KindValidationFailed, "LAB_CLOSED", "lab is closed on the requested day")
	ErrNoWorkstationsSelected = apperror.New(apperror.KindValidationFailed, "NO_WORKSTATIONS_SELECTED", "select at least one workstation or book the whole lab")
	ErrWorkstationNotInLab    = apperror.New(apperror.KindValidationFailed, "WORKSTATION_NOT_IN_LAB", "workstation belongs to a different lab")
	ErrWorkstationInactive    = apperror.New(apperror.KindValidationFailed, "WORKSTATION_INACTIVE", "workstation is inactive")
)
