package app

type Decision int

const (
	Permit Decision = iota
	RejectMissingCredential
	RejectNotOwner
	RejectNotFound
)

func (d Decision) String() string {
	switch d {
	case Permit:
		return "permit"
	case RejectMissingCredential:
		return "reject_missing_credential"
	case RejectNotOwner:
		return "reject_not_owner"
	case RejectNotFound:
		return "reject_not_found"
	default:
		return "unknown"
	}
}

// Err maps a rejection to its sentinel error; nil for Permit.
func (d Decision) Err() error {
	switch d {
	case Permit:
		return nil
	case RejectMissingCredential:
		return ErrMissingCredential
	case RejectNotOwner:
		return ErrNotOwner
	default:
		return ErrMealNotFound
	}
}

// Authorize decides whether sessionID may access a meal owned by resourceOwnerID.
// An empty sessionID means no credential was presented; an empty resourceOwnerID means
// the meal does not exist.
func Authorize(sessionID, resourceOwnerID string) Decision {
	switch {
	case sessionID == "":
		return RejectMissingCredential
	case resourceOwnerID == "":
		return RejectNotFound
	case resourceOwnerID != sessionID:
		return RejectNotOwner
	default:
		return Permit
	}
}
