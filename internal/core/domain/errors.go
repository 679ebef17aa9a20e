package domain

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrImmutableField  = errors.New("immutable field")
	ErrStorage         = errors.New("storage fault")
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrOwnsDocuments is returned when removing a user that still owns
	// documents under the restrict removal policy.
	ErrOwnsDocuments = errors.New("user still owns documents")
)

// ErrorKind returns a short stable label for err, suitable for metric labels
// and audit records. A nil error is "ok".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrImmutableField):
		return "immutable_field"
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return "unauthenticated"
	case errors.Is(err, ErrOwnsDocuments):
		return "owns_documents"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
