package badges

import "errors"

var (
	ErrInvalidEvent   = errors.New("invalid event")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrDuplicateEvent = errors.New("duplicate event")
	ErrAlreadyAwarded = errors.New("badge already awarded")
	ErrStorage        = errors.New("storage error")
	ErrNotFound       = errors.New("not found")

	// коды скидок
	ErrCodeCollision = errors.New("discount code collision")
	ErrAlreadyMinted = errors.New("discount code already minted")

	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidCatalog = errors.New("invalid badge catalog")
)
