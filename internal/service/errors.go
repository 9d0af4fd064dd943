package service

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("service: not found")
	// ErrNotAuthorized indicates the actor may not act on this resource.
	ErrNotAuthorized = errors.New("service: not authorized")
	// ErrUnauthorized indicates missing or invalid auth tokens.
	ErrUnauthorized = errors.New("service: unauthorized")
	// ErrInvalidCredentials indicates provided credentials are wrong.
	ErrInvalidCredentials = errors.New("service: invalid credentials")
	// ErrAccountDisabled indicates the account is deactivated.
	ErrAccountDisabled = errors.New("service: account disabled")
	// ErrRateLimited indicates the caller exceeded allowed attempts.
	ErrRateLimited = errors.New("service: rate limited")
	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("service: email already exists")
	// ErrEmptyOrder indicates an order was submitted without line items.
	ErrEmptyOrder = errors.New("service: order has no items")
	// ErrInvalidQuantity indicates a non-positive line item quantity.
	ErrInvalidQuantity = errors.New("service: quantity must be positive")
	// ErrInvalidCategory indicates an unknown product category.
	ErrInvalidCategory = errors.New("service: invalid product category")
	// ErrInvalidInput indicates a request failed field validation.
	ErrInvalidInput = errors.New("service: invalid input")
	// ErrUploadTooLarge indicates an image exceeded the size cap.
	ErrUploadTooLarge = errors.New("service: upload too large")
	// ErrUnsupportedFileType indicates a disallowed image extension.
	ErrUnsupportedFileType = errors.New("service: unsupported file type")
	// ErrStorageUnavailable indicates the datastore could not serve the
	// request; callers should treat it as retryable.
	ErrStorageUnavailable = errors.New("service: storage unavailable")
)
