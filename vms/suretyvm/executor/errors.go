// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "errors"

var (
	ErrNotOperational      = errors.New("contract is not operational")
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrInsufficientFunding = errors.New("airline is not registered or not sufficiently funded")
	ErrNotRegistered       = errors.New("airline is not registered")
	ErrAlreadyRegistered   = errors.New("airline is already registered")
	ErrNotPending          = errors.New("airline is not pending registration")
	ErrDuplicateVote       = errors.New("caller already voted for this airline")
	ErrDuplicateFlight     = errors.New("flight is already registered")
	ErrFlightNotRegistered = errors.New("flight is not registered")
	ErrPaymentRequired     = errors.New("payment required")
	ErrPremiumExceeded     = errors.New("premium exceeds maximum")
	ErrInsufficientCredit  = errors.New("insufficient credit")
	ErrDuplicateOracle     = errors.New("oracle is already registered")
	ErrUnauthorizedOracle  = errors.New("oracle is not registered for this index")
	ErrNoMatchingRequest   = errors.New("no matching oracle request")
	ErrRequestClosed       = errors.New("oracle request is closed")
	ErrDuplicateResponse   = errors.New("oracle already responded to this request")
	ErrInvalidStatus       = errors.New("invalid flight status code")

	errInvalidSample = errors.New("sampler returned invalid oracle indexes")
)
