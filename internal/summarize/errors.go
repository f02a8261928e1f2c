// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"errors"
	"fmt"
	"net"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// errClass sorts backend failures into retry behavior. Transient errors
// (rate limits, overload, 5xx, timeouts) get a bounded retry. Permanent
// errors fail the one paper. Systemic errors (bad credentials) will fail
// every remaining call the same way, so the worker pool stops issuing
// requests once it sees one. Per prd004-summarization R3.1.
type errClass int

const (
	errPermanent errClass = iota
	errTransient
	errSystemic
)

// SystemicError marks a failure that cannot succeed on any later call
// in the same run, such as a rejected API key.
type SystemicError struct {
	Err error
}

func (e *SystemicError) Error() string {
	return fmt.Sprintf("systemic summarization failure: %v", e.Err)
}

func (e *SystemicError) Unwrap() error { return e.Err }

// IsSystemic reports whether err carries a SystemicError anywhere in
// its chain.
func IsSystemic(err error) bool {
	var serr *SystemicError
	return errors.As(err, &serr)
}

func classify(err error) errClass {
	var aerr *anthropic.APIError
	if errors.As(err, &aerr) {
		switch aerr.Type {
		case anthropic.ErrTypeRateLimit, anthropic.ErrTypeOverloaded, anthropic.ErrTypeApi:
			return errTransient
		case anthropic.ErrTypeAuthentication, anthropic.ErrTypePermission:
			return errSystemic
		}
		return errPermanent
	}
	var areq *anthropic.RequestError
	if errors.As(err, &areq) {
		return classifyStatus(areq.StatusCode)
	}
	var oerr *openai.APIError
	if errors.As(err, &oerr) {
		return classifyStatus(oerr.HTTPStatusCode)
	}
	var oreq *openai.RequestError
	if errors.As(err, &oreq) {
		return classifyStatus(oreq.HTTPStatusCode)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return errTransient
	}
	return errPermanent
}

func classifyStatus(code int) errClass {
	switch {
	case code == 401 || code == 403:
		return errSystemic
	case code == 429 || code >= 500:
		return errTransient
	}
	return errPermanent
}
