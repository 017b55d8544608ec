package imagegen

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited matches any provider error signalling quota backpressure.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoImage is returned when a provider answers without an image,
	// typically because the prompt was filtered.
	ErrNoImage = errors.New("provider returned no image")
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrRateLimited) match HTTP 429 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// ErrorKind is the retry classification of a generation failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindRateLimited
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// Classify reports whether err is worth waiting out. Everything that is not
// an explicit rate-limit signal is KindOther, including timeouts and
// cancellations.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrRateLimited) {
		return KindRateLimited
	}
	return KindOther
}
