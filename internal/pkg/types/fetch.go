package types

import (
	"net/http"
	"strconv"
	"time"
)

// Classifies why a fetch did not produce a usable response.
type ErrorKind string

const (
	ErrorNone             ErrorKind = "none"
	ErrorTimeout          ErrorKind = "timeout"
	ErrorConnectionFailed ErrorKind = "connection-failed"
	ErrorTooLarge         ErrorKind = "too-large"
	ErrorCanceled         ErrorKind = "canceled"
)

// Result of one HTTP GET, retries included. Never mutated after the fetcher returns it.
type FetchOutcome struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Header     http.Header   `json:"-"`
	Body       string        `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
	Attempts   int           `json:"attempts"`
	ErrorKind  ErrorKind     `json:"error_kind"`
	Err        string        `json:"error,omitempty"`
}

// Reports whether the request failed before a complete response was read.
func (o FetchOutcome) Failed() bool {
	return o.ErrorKind != "" && o.ErrorKind != ErrorNone
}

// Reports whether the resource was served with HTTP 200.
func (o FetchOutcome) OK() bool {
	return !o.Failed() && o.StatusCode == http.StatusOK
}

// Reports whether a complete response came back with a status other than 200.
// 403, 404 and 5xx all mean the resource is not served.
func (o FetchOutcome) Missing() bool {
	return !o.Failed() && o.StatusCode != http.StatusOK
}

// Describes a non-OK outcome for messages.
func (o FetchOutcome) Reason() string {
	switch {
	case o.Failed() && o.Err != "":
		return string(o.ErrorKind) + ": " + o.Err
	case o.Failed():
		return string(o.ErrorKind)
	case o.StatusCode != http.StatusOK:
		return "HTTP " + strconv.Itoa(o.StatusCode)
	}
	return ""
}
