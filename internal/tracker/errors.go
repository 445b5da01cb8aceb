package tracker

import "fmt"

// InvalidTrackerURLError reports a tracker URL that does not match the
// expected shape for its platform. Raised before any network call.
type InvalidTrackerURLError struct {
	Platform Platform
	URL      string
}

func (e *InvalidTrackerURLError) Error() string {
	return fmt.Sprintf("tracker URL %q does not match the %s pattern", e.URL, e.Platform)
}

// MissingCredentialError reports absent tenant configuration for a platform.
type MissingCredentialError struct {
	Platform Platform
	Key      string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no %s configured for %s integration", e.Key, e.Platform)
}

// RemoteHTTPError reports a non-2xx response from a tracker API.
type RemoteHTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteHTTPError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// RemoteTimeoutError reports an outbound call that exceeded the adapter timeout.
type RemoteTimeoutError struct {
	Method string
	URL    string
	Err    error
}

func (e *RemoteTimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out: %v", e.Method, e.URL, e.Err)
}

func (e *RemoteTimeoutError) Unwrap() error {
	return e.Err
}

// TrackerLookupError reports that a named SourceHut project has no matching
// tracker on the remote service.
type TrackerLookupError struct {
	Tracker string
}

func (e *TrackerLookupError) Error() string {
	return fmt.Sprintf("no tracker found for %q", e.Tracker)
}
