package entities

// ResultKind tags the outcome of an acquisition
type ResultKind int

const (
	ResultDelivered ResultKind = iota
	ResultUnsupported
	ResultRejected
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultDelivered:
		return "delivered"
	case ResultUnsupported:
		return "unsupported"
	case ResultRejected:
		return "rejected"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason narrows a rejected or failed outcome down to a user-facing message
type FailureReason string

const (
	ReasonNone      FailureReason = ""
	ReasonTooLong   FailureReason = "too_long"
	ReasonTooLarge  FailureReason = "too_large"
	ReasonTimeout   FailureReason = "timeout"
	ReasonForbidden FailureReason = "forbidden"
	ReasonNotFound  FailureReason = "not_found"
	ReasonBlocked   FailureReason = "blocked"
	ReasonNoFile    FailureReason = "no_file"
	ReasonUnknown   FailureReason = "unknown"
)

// AcquireResult is Delivered(artifact) | Unsupported | Rejected(reason) | Failed(reason)
type AcquireResult struct {
	Kind     ResultKind
	Artifact *DownloadedArtifact
	Reason   FailureReason
	Err      error
	// Size is the offending byte size for a too_large rejection
	Size int64
}

// Delivered wraps a produced artifact
func Delivered(artifact *DownloadedArtifact) AcquireResult {
	return AcquireResult{Kind: ResultDelivered, Artifact: artifact}
}

// Unsupported signals an expected content-kind limitation
func Unsupported(err error) AcquireResult {
	return AcquireResult{Kind: ResultUnsupported, Err: err}
}

// Rejected signals a policy ceiling was exceeded
func Rejected(reason FailureReason, err error) AcquireResult {
	return AcquireResult{Kind: ResultRejected, Reason: reason, Err: err}
}

// Failed signals a transient or unexpected acquisition failure
func Failed(reason FailureReason, err error) AcquireResult {
	return AcquireResult{Kind: ResultFailed, Reason: reason, Err: err}
}
