package classify

import (
	"testing"
)

func TestSeverityBuckets(t *testing.T) {
	critical := []Code{CodeInternalError, CodeInvalidCredential, CodeServiceUnavailable}
	for _, code := range critical {
		if got := SeverityFor(code); got != SeverityCritical {
			t.Errorf("SeverityFor(%s) = %s, want critical", code, got)
		}
	}

	high := []Code{CodeUploadFailed, CodeOperationFailed, CodeAccessDenied}
	for _, code := range high {
		if got := SeverityFor(code); got != SeverityHigh {
			t.Errorf("SeverityFor(%s) = %s, want high", code, got)
		}
	}

	low := []Code{CodeCacheMiss, CodeAssetNotFound, CodeRateLimited}
	for _, code := range low {
		if got := SeverityFor(code); got != SeverityLow {
			t.Errorf("SeverityFor(%s) = %s, want low", code, got)
		}
	}

	// Everything else defaults to medium.
	if got := SeverityFor(CodeSearchFailed); got != SeverityMedium {
		t.Errorf("SeverityFor(search-failed) = %s, want medium", got)
	}
}

func TestRetryableDefaults(t *testing.T) {
	retryable := []Code{
		CodeNetworkError, CodeTimeout, CodeServiceUnavailable,
		CodeRateLimited, CodeFeeEstimationFailed, CodeSearchTimeout, CodeCacheError,
	}
	for _, code := range retryable {
		if !RetryableFor(code, nil) {
			t.Errorf("expected %s to be retryable by default", code)
		}
	}

	if RetryableFor(CodeAssetNotFound, nil) {
		t.Error("expected asset-not-found to be non-retryable by default")
	}
}

func TestRetryableOverride(t *testing.T) {
	yes := true

	// Overridable code
	if !RetryableFor(CodeAssetNotFound, &yes) {
		t.Error("override should make asset-not-found retryable")
	}

	// Never-retryable codes ignore the override
	never := []Code{
		CodeInvalidCredential, CodeAccessDenied, CodeInvalidReference,
		CodeInvalidIdentifier, CodeFileTooLarge, CodeInvalidType, CodeInvalidMetadata,
	}
	for _, code := range never {
		if RetryableFor(code, &yes) {
			t.Errorf("override must not make %s retryable", code)
		}
	}
}

func TestSuggestionAlwaysPresent(t *testing.T) {
	if SuggestionFor(CodeTimeout) == "" {
		t.Error("expected suggestion for timeout")
	}
	if SuggestionFor(CodeTooManyResults) == "" {
		t.Error("expected fallback suggestion for unmapped code")
	}
}
