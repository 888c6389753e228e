// Package classify maps raw backend failures onto a closed taxonomy of
// stable error codes with fixed severity and retryability. Every failure
// leaving the fan-out layer is a *Record produced here; callers never see
// raw backend errors.
package classify

// Code is a stable taxonomy identifier for a class of failure, independent
// of the originating backend's native error format.
type Code string

// The closed code set, grouped by category.
const (
	// Network
	CodeNetworkError       Code = "network-error"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate-limited"
	CodeServiceUnavailable Code = "service-unavailable"

	// Auth
	CodeInvalidCredential      Code = "invalid-credential"
	CodeInsufficientPermission Code = "insufficient-permission"
	CodeWalletNotConnected     Code = "wallet-not-connected"
	CodeInvalidSignature       Code = "invalid-signature"

	// Asset
	CodeAssetNotFound     Code = "asset-not-found"
	CodeContractNotFound  Code = "contract-not-found"
	CodeInvalidReference  Code = "invalid-reference"
	CodeInvalidIdentifier Code = "invalid-identifier"
	CodeNotOwned          Code = "not-owned"

	// Upload / storage
	CodeFileTooLarge    Code = "file-too-large"
	CodeInvalidType     Code = "invalid-type"
	CodeUploadFailed    Code = "upload-failed"
	CodeQuotaExceeded   Code = "quota-exceeded"
	CodeInvalidMetadata Code = "invalid-metadata"

	// Backend-specific
	CodeInsufficientBalance Code = "insufficient-balance"
	CodeFeeEstimationFailed Code = "fee-estimation-failed"
	CodeOperationFailed     Code = "operation-failed"
	CodeBlockNotFound       Code = "block-not-found"
	CodeChainNotSupported   Code = "chain-not-supported"

	// Verification
	CodeVerificationFailed          Code = "verification-failed"
	CodeOwnershipVerificationFailed Code = "ownership-verification-failed"
	CodeAccessDenied                Code = "access-denied"
	CodeRequirementNotMet           Code = "requirement-not-met"

	// Search
	CodeSearchFailed    Code = "search-failed"
	CodeInvalidCriteria Code = "invalid-criteria"
	CodeSearchTimeout   Code = "search-timeout"
	CodeTooManyResults  Code = "too-many-results"

	// Configuration
	CodeInvalidConfiguration Code = "invalid-configuration"
	CodeMissingParameter     Code = "missing-parameter"
	CodeInvalidParameter     Code = "invalid-parameter"

	// Internal
	CodeInternalError      Code = "internal-error"
	CodeNotImplemented     Code = "not-implemented"
	CodeFeatureUnavailable Code = "feature-unavailable"

	// Cache
	CodeCacheError   Code = "cache-error"
	CodeCacheMiss    Code = "cache-miss"
	CodeCacheExpired Code = "cache-expired"
)

// Severity buckets failures by operational impact.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityOf is the fixed code-to-severity table. Codes absent from the map
// are medium.
var severityOf = map[Code]Severity{
	CodeInternalError:      SeverityCritical,
	CodeInvalidCredential:  SeverityCritical,
	CodeServiceUnavailable: SeverityCritical,

	CodeUploadFailed:    SeverityHigh,
	CodeOperationFailed: SeverityHigh,
	CodeAccessDenied:    SeverityHigh,

	CodeCacheMiss:     SeverityLow,
	CodeAssetNotFound: SeverityLow,
	CodeRateLimited:   SeverityLow,
}

// SeverityFor returns the fixed severity for a code.
func SeverityFor(code Code) Severity {
	if s, ok := severityOf[code]; ok {
		return s
	}
	return SeverityMedium
}

// retryableByDefault lists codes whose failures are worth re-attempting.
var retryableByDefault = map[Code]bool{
	CodeNetworkError:        true,
	CodeTimeout:             true,
	CodeServiceUnavailable:  true,
	CodeRateLimited:         true,
	CodeFeeEstimationFailed: true,
	CodeSearchTimeout:       true,
	CodeCacheError:          true,
}

// neverRetryable lists codes that stay non-retryable regardless of any
// caller override.
var neverRetryable = map[Code]bool{
	CodeInvalidCredential: true,
	CodeAccessDenied:      true,
	CodeInvalidReference:  true,
	CodeInvalidIdentifier: true,
	CodeFileTooLarge:      true,
	CodeInvalidType:       true,
	CodeInvalidMetadata:   true,
}

// RetryableFor resolves the retryability of a code, honoring a caller
// override except for codes that are never retryable.
func RetryableFor(code Code, override *bool) bool {
	if neverRetryable[code] {
		return false
	}
	if override != nil {
		return *override
	}
	return retryableByDefault[code]
}

// suggestionOf maps codes to a short action string suitable for display.
var suggestionOf = map[Code]string{
	CodeNetworkError:        "check your network connection and try again",
	CodeTimeout:             "the backend took too long to respond; try again",
	CodeRateLimited:         "too many requests; wait a moment before retrying",
	CodeServiceUnavailable:  "the backend is temporarily unavailable; try again later",
	CodeInvalidCredential:   "reconnect your wallet or refresh your session",
	CodeWalletNotConnected:  "connect a wallet before performing this action",
	CodeAssetNotFound:       "verify the asset identifier and chain",
	CodeContractNotFound:    "verify the contract address and chain",
	CodeInvalidIdentifier:   "the identifier is malformed for this chain",
	CodeNotOwned:            "the address does not own this asset",
	CodeInsufficientBalance: "the account balance is too low for this operation",
	CodeAccessDenied:        "this account does not meet the access requirements",
	CodeInvalidCriteria:     "adjust the search filters and retry",
	CodeSearchTimeout:       "narrow the search or retry with fewer chains",
	CodeChainNotSupported:   "this chain is not configured",
	CodeInternalError:       "an unexpected error occurred; contact support if it persists",
}

// SuggestionFor returns the display suggestion for a code.
func SuggestionFor(code Code) string {
	if s, ok := suggestionOf[code]; ok {
		return s
	}
	return "retry the operation or contact support"
}
