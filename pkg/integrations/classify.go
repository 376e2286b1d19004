package integrations

import (
	"errors"
	"net/http"

	"github.com/matzehuels/updatecheck/pkg/httputil"

	apperrors "github.com/matzehuels/updatecheck/pkg/errors"
)

// Classify maps a transport error for rawURL to the typed registry errors
// callers propagate. Errors that already carry a code pass through.
//
// Private sources (hosts with configured credentials) report auth failures,
// timeouts and unexpected statuses as PRIVATE_SOURCE_* errors. Everything
// else that failed after retries becomes REGISTRY_UNAVAILABLE.
func Classify(rawURL string, err error, private bool) error {
	if err == nil {
		return nil
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodeNotFound, err, "not found at %s", apperrors.SanitizeHost(rawURL))
	}
	if errors.Is(err, ErrUnauthorized) {
		return apperrors.PrivateSourceAuthFailure(rawURL)
	}
	if private && (errors.Is(err, ErrTimeout) || httputil.IsTimeout(err)) {
		return apperrors.PrivateSourceTimedOut(rawURL)
	}
	var status *StatusError
	if private && errors.As(err, &status) && status.Code != http.StatusTooManyRequests {
		return apperrors.PrivateSourceBadResponse(rawURL, status.Code)
	}
	return apperrors.RegistryUnavailable(rawURL, err)
}
