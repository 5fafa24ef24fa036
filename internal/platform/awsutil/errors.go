package awsutil

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"propverify/pkg/platform/sentinel"
)

// MapError classifies an SDK error by its API error code so services see the
// same sentinel facts they get from the Postgres stores.
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), sentinel.ErrNotFound)
	case "ConditionalCheckFailedException", "TransactionCanceledException", "TransactionConflictException":
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), sentinel.ErrConflict)
	case "AccessDenied", "AccessDeniedException", "Forbidden":
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), sentinel.ErrPermissionDenied)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "UnrecognizedClientException",
		"InvalidSignatureException", "ExpiredToken", "ExpiredTokenException", "MissingAuthenticationToken":
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), sentinel.ErrUnauthenticated)
	default:
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorMessage(), sentinel.ErrUnavailable)
	}
}
