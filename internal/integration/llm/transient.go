package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/sashabaranov/go-openai"
)

// IsTransient reports whether a model call failure is worth another attempt:
// network failures, timeouts, throttling and 5xx responses.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var (
		throttling   *types.ThrottlingException
		notReady     *types.ModelNotReadyException
		modelTimeout *types.ModelTimeoutException
		internal     *types.InternalServerException
	)
	if errors.As(err, &throttling) || errors.As(err, &notReady) ||
		errors.As(err, &modelTimeout) || errors.As(err, &internal) {
		return true
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return retryableStatus(respErr.HTTPStatusCode())
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr net.Error
	return errors.As(err, &opErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
