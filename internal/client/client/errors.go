package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
)

// ErrLocalDataNotAvailable is returned when the offline cache cannot be opened.
var ErrLocalDataNotAvailable = errors.New("local data unavailable")

// mapError converts a transport outcome to the shared sentinels: 404 is
// NotFound, every other failure (network, timeout, non-200) is
// RemoteUnavailable.
func mapError(resp *http.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	}
}
