package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/AngelCh415/PPC_GO/internal/utils"
)

// GetJSONWithRetry decodes url into dst, retrying transport errors and 5xx
// responses with the given backoff. 4xx responses fail immediately.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, url string, dst any) error {
	var permanent error
	err := b.Do(ctx, func(int) error {
		err := getJSON(ctx, c, url, dst)
		var se *StatusError
		if errors.As(err, &se) && se.Code < 500 {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		err = permanent
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}
