package serve

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// waitForServer polls the health endpoint until the server is ready or
// the timeout elapses.
func waitForServer(url string, timeout time.Duration) error {
	healthURL := url + "/health"

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		resp, err := http.Get(healthURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health endpoint answered %d", resp.StatusCode)
		}
		return nil
	}, policy)
}
