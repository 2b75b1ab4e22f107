// File: internal/postfilter/predict.go
package postfilter

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/intellisa/iacsec/api/schemas"
)

// ErrScoringFailed wraps failures inside the scoring pool.
var ErrScoringFailed = errors.New("post-filter scoring failed")

// Predict scores a batch of detections against the handle. Each detection
// depends only on its own fields, the scan root, and the shared immutable
// handle, so the work runs on a bounded worker pool. Results are written by
// index, never appended, so output order always matches input order.
func Predict(ctx context.Context, detections []schemas.Detection, scanRoot string, handle ModelHandle, threshold float64, concurrency int) ([]schemas.Prediction, error) {
	if handle.Name == "" && handle.Path == "" {
		return nil, ErrNoModelLoaded
	}
	if concurrency < 1 {
		concurrency = 1
	}

	predictions := make([]schemas.Prediction, len(detections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range detections {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			predictions[i] = Classify(Score(detections[i], scanRoot, handle), threshold)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}
	return predictions, nil
}
