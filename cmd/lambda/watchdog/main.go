// watchdog Lambda runs on an EventBridge schedule and alerts on observations
// that stayed incomplete past WATCHDOG_GRACE. Each invocation alerts every
// stale observation again; the schedule sets the repeat rate.
package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/accredit/internal/lambda"
	"github.com/dwsmith1983/accredit/internal/watchdog"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

// Result summarizes one scan.
type Result struct {
	Stale []string `json:"stale"`
}

func handleScheduled(ctx context.Context, d *intlambda.Deps, _ events.CloudWatchEvent) (Result, error) {
	stale := watchdog.CheckIncomplete(ctx, watchdog.CheckOptions{
		Source:  d.Flattener,
		AlertFn: d.Alerts.Dispatch,
		Logger:  d.Logger,
		Grace:   d.Grace,
	})
	res := Result{Stale: make([]string, 0, len(stale))}
	for _, s := range stale {
		res.Stale = append(res.Stale, s.ID)
	}
	d.Logger.Info("watchdog scan finished", "stale", len(res.Stale))
	return res, nil
}

func main() {
	awslambda.Start(func(ctx context.Context, event events.CloudWatchEvent) (Result, error) {
		d, err := getDeps()
		if err != nil {
			return Result{}, err
		}
		return handleScheduled(ctx, d, event)
	})
}
