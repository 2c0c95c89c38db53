// listing Lambda serves reconstructed observations behind API Gateway.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/accredit/internal/lambda"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
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

// handleRequest answers GET /observations and GET /observations/incomplete.
func handleRequest(ctx context.Context, d *intlambda.Deps, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodGet {
		return respond(http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}

	if strings.HasSuffix(strings.TrimRight(req.Path, "/"), "/incomplete") {
		partial, err := d.Flattener.Incomplete(ctx)
		if err != nil {
			d.Logger.Error("failed to list incomplete observations", "error", err)
			return respond(http.StatusInternalServerError, map[string]string{"error": "failed to list incomplete observations"})
		}
		return respond(http.StatusOK, map[string]any{"results": partial})
	}

	q := req.QueryStringParameters
	params := reconstruct.ParseParams(q["page"], q["page_size"], q["sort_by"], q["sort_order"])
	page, err := d.Flattener.List(ctx, params)
	if err != nil {
		d.Logger.Error("failed to list observations", "error", err)
		return respond(http.StatusInternalServerError, map[string]string{"error": "failed to list observations"})
	}
	return respond(http.StatusOK, page)
}

func respond(status int, v any) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func main() {
	awslambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		d, err := getDeps()
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return handleRequest(ctx, d, req)
	})
}
