// Package notify publishes ingestion events to Amazon EventBridge.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// DefaultSource is the event source used when none is configured.
const DefaultSource = "accredit.ingest"

// DetailTypeIngestionCompleted is the detail-type of the completion event.
const DetailTypeIngestionCompleted = "IngestionCompleted"

// EventBridgeAPI is the subset of the EventBridge client used by Publisher.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, input *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// IngestionCompleted is the event detail published after each ingestion.
type IngestionCompleted struct {
	BatchID     string             `json:"batchId"`
	Rows        int                `json:"rows"`
	Complete    int                `json:"complete"`
	Compensated int                `json:"compensated"`
	Success     bool               `json:"success"`
	Policy      types.IngestPolicy `json:"policy"`
	FinishedAt  time.Time          `json:"finishedAt"`
}

// Publisher sends ingestion events to one event bus.
type Publisher struct {
	client  EventBridgeAPI
	busName string
	source  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClient sets a custom EventBridge client (useful for testing).
func WithClient(c EventBridgeAPI) Option {
	return func(p *Publisher) { p.client = c }
}

// WithSource overrides the event source.
func WithSource(source string) Option {
	return func(p *Publisher) {
		if source != "" {
			p.source = source
		}
	}
}

// New creates a Publisher for busName.
func New(ctx context.Context, busName string, opts ...Option) (*Publisher, error) {
	if busName == "" {
		return nil, fmt.Errorf("event bus name required")
	}
	p := &Publisher{busName: busName, source: DefaultSource}
	for _, o := range opts {
		o(p)
	}
	if p.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		p.client = eventbridge.NewFromConfig(cfg)
	}
	return p, nil
}

// IngestionCompleted publishes a summary of report.
func (p *Publisher) IngestionCompleted(ctx context.Context, report types.IngestReport) error {
	detail := IngestionCompleted{
		BatchID:    report.BatchID,
		Rows:       len(report.Rows),
		Complete:   report.CompleteRows(),
		Success:    report.Success,
		Policy:     report.Policy,
		FinishedAt: report.FinishedAt,
	}
	for _, r := range report.Rows {
		if r.Compensated {
			detail.Compensated++
		}
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(DetailTypeIngestionCompleted),
			Detail:       aws.String(string(data)),
			Time:         aws.Time(report.FinishedAt),
		}},
	})
	if err != nil {
		return fmt.Errorf("publishing to EventBridge: %w", err)
	}
	if out.FailedEntryCount > 0 && len(out.Entries) > 0 {
		e := out.Entries[0]
		return fmt.Errorf("event rejected: %s: %s", aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
	}
	return nil
}
