package reporters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSReporterReportSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	rep := &sqsReporter{
		id:       "queue",
		typ:      TypeSQS,
		queueURL: "https://example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	err := rep.Report(context.Background(), Event{Method: "POST", URL: "/accounts", StatusCode: 503})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["status_code"]
	if !ok || aws.ToString(attr.StringValue) != "503" {
		t.Fatalf("status_code attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "Number" {
		t.Fatalf("DataType should be Number, got %#v", attr.DataType)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"url":"/accounts"`) {
		t.Fatalf("MessageBody missing url: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSReporterReportError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("boom")}
	rep := &sqsReporter{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	if err := rep.Report(context.Background(), Event{Method: "GET"}); err == nil {
		t.Fatalf("expected error from Report")
	}
}
