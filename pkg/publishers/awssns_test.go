package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func sampleEvent() Event {
	return NewEvent("rscf", "РНФ", domain.ModeIncremental, []domain.NewsRecord{
		{Title: "Новый грант", Link: "/news/1/", Source: "РНФ"},
		{Title: "Итоги конкурса", Link: "/news/2/", Source: "РНФ"},
	})
}

func TestAWSSNSSenderSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	if err := sender.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source_id"]
	if !ok || aws.ToString(attr.StringValue) != "rscf" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("source_id attribute missing or wrong: %#v", attr)
	}
	if mode := client.input.MessageAttributes["mode"]; aws.ToString(mode.StringValue) != "incremental" {
		t.Fatalf("mode attribute wrong: %#v", mode)
	}

	var evt Event
	if err := json.Unmarshal([]byte(aws.ToString(client.input.Message)), &evt); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if len(evt.Records) != 2 || evt.Records[1].Link != "/news/2/" {
		t.Fatalf("expected whole batch in one message, got %#v", evt.Records)
	}
}

func TestAWSSNSSenderSendError(t *testing.T) {
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      logger.NopLogger{},
	}

	if err := sender.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Send")
	}
}
