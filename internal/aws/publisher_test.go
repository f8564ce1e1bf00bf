package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestPublisher_Send(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/orders")

	err := p.Send(context.Background(), `{"order_id":1}`, map[string]string{"event_type": "order.created", "empty": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.QueueUrl != "https://sqs.local/orders" || *in.MessageBody != `{"order_id":1}` {
		t.Fatalf("unexpected input: %+v", in)
	}
	if len(in.MessageAttributes) != 1 {
		t.Fatalf("empty attributes should be dropped, got %d", len(in.MessageAttributes))
	}
	if v := in.MessageAttributes["event_type"].StringValue; v == nil || *v != "order.created" {
		t.Fatalf("event_type attribute missing")
	}
}

func TestPublisher_SendError(t *testing.T) {
	p := NewPublisher(&mockSQS{err: errors.New("boom")}, "q")
	if err := p.Send(context.Background(), "{}", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestMetricsPublisher_Put(t *testing.T) {
	mock := &mockCloudWatch{}
	m := NewMetricsPublisher(mock, "Storefront")

	if err := m.Put(context.Background()); err != nil || len(mock.inputs) != 0 {
		t.Fatalf("empty put should be a no-op")
	}

	err := m.Put(context.Background(),
		Metric{Name: "OrdersCreated", Value: 1},
		Metric{Name: "OrderValue", Value: 42.5, Dimensions: map[string]string{"payment": "cash"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := mock.inputs[0]
	if *in.Namespace != "Storefront" || len(in.MetricData) != 2 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if *in.MetricData[1].Value != 42.5 || len(in.MetricData[1].Dimensions) != 1 {
		t.Fatalf("unexpected datum: %+v", in.MetricData[1])
	}
}
