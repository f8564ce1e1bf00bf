package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsPublisher writes business metrics to CloudWatch under one namespace.
type MetricsPublisher struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

func NewMetricsPublisher(client CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{CloudWatch: client, Namespace: namespace, nowFunc: time.Now}
}

// Metric is a single datapoint. Dimensions are optional.
type Metric struct {
	Name       string
	Value      float64
	Unit       cwtypes.StandardUnit
	Dimensions map[string]string
}

// Put sends all datapoints in a single PutMetricData call.
func (m *MetricsPublisher) Put(ctx context.Context, metrics ...Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	now := m.nowFunc()
	data := make([]cwtypes.MetricDatum, 0, len(metrics))
	for _, mt := range metrics {
		unit := mt.Unit
		if unit == "" {
			unit = cwtypes.StandardUnitCount
		}
		d := cwtypes.MetricDatum{
			MetricName: awsString(mt.Name),
			Value:      &mt.Value,
			Unit:       unit,
			Timestamp:  &now,
		}
		for k, v := range mt.Dimensions {
			d.Dimensions = append(d.Dimensions, cwtypes.Dimension{Name: awsString(k), Value: awsString(v)})
		}
		data = append(data, d)
	}

	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  awsString(m.Namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
