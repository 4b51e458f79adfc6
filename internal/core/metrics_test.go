package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/types"
)

type mockCloudWatchClient struct {
	mu        sync.Mutex
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func dimensionValue(dims []cwtypes.Dimension, name string) string {
	for _, d := range dims {
		if d.Name != nil && *d.Name == name && d.Value != nil {
			return *d.Value
		}
	}
	return ""
}

func TestCloudWatchMetrics_RecordRequest(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := NewCloudWatchMetrics(cw, "", discardLogger())

	m.RecordRequest("GET", "/checkout", "302", 150*time.Millisecond)

	require.Len(t, cw.calls, 1)
	in := cw.calls[0]
	assert.Equal(t, types.MetricNamespace, *in.Namespace)
	require.Len(t, in.MetricData, 2)

	latency := in.MetricData[0]
	assert.Equal(t, types.MetricAPILatency, *latency.MetricName)
	assert.Equal(t, 150.0, *latency.Value)
	assert.Equal(t, cwtypes.StandardUnitMilliseconds, latency.Unit)
	assert.Equal(t, "/checkout", dimensionValue(latency.Dimensions, types.DimEndpoint))
	assert.Equal(t, "GET", dimensionValue(latency.Dimensions, types.DimMethod))
	assert.Equal(t, "302", dimensionValue(latency.Dimensions, types.DimStatus))

	count := in.MetricData[1]
	assert.Equal(t, types.MetricAPIRequestCount, *count.MetricName)
	assert.Equal(t, 1.0, *count.Value)
}

func TestCloudWatchMetrics_ProviderFailureAndRejection(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := NewCloudWatchMetrics(cw, "StorefrontTest", discardLogger())

	m.RecordProviderFailure(context.Background(), "polar", "create_checkout")
	m.RecordWebhookRejected(context.Background())

	require.Len(t, cw.calls, 2)
	assert.Equal(t, "StorefrontTest", *cw.calls[0].Namespace)

	failure := cw.calls[0].MetricData[0]
	assert.Equal(t, types.MetricExternalAPIFailure, *failure.MetricName)
	assert.Equal(t, "polar", dimensionValue(failure.Dimensions, types.DimProvider))
	assert.Equal(t, "create_checkout", dimensionValue(failure.Dimensions, types.DimOperation))

	assert.Equal(t, types.MetricWebhookRejected, *cw.calls[1].MetricData[0].MetricName)
}

func TestCloudWatchMetrics_ErrorIsSwallowed(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	m := NewCloudWatchMetrics(cw, "", discardLogger())

	assert.NotPanics(t, func() { m.RecordWebhookRejected(context.Background()) })
	assert.Len(t, cw.calls, 1)
}
