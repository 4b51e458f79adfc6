package config

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ SecretProvider = (*EnvVarProvider)(nil)
	_ SecretProvider = (*SSMProvider)(nil)
)

func TestEnvVarProvider_GetParametersBatch(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_TOKEN", "polar_oat_abc")

	p := NewEnvVarProvider()
	got, err := p.GetParametersBatch(context.Background(), []string{"STOREFRONT_TEST_TOKEN", "STOREFRONT_TEST_ABSENT"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"STOREFRONT_TEST_TOKEN": "polar_oat_abc"}, got)
}

func TestEnvVarProvider_CustomLookup(t *testing.T) {
	p := &EnvVarProvider{lookup: func(k string) (string, bool) {
		if k == "a" {
			return "1", true
		}
		return "", false
	}}

	got, err := p.GetParametersBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, got)
}

type fakeSSM struct {
	values map[string]string
	err    error
	calls  [][]string
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.calls = append(f.calls, append([]string(nil), in.Names...))
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range in.Names {
		if v, ok := f.values[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{Name: aws.String(name), Value: aws.String(v)})
		} else {
			out.InvalidParameters = append(out.InvalidParameters, name)
		}
	}
	return out, nil
}

func TestSSMProvider_GetParametersBatch(t *testing.T) {
	t.Run("empty keys skip the API", func(t *testing.T) {
		client := &fakeSSM{}
		p := newSSMProviderWithClient("us-east-1", client)

		got, err := p.GetParametersBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, client.calls)
	})

	t.Run("batches in groups of ten", func(t *testing.T) {
		values := make(map[string]string)
		var keys []string
		for i := range 23 {
			k := fmt.Sprintf("/dev/storefront/p%d", i)
			keys = append(keys, k)
			values[k] = fmt.Sprintf("v%d", i)
		}
		client := &fakeSSM{values: values}
		p := newSSMProviderWithClient("us-east-1", client)

		got, err := p.GetParametersBatch(context.Background(), keys)
		require.NoError(t, err)
		assert.Equal(t, values, got)
		require.Len(t, client.calls, 3)
		assert.Len(t, client.calls[0], 10)
		assert.Len(t, client.calls[2], 3)
	})

	t.Run("invalid parameters are omitted", func(t *testing.T) {
		client := &fakeSSM{values: map[string]string{"/a": "1"}}
		p := newSSMProviderWithClient("us-east-1", client)

		got, err := p.GetParametersBatch(context.Background(), []string{"/a", "/b"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"/a": "1"}, got)
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		boom := errors.New("throttled")
		p := newSSMProviderWithClient("us-east-1", &fakeSSM{err: boom})

		_, err := p.GetParametersBatch(context.Background(), []string{"/a"})
		require.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context stops before calling", func(t *testing.T) {
		client := &fakeSSM{}
		p := newSSMProviderWithClient("us-east-1", client)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.GetParametersBatch(ctx, []string{"/a"})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, client.calls)
	})
}

func TestNewSSMProvider_Options(t *testing.T) {
	p := NewSSMProvider("eu-west-1", WithSSMEndpoint("http://localhost:4566"))
	assert.Equal(t, "eu-west-1", p.region)
	assert.Equal(t, "http://localhost:4566", p.endpoint)
	assert.Nil(t, p.client)
}
