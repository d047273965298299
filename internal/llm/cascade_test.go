package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

type fakeCaller struct {
	name   string
	fields entity.ExtractedFields
	err    error
	calls  int
}

func (f *fakeCaller) Provider() string  { return "fake" }
func (f *fakeCaller) ModelName() string { return f.name }

func (f *fakeCaller) Extract(_ context.Context, _ ExtractRequest) (entity.ExtractedFields, Usage, []byte, error) {
	f.calls++
	if f.err != nil {
		return entity.ExtractedFields{}, Usage{}, nil, f.err
	}
	return f.fields, Usage{TotalTokens: 100}, []byte("{}"), nil
}

func TestCascade_FirstSuccessWins(t *testing.T) {
	first := &fakeCaller{name: "cheap", fields: entity.ExtractedFields{IssuerRUC: "155-1"}}
	second := &fakeCaller{name: "expensive"}

	c := NewCascade([]ModelCaller{first, second}, nil)
	res, err := c.Extract(context.Background(), ExtractRequest{})

	require.NoError(t, err)
	assert.Equal(t, "cheap", res.Model)
	assert.Equal(t, "155-1", res.Fields.IssuerRUC)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "later models must never run once one succeeded")
}

func TestCascade_FallsThroughOnFailure(t *testing.T) {
	first := &fakeCaller{name: "cheap", err: errors.New("timeout")}
	second := &fakeCaller{name: "backup", fields: entity.ExtractedFields{Total: 9.99}}

	c := NewCascade([]ModelCaller{first, second}, nil)
	res, err := c.Extract(context.Background(), ExtractRequest{})

	require.NoError(t, err)
	assert.Equal(t, "backup", res.Model)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestCascade_AllFailAggregates(t *testing.T) {
	a := &fakeCaller{name: "m1", err: errors.New("network down")}
	b := &fakeCaller{name: "m2", err: errors.New("bad json")}
	d := &fakeCaller{name: "m3", err: errors.New("503")}

	c := NewCascade([]ModelCaller{a, b, d}, nil)
	_, err := c.Extract(context.Background(), ExtractRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderExhausted)
	assert.Contains(t, err.Error(), "m1: network down")
	assert.Contains(t, err.Error(), "m3: 503")
}
