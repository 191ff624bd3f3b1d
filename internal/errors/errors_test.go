package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FeatureError
		want string
	}{
		{
			name: "configuration without column",
			err:  NewConfigurationError("max_features must be >= 0, got %d", -1),
			want: "[configuration] max_features must be >= 0, got -1",
		},
		{
			name: "data format with column and cause",
			err:  NewDataFormatError("timestamp", io.ErrUnexpectedEOF, "cannot parse %q", "yesterday"),
			want: `[data_format] column "timestamp": cannot parse "yesterday": unexpected EOF`,
		},
		{
			name: "insufficient data",
			err:  NewInsufficientDataError("no rows left after cleaning"),
			want: "[insufficient_data] no rows left after cleaning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFeatureError_NilReceiver(t *testing.T) {
	var fe *FeatureError
	assert.Equal(t, "unknown feature error", fe.Error())
	assert.Nil(t, fe.Unwrap())
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	base := NewDataFormatError("ts", nil, "numeric timestamps are not supported")
	wrapped := fmt.Errorf("time encoding: %w", base)
	double := fmt.Errorf("pipeline: %w", wrapped)

	assert.True(t, IsDataFormat(double))
	assert.False(t, IsConfiguration(double))
	assert.False(t, IsInsufficientData(double))

	var fe *FeatureError
	if assert.True(t, stderrors.As(double, &fe)) {
		assert.Equal(t, "ts", fe.Column)
	}

	typ, ok := TypeOf(double)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeDataFormat, typ)

	_, ok = TypeOf(io.EOF)
	assert.False(t, ok)
}

func TestFeatureError_UnwrapCause(t *testing.T) {
	err := NewDataFormatError("pressure", io.ErrUnexpectedEOF, "bad value")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFeatureError_WithContext(t *testing.T) {
	err := NewConfigurationError("collision").
		WithContext("feature", "temperature_lag_300s").
		WithContext("stage", "lag")

	assert.Equal(t, "temperature_lag_300s", err.Context["feature"])
	assert.Equal(t, "lag", err.Context["stage"])
}
