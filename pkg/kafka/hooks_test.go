package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	applogger "StockPulse/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookChain_OrderAndErrors(t *testing.T) {
	var order []string
	mk := func(name string, fail bool) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				if fail {
					return ctx, km, data, errors.New(name)
				}
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
			Err: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "err:"+name)
			},
		}
	}

	chain := NewHookChain(mk("a", false), nil, mk("b", false))
	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "xab", string(data))
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	order = nil
	chain = NewHookChain(mk("a", true), mk("b", false))
	_, _, _, err = chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"before:a", "err:a", "err:b"}, order)
}

func TestHookChain_RecoversPanics(t *testing.T) {
	panicky := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		},
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("bad after") },
	}
	chain := NewHookChain(panicky)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)

	assert.NotPanics(t, func() {
		chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	})
}

func TestTracingHook_SetsContext(t *testing.T) {
	hook := NewTracingHook(applogger.Nop(), time.Second)
	km := kafka.Message{Headers: []kafka.Header{{Key: "event_id", Value: []byte("evt-1")}}}

	ctx, _, _, err := hook.BeforeHandle(context.Background(), "bars", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", ctx.Value(CtxTraceID))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)

	km.Headers = append(km.Headers, kafka.Header{Key: "trace_id", Value: []byte("tr-9")})
	assert.Equal(t, "tr-9", ExtractTraceID(km))
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}
