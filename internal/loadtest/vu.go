package loadtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// OutcomeSink receives every outcome a virtual user produces.
// Implementations must be safe for concurrent use and must not fail the caller.
type OutcomeSink interface {
	Record(outcome types.RequestOutcome)
}

type discardSink struct{}

func (discardSink) Record(types.RequestOutcome) {}

// Discard is an OutcomeSink that drops everything.
var Discard OutcomeSink = discardSink{}

// SleepFunc suspends the virtual user for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

// sleepContext is the default SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// VirtualUser runs one simulated client.
type VirtualUser struct {
	ID int

	client  Client
	tmpl    *RequestTemplate
	timeout time.Duration
	chaos   ChaosConfig
	rng     *rand.Rand
	sink    OutcomeSink
	sleep   SleepFunc
}

// NewVirtualUser creates a virtual user. A nil sink discards outcomes.
func NewVirtualUser(id int, client Client, tmpl *RequestTemplate, timeout time.Duration, chaos ChaosConfig, rng *rand.Rand, sink OutcomeSink) *VirtualUser {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if sink == nil {
		sink = Discard
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(id)))
	}
	return &VirtualUser{
		ID:      id,
		client:  client,
		tmpl:    tmpl,
		timeout: timeout,
		chaos:   chaos,
		rng:     rng,
		sink:    sink,
		sleep:   sleepContext,
	}
}

// Run issues requests back-to-back until deadline and returns the outcomes in send order.
// An iteration that is in flight when the deadline passes is still recorded.
// Cancelling ctx stops the loop at the next iteration boundary.
func (u *VirtualUser) Run(ctx context.Context, deadline time.Time) []types.RequestOutcome {
	outcomes := make([]types.RequestOutcome, 0, 64)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}

		outcome := u.iterate(ctx)
		outcomes = append(outcomes, outcome)
		u.sink.Record(outcome)
	}

	logger.Debug("virtual user finished", zap.Int("vu", u.ID), zap.Int("requests", len(outcomes)))
	return outcomes
}

// iterate performs one send/record cycle.
func (u *VirtualUser) iterate(ctx context.Context) types.RequestOutcome {
	start := time.Now()

	if u.chaos.trigger(u.rng) {
		u.sleep(ctx, u.chaos.delay(u.rng))
		return types.RequestOutcome{
			StatusCode: ChaosStatusCode,
			Latency:    time.Since(start).Seconds(),
			Error:      types.ChaosFailure,
			Timestamp:  time.Now().UTC(),
		}
	}

	status, err := u.send()
	outcome := types.RequestOutcome{
		StatusCode: status,
		Latency:    time.Since(start).Seconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err != nil {
		outcome.StatusCode = 0
		outcome.Error = u.describe(err)
		logger.Debug("request failed", zap.Int("vu", u.ID), zap.String("error", outcome.Error))
	}
	return outcome
}

// send performs the real HTTP request. Panics from the transport are converted to errors.
func (u *VirtualUser) send() (status int, err error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	defer func() {
		if r := recover(); r != nil {
			status = 0
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()

	u.tmpl.apply(req)
	if err := u.client.DoTimeout(req, resp, u.timeout); err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// describe turns a transport error into the string stored on the outcome.
func (u *VirtualUser) describe(err error) string {
	if errors.Is(err, fasthttp.ErrTimeout) {
		return fmt.Sprintf("request timed out after %s", u.timeout)
	}
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	return msg
}
