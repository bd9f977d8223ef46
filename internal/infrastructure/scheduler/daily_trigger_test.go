package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	inventoryapp "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDailySchedule(t *testing.T) {
	tests := []struct {
		name         string
		expr         string
		expectedHour int
		expectedMin  int
		wantErr      bool
	}{
		{name: "Quarter past midnight", expr: "15 0 * * *", expectedHour: 0, expectedMin: 15},
		{name: "3:30am", expr: "30 3 * * *", expectedHour: 3, expectedMin: 30},
		{name: "11pm", expr: "0 23 * * *", expectedHour: 23, expectedMin: 0},
		{name: "Extra whitespace", expr: "  15   4   *   *   *  ", expectedHour: 4, expectedMin: 15},
		{name: "Empty", expr: "", wantErr: true},
		{name: "Too few fields", expr: "0 2", wantErr: true},
		{name: "Minute out of range", expr: "60 2 * * *", wantErr: true},
		{name: "Hour out of range", expr: "0 24 * * *", wantErr: true},
		{name: "Wildcard hour", expr: "0 * * * *", wantErr: true},
		{name: "Weekdays only", expr: "0 2 * * 1-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseDailySchedule(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

type recordedRun struct {
	job string
	day string
}

func TestDailyTrigger_Tick(t *testing.T) {
	loc := time.FixedZone("store", 2*60*60)
	now := time.Date(2026, 10, 18, 0, 15, 20, 0, loc)
	var runs []recordedRun
	job := func(name string) Job {
		return Job{Name: name, Run: func(_ context.Context, day time.Time) error {
			runs = append(runs, recordedRun{job: name, day: day.Format(time.DateOnly)})
			return nil
		}}
	}

	cfg := DefaultDailyTriggerConfig()
	cfg.Location = loc
	d := NewDailyTrigger(cfg, func() time.Time { return now }, zap.NewNop(), job("a"), job("b"))

	require.True(t, d.Tick(context.Background()))
	assert.Equal(t, []recordedRun{{"a", "2026-10-17"}, {"b", "2026-10-17"}}, runs)

	// same minute again does nothing
	assert.False(t, d.Tick(context.Background()))
	assert.Len(t, runs, 2)

	now = now.Add(time.Minute)
	assert.False(t, d.Tick(context.Background()))

	now = now.Add(24*time.Hour - time.Minute)
	require.True(t, d.Tick(context.Background()))
	assert.Equal(t, recordedRun{"a", "2026-10-18"}, runs[2])
}

func TestDailyTrigger_UsesLocation(t *testing.T) {
	loc := time.FixedZone("store", -5*60*60)
	cfg := DefaultDailyTriggerConfig()
	cfg.Location = loc
	ran := false
	job := Job{Name: "x", Run: func(context.Context, time.Time) error { ran = true; return nil }}

	// 00:15 UTC is 19:15 the day before in the store
	utc := time.Date(2026, 10, 18, 0, 15, 0, 0, time.UTC)
	d := NewDailyTrigger(cfg, func() time.Time { return utc }, nil, job)
	assert.False(t, d.Tick(context.Background()))
	assert.False(t, ran)

	d.clock = func() time.Time { return utc.Add(5 * time.Hour) }
	assert.True(t, d.Tick(context.Background()))
	assert.True(t, ran)
}

func TestDailyTrigger_FailingJobDoesNotStopOthers(t *testing.T) {
	var ran []string
	d := NewDailyTrigger(DefaultDailyTriggerConfig(), nil, nil,
		Job{Name: "broken", Run: func(context.Context, time.Time) error {
			ran = append(ran, "broken")
			return errors.New("boom")
		}},
		Job{Name: "next", Run: func(context.Context, time.Time) error {
			ran = append(ran, "next")
			return nil
		}},
	)
	d.RunNow(context.Background(), time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"broken", "next"}, ran)
}

func TestDailyTrigger_JobTimeout(t *testing.T) {
	cfg := DefaultDailyTriggerConfig()
	cfg.JobTimeout = 10 * time.Millisecond
	var deadline bool
	d := NewDailyTrigger(cfg, nil, nil, Job{Name: "slow", Run: func(ctx context.Context, _ time.Time) error {
		_, deadline = ctx.Deadline()
		return nil
	}})
	d.RunNow(context.Background(), time.Now())
	assert.True(t, deadline)
}

func TestDailyTrigger_StartStop(t *testing.T) {
	cfg := DefaultDailyTriggerConfig()
	cfg.CheckInterval = 5 * time.Millisecond
	d := NewDailyTrigger(cfg, nil, nil)

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	require.NoError(t, d.Stop(ctx))
}

type fakeReconciler struct {
	report *inventoryapp.ReconciliationReport
	err    error
	repair bool
}

func (f *fakeReconciler) RunExclusive(_ context.Context, repair bool) (*inventoryapp.ReconciliationReport, error) {
	f.repair = repair
	return f.report, f.err
}

func TestReconciliationJob(t *testing.T) {
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	r := &fakeReconciler{report: &inventoryapp.ReconciliationReport{Checked: 3}}
	require.NoError(t, ReconciliationJob(r, true, zap.NewNop()).Run(context.Background(), day))
	assert.True(t, r.repair)

	held := &fakeReconciler{}
	assert.NoError(t, ReconciliationJob(held, false, zap.NewNop()).Run(context.Background(), day))

	failing := &fakeReconciler{err: errors.New("db down")}
	assert.Error(t, ReconciliationJob(failing, false, zap.NewNop()).Run(context.Background(), day))
}

type fakeSnapshots struct {
	calls []string
	fail  string
}

func (f *fakeSnapshots) Snapshot(_ context.Context, date, method string) (*inventoryapp.ValuationReport, error) {
	f.calls = append(f.calls, date+" "+method)
	if method == f.fail {
		return nil, errors.New("unknown method")
	}
	return &inventoryapp.ValuationReport{}, nil
}

func TestSnapshotJob(t *testing.T) {
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	b := &fakeSnapshots{}
	require.NoError(t, SnapshotJob(b, []string{"FIFO", "AVERAGE"}).Run(context.Background(), day))
	assert.Equal(t, []string{"2026-10-17 FIFO", "2026-10-17 AVERAGE"}, b.calls)

	failing := &fakeSnapshots{fail: "LIFO"}
	err := SnapshotJob(failing, []string{"LIFO", "FIFO"}).Run(context.Background(), day)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-10-17 LIFO")
	assert.Len(t, failing.calls, 1)
}
