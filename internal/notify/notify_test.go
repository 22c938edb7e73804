package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	hashes []string
}

func (r *recordingBroadcaster) Broadcast(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes = append(r.hashes, hash)
}

func TestMultiDeliversToAll(t *testing.T) {
	var got []string
	a := Func(func(_ context.Context, ev StageEvent) { got = append(got, "a:"+ev.Stage) })
	b := Func(func(_ context.Context, ev StageEvent) { got = append(got, "b:"+ev.Stage) })

	Multi{a, nil, b, Nop{}}.StageCompleted(context.Background(), StageEvent{Stage: "style"})
	require.Equal(t, []string{"a:style", "b:style"}, got)
}

func TestLiveReloadOnlyForSuccessfulWrites(t *testing.T) {
	rb := &recordingBroadcaster{}
	n := LiveReload(rb)
	ctx := context.Background()

	n.StageCompleted(ctx, StageEvent{Stage: "style", Written: []string{"build/assets/style/style.min.css"}, Hash: "h1"})
	n.StageCompleted(ctx, StageEvent{Stage: "js", Hash: "h2"})
	n.StageCompleted(ctx, StageEvent{Stage: "img", Written: []string{"x"}, Hash: "h3", Error: "disk full"})

	require.Equal(t, []string{"h1"}, rb.hashes)
}

func TestMetricsNotifier(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	n := Metrics(rec)

	n.StageCompleted(context.Background(), StageEvent{Stage: "img", Warnings: 2, Written: []string{"a", "b"}, Duration: time.Second})
	n.StageCompleted(context.Background(), StageEvent{Stage: "img", Error: "boom"})

	files, err := testutil.GatherAndCount(reg, "assetbuilder_stage_files_written_total")
	require.NoError(t, err)
	require.Equal(t, 1, files)
	results, err := testutil.GatherAndCount(reg, "assetbuilder_stage_results_total")
	require.NoError(t, err)
	require.Equal(t, 2, results)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestNATSPublisherEncodesEvent(t *testing.T) {
	fp := &fakePublisher{}
	p := &NATSPublisher{pub: fp, subject: "assetbuilder.stage.completed"}

	p.StageCompleted(context.Background(), StageEvent{Stage: "html", BuildID: "b-1", Written: []string{"build/index.html"}})

	require.Equal(t, "assetbuilder.stage.completed", fp.subject)
	var ev StageEvent
	require.NoError(t, json.Unmarshal(fp.data, &ev))
	require.Equal(t, "html", ev.Stage)
	require.Equal(t, "b-1", ev.BuildID)

	fp.err = stderrors.New("no responders")
	p.StageCompleted(context.Background(), StageEvent{Stage: "js"})
	p.Close()
}
