package etl_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Ashfaaq98/intel-etl/internal/bus"
	"github.com/Ashfaaq98/intel-etl/internal/etl"
	"github.com/Ashfaaq98/intel-etl/internal/fetch"
	"github.com/Ashfaaq98/intel-etl/internal/netcalc"
	"github.com/Ashfaaq98/intel-etl/internal/otx"
	"github.com/Ashfaaq98/intel-etl/internal/store"
)

// recordBus captures published ingest notifications for assertions.
type recordBus struct {
	messages []bus.IngestMessage
}

func (rb *recordBus) PublishIngest(ctx context.Context, msg bus.IngestMessage) error {
	rb.messages = append(rb.messages, msg)
	return nil
}

func (rb *recordBus) HealthCheck(ctx context.Context) error { return nil }

func (rb *recordBus) Close() error { return nil }

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestFetcher() *fetch.Client {
	client := fetch.NewClient(fetch.DefaultPolicy(), testLogger())
	client.Sleep = func(time.Duration) {}
	return client
}

func decodeBody(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func TestRunEndToEndOTX(t *testing.T) {
	const body = `{"pulse_info":{"pulses":[{},{}]}}`
	mux := http.NewServeMux()
	mux.HandleFunc("/indicators/IPv4/8.8.8.8/general", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	mem := store.NewMemory()
	rb := &recordBus{}
	runner := etl.NewRunner(mem, rb, testLogger(), "run-1")

	client := otx.NewClient(newTestFetcher(), server.URL, "test-key")
	stats := runner.Run(context.Background(), []etl.Job{
		otx.NewJob(client, "8.8.8.8", "ip_indicators", "run-1"),
	})

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 0, stats.Failed)

	docs := mem.Documents("ip_indicators")
	require.Len(t, docs, 1)

	doc, ok := docs[0].(otx.Document)
	require.True(t, ok)
	assert.Equal(t, "otx", doc.Source)
	assert.Equal(t, "8.8.8.8", doc.IP)
	assert.Equal(t, 2, doc.PulseCount)
	assert.True(t, doc.IsMalicious)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, bson.M(decodeBody(t, body)), doc.Raw)

	require.Len(t, rb.messages, 1)
	assert.Equal(t, "run-1", rb.messages[0].RunID)
	assert.Equal(t, "otx", rb.messages[0].Source)
	assert.Equal(t, "8.8.8.8", rb.messages[0].Input)
	assert.Equal(t, "ip_indicators", rb.messages[0].Collection)
	assert.Equal(t, "mem-1", rb.messages[0].DocumentID)
}

func TestRunContinuesAfterFetchError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/indicators/IPv4/10.0.0.1/general", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/indicators/IPv4/8.8.8.8/general", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"pulse_info":{"pulses":[]}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	mem := store.NewMemory()
	runner := etl.NewRunner(mem, nil, testLogger(), "run-2")

	client := otx.NewClient(newTestFetcher(), server.URL, "test-key")
	stats := runner.Run(context.Background(), []etl.Job{
		otx.NewJob(client, "10.0.0.1", "ip_indicators", "run-2"),
		otx.NewJob(client, "8.8.8.8", "ip_indicators", "run-2"),
	})

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, stats.AllFailed())

	// The failed input never reaches the loader.
	docs := mem.Documents("ip_indicators")
	require.Len(t, docs, 1)
	doc := docs[0].(otx.Document)
	assert.Equal(t, "8.8.8.8", doc.IP)
	assert.False(t, doc.IsMalicious)
}

func TestRunAllItemsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	mem := store.NewMemory()
	runner := etl.NewRunner(mem, nil, testLogger(), "run-3")

	client := otx.NewClient(newTestFetcher(), server.URL, "test-key")
	stats := runner.Run(context.Background(), []etl.Job{
		otx.NewJob(client, "10.0.0.1", "ip_indicators", "run-3"),
		otx.NewJob(client, "10.0.0.2", "ip_indicators", "run-3"),
	})

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Inserted)
	assert.Equal(t, 2, stats.Failed)
	assert.True(t, stats.AllFailed())
	assert.Empty(t, mem.Documents("ip_indicators"))
}

func TestRunStoreErrorSkipsItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"pulse_info":{"pulses":[]}}`)
	}))
	defer server.Close()

	mem := store.NewMemory()
	mem.FailWith(errors.New("connection reset"))
	rb := &recordBus{}
	runner := etl.NewRunner(mem, rb, testLogger(), "run-4")

	client := otx.NewClient(newTestFetcher(), server.URL, "test-key")
	stats := runner.Run(context.Background(), []etl.Job{
		otx.NewJob(client, "8.8.8.8", "ip_indicators", "run-4"),
	})

	assert.Equal(t, 1, stats.Failed)
	assert.True(t, stats.AllFailed())
	assert.Empty(t, mem.Documents("ip_indicators"))
	assert.Empty(t, rb.messages)
}

func TestRunSameInputTwiceDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"pulse_info":{"pulses":[{}]}}`)
	}))
	defer server.Close()

	mem := store.NewMemory()
	runner := etl.NewRunner(mem, nil, testLogger(), "run-5")

	client := otx.NewClient(newTestFetcher(), server.URL, "test-key")
	job := otx.NewJob(client, "8.8.8.8", "ip_indicators", "run-5")
	stats := runner.Run(context.Background(), []etl.Job{job, job})

	assert.Equal(t, 2, stats.Inserted)

	// Append-only storage: the second run of the same input is a new
	// document, not an upsert.
	docs := mem.Documents("ip_indicators")
	require.Len(t, docs, 2)
	first := docs[0].(otx.Document)
	second := docs[1].(otx.Document)
	assert.Equal(t, first.IP, second.IP)
	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, first.PulseCount, second.PulseCount)
	assert.Equal(t, first.RunID, second.RunID)
}

func TestRunAllModeInsertsIntoThreeCollections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ip/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"OK","address":{"cidr_notation":"192.168.1.0/24"}}`)
	})
	mux.HandleFunc("/binary/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"OK","binary":{"decimal":255}}`)
	})
	mux.HandleFunc("/security/certificate/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"OK","certificate":{"domain":"example.com"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	mem := store.NewMemory()
	runner := etl.NewRunner(mem, nil, testLogger(), "run-6")

	client := netcalc.NewClient(newTestFetcher(), server.URL)
	inputs := map[string]string{
		netcalc.ModeIP:          "192.168.1.0/24",
		netcalc.ModeBinary:      "11111111",
		netcalc.ModeCertificate: "example.com",
	}

	var jobs []etl.Job
	for _, mode := range netcalc.Modes() {
		collection := netcalc.CollectionFor("networkcalc", mode)
		jobs = append(jobs, netcalc.NewJob(client, mode, inputs[mode], collection, "run-6"))
	}

	stats := runner.Run(context.Background(), jobs)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Inserted)

	assert.Equal(t, []string{
		"networkcalc_binary_raw",
		"networkcalc_certificate_raw",
		"networkcalc_ip_raw",
	}, mem.Collections())

	for _, mode := range netcalc.Modes() {
		docs := mem.Documents(netcalc.CollectionFor("networkcalc", mode))
		require.Len(t, docs, 1, "collection for mode %s", mode)
		doc := docs[0].(netcalc.Document)
		assert.Equal(t, mode, doc.Source)
		assert.Equal(t, inputs[mode], doc.Input)
	}
}

func TestRunAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mem := store.NewMemory()
	runner := etl.NewRunner(mem, nil, testLogger(), "run-7")

	stats := runner.Run(ctx, []etl.Job{
		{
			Source:     "otx",
			Input:      "8.8.8.8",
			Collection: "ip_indicators",
			Fetch: func(ctx context.Context) (map[string]interface{}, error) {
				t.Fatal("fetch must not run after cancellation")
				return nil, nil
			},
		},
	})

	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, mem.Documents("ip_indicators"))
}
