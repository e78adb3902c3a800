package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/duckling/internal/cache"
	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/metrics"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/worker"
)

const hourResponse = `[{"dim":"time","body":"at 6pm","start":0,"end":6,"value":{"type":"value","grain":"hour","value":"2018-03-07T18:00:00.000-07:00"}}]`

type fakeFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls []client.Request
}

func (f *fakeFetcher) Fetch(ctx context.Context, req client.Request) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *fakeFetcher) Endpoint() string { return "http://localhost:8000/parse" }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var fixedNow = time.Date(2018, 3, 7, 12, 30, 45, 0, time.UTC)

func newTestPipeline(f *fakeFetcher, c cache.Cache, m *metrics.Metrics) *Pipeline {
	p := New(Options{
		Fetcher:  f,
		Cache:    c,
		CacheTTL: time.Minute,
		Limiter:  worker.NewLimiter(0, 1),
		Metrics:  m,
	})
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestParse_DecodesWithRequestLocation(t *testing.T) {
	f := &fakeFetcher{body: hourResponse}
	p := newTestPipeline(f, nil, nil)

	tokyo := time.FixedZone("JST", 9*60*60)
	res, err := p.Parse(context.Background(), client.Request{Text: "at 6pm", Location: tokyo})
	require.NoError(t, err)

	single, ok := res.Entities[0].Value().(entity.TimeValue).Single()
	require.True(t, ok, "expected a single time")
	hour, _ := single.Components().Hour()
	assert.Equal(t, 10, hour, "hour in JST")
	assert.False(t, res.Cached, "first parse should not be cached")
}

func TestParse_PinsReferenceTime(t *testing.T) {
	f := &fakeFetcher{body: `[]`}
	p := newTestPipeline(f, nil, nil)

	res, err := p.Parse(context.Background(), client.Request{Text: "tomorrow"})
	require.NoError(t, err)
	want := fixedNow.Truncate(time.Minute)
	assert.True(t, f.calls[0].ReferenceTime.Equal(want), "reference time sent = %v", f.calls[0].ReferenceTime)
	assert.True(t, res.Request.ReferenceTime.Equal(want), "result reference time = %v", res.Request.ReferenceTime)

	explicit := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = p.Parse(context.Background(), client.Request{Text: "tomorrow", ReferenceTime: explicit})
	require.NoError(t, err)
	assert.True(t, f.calls[1].ReferenceTime.Equal(explicit), "explicit reference time overwritten: %v", f.calls[1].ReferenceTime)
}

func TestParse_CacheHit(t *testing.T) {
	f := &fakeFetcher{body: hourResponse}
	m := metrics.New(prometheus.NewRegistry())
	p := newTestPipeline(f, cache.NewMemoryCache(time.Minute, time.Minute), m)

	req := client.Request{Text: "at 6pm", Location: time.UTC}
	_, err := p.Parse(context.Background(), req)
	require.NoError(t, err)

	res, err := p.Parse(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Cached, "second parse should come from cache")
	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeCached)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Entities.WithLabelValues("time")))
}

func TestParse_DifferentRequestsMissCache(t *testing.T) {
	f := &fakeFetcher{body: `[]`}
	p := newTestPipeline(f, cache.NewMemoryCache(time.Minute, time.Minute), nil)
	ctx := context.Background()

	requests := []client.Request{
		{Text: "5 meters"},
		{Text: "5 meters", Locale: "en_GB"},
		{Text: "5 meters", Dimensions: []entity.Dimension{entity.DimensionDistance}},
		{Text: "5 meters", Location: time.UTC},
	}
	for _, req := range requests {
		_, err := p.Parse(ctx, req)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, f.callCount())
}

func TestRequestKey_DimensionOrder(t *testing.T) {
	a := requestKey(client.Request{Text: "x", Dimensions: []entity.Dimension{entity.DimensionTime, entity.DimensionNumeral}})
	b := requestKey(client.Request{Text: "x", Dimensions: []entity.Dimension{entity.DimensionNumeral, entity.DimensionTime}})
	assert.Equal(t, a, b, "dimension order changed the cache key")
}

func TestParse_DecodeFailure(t *testing.T) {
	f := &fakeFetcher{body: `[{"dim":"distance","body":"x","start":0,"end":1,"value":{"type":"interval"}}]`}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	m := metrics.New(prometheus.NewRegistry())
	p := newTestPipeline(f, c, m)

	_, err := p.Parse(context.Background(), client.Request{Text: "x"})
	require.ErrorIs(t, err, client.ErrInvalidResponse)
	require.ErrorIs(t, err, entity.ErrMissingIntervalProperties)
	assert.True(t, IsDecodeError(err))
	assert.Zero(t, c.Len(), "undecodable response was cached")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("missing_interval_properties")))
}

func TestParse_FetchFailure(t *testing.T) {
	f := &fakeFetcher{err: &client.StatusError{Code: 503}}
	m := metrics.New(prometheus.NewRegistry())
	p := newTestPipeline(f, nil, m)

	_, err := p.Parse(context.Background(), client.Request{Text: "x"})
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.Code)
	assert.False(t, IsDecodeError(err), "transport failure reported as decode error")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OutcomeFetchError)))
}

func TestParse_CorruptCacheEntryRefetched(t *testing.T) {
	f := &fakeFetcher{body: `[]`}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := newTestPipeline(f, c, nil)

	req := client.Request{Text: "x", ReferenceTime: fixedNow}
	require.NoError(t, c.Set(context.Background(), requestKey(req), []byte(`{"not":"an array"}`), 0))

	res, err := p.Parse(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Cached, "corrupt cache entry should trigger a fetch")
	assert.Equal(t, 1, f.callCount())
}

func TestParseText_UsesDefaults(t *testing.T) {
	f := &fakeFetcher{body: `[]`}
	p := New(Options{
		Fetcher:  f,
		Defaults: client.Request{Locale: "en_GB", Dimensions: []entity.Dimension{entity.DimensionTime}},
	})

	_, err := p.ParseText(context.Background(), "next tuesday")
	require.NoError(t, err)
	got := f.calls[0]
	assert.Equal(t, "next tuesday", got.Text)
	assert.Equal(t, "en_GB", got.Locale)
	assert.Equal(t, []entity.Dimension{entity.DimensionTime}, got.Dimensions)
}

func TestPipeline_ImplementsBatchParser(t *testing.T) {
	f := &fakeFetcher{body: hourResponse}
	bp := worker.NewBatchProcessor(newTestPipeline(f, nil, nil), 2)

	results := bp.ProcessTexts(context.Background(), []string{"at 6pm", "at 7pm"})
	assert.Zero(t, worker.Failed(results))
}

func TestRenderer_Text(t *testing.T) {
	f := &fakeFetcher{body: hourResponse}
	p := newTestPipeline(f, nil, nil)
	res, err := p.Parse(context.Background(), client.Request{Text: "at 6pm", Location: time.UTC})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer("text").Render(&buf, res.Report()))
	out := buf.String()
	for _, want := range []string{`"at 6pm" (UTC)`, "[0:6]", "2018-03-08T01 UTC", "1 entities (time: 1)"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderer_TextError(t *testing.T) {
	var buf bytes.Buffer
	_, decodeErr := entity.Decode([]byte(`[1]`))
	require.NoError(t, NewRenderer("text").Render(&buf, model.NewErrorReport("x", decodeErr)))
	assert.Contains(t, buf.String(), "error [malformed_json]")
}

func TestRenderer_JSON(t *testing.T) {
	f := &fakeFetcher{body: hourResponse}
	p := newTestPipeline(f, nil, nil)
	res, err := p.Parse(context.Background(), client.Request{Text: "at 6pm", Location: time.UTC})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer("json").Render(&buf, res.Report()))

	var doc struct {
		Text     string `json:"text"`
		Entities []struct {
			Dim   string `json:"dim"`
			Value struct {
				Kind  string `json:"kind"`
				Value struct {
					Hour int `json:"hour"`
				} `json:"value"`
			} `json:"value"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), buf.String())
	assert.Equal(t, "at 6pm", doc.Text)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "single", doc.Entities[0].Value.Kind)
	assert.Equal(t, 1, doc.Entities[0].Value.Value.Hour)

	buf.Reset()
	require.NoError(t, NewRenderer("json").Render(&buf, res.Report(), res.Report()))
	assert.True(t, bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("[")), "multiple reports should render as an array")
}
