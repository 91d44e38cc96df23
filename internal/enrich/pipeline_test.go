package enrich_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"waybackfill/internal/checkpoint"
	"waybackfill/internal/enrich"
	"waybackfill/internal/pairsource"
	"waybackfill/internal/retry"
	"waybackfill/internal/slugpair"
	"waybackfill/internal/testsupport"
)

type fakeResolver struct {
	urls  map[string]string
	fail  map[string]error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, slug string) (string, bool, error) {
	f.calls = append(f.calls, slug)
	if err, ok := f.fail[slug]; ok {
		return "", false, err
	}
	url, ok := f.urls[slug]
	return url, ok, nil
}

type recordingProgress struct {
	total    int
	advanced int
	finished bool
}

func (r *recordingProgress) Start(total int) { r.total = total }
func (r *recordingProgress) Advance()        { r.advanced++ }
func (r *recordingProgress) Finish()         { r.finished = true }

type failingStore struct {
	checkpoint *checkpoint.Store
	failAfter  int
	appends    int
}

func (f *failingStore) LoadProcessed() (map[slugpair.ID]struct{}, error) {
	return f.checkpoint.LoadProcessed()
}

func (f *failingStore) Append(id slugpair.ID, url *string) error {
	if f.appends >= f.failAfter {
		return errors.New("disk full")
	}
	f.appends++
	return f.checkpoint.Append(id, url)
}

type line struct {
	ID  string  `json:"id"`
	URL *string `json:"url"`
}

func readRecords(t *testing.T, path string) []line {
	t.Helper()
	var out []line
	for _, raw := range testsupport.ReadLines(t, path) {
		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		out = append(out, l)
	}
	return out
}

func newPipeline(t *testing.T, source pairsource.Source, store enrich.Store, resolver *fakeResolver, opts ...enrich.Option) *enrich.Pipeline {
	t.Helper()
	p, err := enrich.New(source, store, resolver, opts...)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}
	return p
}

func TestRunFallsBackToTruncatedSlug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	resolver := &fakeResolver{urls: map[string]string{
		"foo": "http://web.archive.org/web/20150101000000/https://www.upworthy.com/foo",
	}}
	source := pairsource.Static{{Truncated: "foo", Full: "foo-bar-1-2"}}

	summary, err := newPipeline(t, source, store, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := readRecords(t, cfg.Paths.Output)
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].ID != string(slugpair.Identify("foo", "foo-bar-1-2")) {
		t.Fatalf("unexpected id %q", records[0].ID)
	}
	if records[0].URL == nil || *records[0].URL != resolver.urls["foo"] {
		t.Fatalf("unexpected url %v", records[0].URL)
	}
	if got := resolver.calls; len(got) != 2 || got[0] != "foo-bar-1-2" || got[1] != "foo" {
		t.Fatalf("expected full then truncated lookup, got %v", got)
	}
	want := enrich.Summary{Total: 1, Resolved: 1, FoundTruncated: 1}
	if summary != want {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunPrefersFullSlugAndRecordsMisses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	resolver := &fakeResolver{urls: map[string]string{
		"full-hit-1-2": "http://example/full",
		"full-hit":     "http://example/truncated",
	}}
	source := pairsource.Static{
		{Truncated: "full-hit", Full: "full-hit-1-2"},
		{Truncated: "", Full: "ab"},
		{Truncated: "miss", Full: "miss-3-4"},
	}

	summary, err := newPipeline(t, source, store, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := readRecords(t, cfg.Paths.Output)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].URL == nil || *records[0].URL != "http://example/full" {
		t.Fatalf("expected full-slug url, got %v", records[0].URL)
	}
	if records[1].URL != nil || records[2].URL != nil {
		t.Fatalf("expected null urls for misses, got %v %v", records[1].URL, records[2].URL)
	}
	wantCalls := []string{"full-hit-1-2", "ab", "", "miss-3-4", "miss"}
	if len(resolver.calls) != len(wantCalls) {
		t.Fatalf("unexpected lookups %q", resolver.calls)
	}
	for i, slug := range wantCalls {
		if resolver.calls[i] != slug {
			t.Fatalf("lookup %d: got %q want %q", i, resolver.calls[i], slug)
		}
	}
	want := enrich.Summary{Total: 3, Resolved: 3, FoundFull: 1, NotFound: 2}
	if summary != want {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunLooksUpEmptyTruncatedSlug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	resolver := &fakeResolver{urls: map[string]string{
		"": "http://web.archive.org/web/20120101000000/https://www.upworthy.com/",
	}}
	source := pairsource.Static{{Truncated: "", Full: "ab"}}

	summary, err := newPipeline(t, source, store, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := resolver.calls; len(got) != 2 || got[0] != "ab" || got[1] != "" {
		t.Fatalf("expected full then empty truncated lookup, got %q", got)
	}
	records := readRecords(t, cfg.Paths.Output)
	if len(records) != 1 || records[0].URL == nil || *records[0].URL != resolver.urls[""] {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].ID != string(slugpair.Identify("", "ab")) {
		t.Fatalf("unexpected id %q", records[0].ID)
	}
	want := enrich.Summary{Total: 1, Resolved: 1, FoundTruncated: 1}
	if summary != want {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunResumesWithoutDuplicateRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	source := pairsource.Static{
		slugpair.FromSlug("alpha-story-1-2"),
		slugpair.FromSlug("beta-story-3-4"),
	}

	first := &fakeResolver{urls: map[string]string{"alpha-story-1-2": "http://example/a"}}
	if _, err := newPipeline(t, source, store, first).Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second := &fakeResolver{}
	summary, err := newPipeline(t, source, store, second).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(second.calls) != 0 {
		t.Fatalf("expected no lookups on resume, got %v", second.calls)
	}
	if summary.Skipped != 2 || summary.Resolved != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	seen := map[string]bool{}
	for _, r := range readRecords(t, cfg.Paths.Output) {
		if seen[r.ID] {
			t.Fatalf("duplicate id %s after resume", r.ID)
		}
		seen[r.ID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(seen))
	}
}

func TestRunProcessesInRunDuplicatesTwice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	pair := slugpair.FromSlug("same-page-1-2")
	resolver := &fakeResolver{}

	summary, err := newPipeline(t, pairsource.Static{pair, pair}, store, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	records := readRecords(t, cfg.Paths.Output)
	if len(records) != 2 || records[0].ID != records[1].ID {
		t.Fatalf("expected the pair recorded twice, got %+v", records)
	}
	if summary.Resolved != 2 || summary.NotFound != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunAbortsOnAppendError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := &failingStore{checkpoint: testsupport.MustOpenCheckpoint(t, cfg), failAfter: 1}
	source := pairsource.Static{
		slugpair.FromSlug("one-page-1-2"),
		slugpair.FromSlug("two-page-3-4"),
		slugpair.FromSlug("three-page-5-6"),
	}
	resolver := &fakeResolver{}

	summary, err := newPipeline(t, source, store, resolver).Run(context.Background())
	if err == nil {
		t.Fatal("expected append error")
	}
	if summary.Resolved != 1 {
		t.Fatalf("expected one pair recorded before failure, got %+v", summary)
	}
	if got := len(readRecords(t, cfg.Paths.Output)); got != 1 {
		t.Fatalf("expected 1 durable record, got %d", got)
	}
}

func TestRunAbortsOnResolverError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)
	source := pairsource.Static{
		slugpair.FromSlug("good-page-1-2"),
		slugpair.FromSlug("bad-page-3-4"),
		slugpair.FromSlug("never-page-5-6"),
	}
	resolver := &fakeResolver{fail: map[string]error{"bad-page-3-4": retry.ErrExhausted}}
	progress := &recordingProgress{}

	summary, err := newPipeline(t, source, store, resolver, enrich.WithProgress(progress)).Run(context.Background())
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if summary.Resolved != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := len(readRecords(t, cfg.Paths.Output)); got != 1 {
		t.Fatalf("failed pair must not be recorded, got %d records", got)
	}
	for _, slug := range resolver.calls {
		if slug == "never-page-5-6" {
			t.Fatal("run continued after resolver error")
		}
	}
	if progress.total != 3 || progress.advanced != 1 || !progress.finished {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestNewValidatesDependenciesAndRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCheckpoint(t, cfg)

	if _, err := enrich.New(nil, store, &fakeResolver{}); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := enrich.New(pairsource.Static{}, nil, &fakeResolver{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := enrich.New(pairsource.Static{}, store, nil); err == nil {
		t.Fatal("expected error for nil resolver")
	}

	p := newPipeline(t, pairsource.Static{}, store, &fakeResolver{}, enrich.WithRunID("run-42"))
	if p.RunID() != "run-42" {
		t.Fatalf("unexpected run id %q", p.RunID())
	}
	generated := newPipeline(t, pairsource.Static{}, store, &fakeResolver{})
	if len(generated.RunID()) != 36 {
		t.Fatalf("expected generated uuid run id, got %q", generated.RunID())
	}
}
