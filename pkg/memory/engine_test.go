package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/thotsl4yer69/sentient-core/pkg/embed"
	"github.com/thotsl4yer69/sentient-core/pkg/events"
	"github.com/thotsl4yer69/sentient-core/pkg/kv"
	"github.com/thotsl4yer69/sentient-core/pkg/recall"
)

func newTestEngine(t *testing.T) (*Engine, *embed.Mock, *events.Chan) {
	t.Helper()
	mock := embed.NewMock(3)
	sink := events.NewChan(64)
	eng, err := New(Config{
		Store:    kv.NewMemory(nil),
		Embedder: mock,
		Sink:     sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng, mock, sink
}

func drain(sink *events.Chan) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-sink.C:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestStoreWorkingCap(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	// 25 trivial exchanges: all land in Working, none clear the episodic
	// gate.
	for i := 0; i < 25; i++ {
		res, err := eng.Store(ctx, fmt.Sprintf("ok %d", i), "sure", false)
		if err != nil {
			t.Fatalf("Store %d: %v", i, err)
		}
		if res.StoredEpisodic {
			t.Fatalf("Store %d promoted a trivial exchange (importance %f)", i, res.Importance)
		}
	}

	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Working.Count != DefaultWorkingCap {
		t.Errorf("Working.Count = %d; want %d", stats.Working.Count, DefaultWorkingCap)
	}
	if stats.Episodic.Count != 0 {
		t.Errorf("Episodic.Count = %d; want 0", stats.Episodic.Count)
	}

	// Newest first: the last stored exchange leads.
	list, err := eng.WorkingContext(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].UserText != "ok 24" {
		t.Errorf("WorkingContext[0] = %q; want the newest exchange", list[0].UserText)
	}
	if list[len(list)-1].UserText != "ok 5" {
		t.Errorf("WorkingContext tail = %q; want oldest surviving exchange", list[len(list)-1].UserText)
	}
}

func TestStoreForcedEpisodic(t *testing.T) {
	ctx := context.Background()
	eng, mock, sink := newTestEngine(t)

	user := "My name is Jack and I love synthesizers"
	asst := "Nice to meet you, Jack"
	mock.SetVector(user+"\n"+asst, []float32{1, 0, 0})
	mock.SetVector("synthesizers", []float32{1, 0, 0})

	res, err := eng.Store(ctx, user, asst, true)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !res.StoredEpisodic {
		t.Fatal("forced store did not reach the episodic tier")
	}
	if res.Importance < DefaultMinImportance {
		t.Errorf("Importance = %f; want >= %f for a personal statement", res.Importance, DefaultMinImportance)
	}

	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodic.Count != 1 {
		t.Fatalf("Episodic.Count = %d; want 1", stats.Episodic.Count)
	}

	hits, err := eng.Recall(ctx, recall.SearchQuery{Text: "synthesizers"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Recall = %d hits; want 1", len(hits))
	}
	if hits[0].Memory.Interaction.ID != res.InteractionID {
		t.Errorf("recalled %s; want %s", hits[0].Memory.Interaction.ID, res.InteractionID)
	}
	if hits[0].Similarity <= 0.5 {
		t.Errorf("Similarity = %f; want above the default floor", hits[0].Similarity)
	}
	found := false
	for _, tag := range hits[0].Memory.Tags {
		if tag == "about-user" {
			found = true
		}
	}
	if !found {
		t.Errorf("Tags = %v; want about-user", hits[0].Memory.Tags)
	}

	types := map[string]int{}
	for _, ev := range drain(sink) {
		types[ev.Type]++
	}
	for _, want := range []string{events.TypeInteractionStored, events.TypeEpisodicStored, events.TypeMemorySearch} {
		if types[want] == 0 {
			t.Errorf("no %s event emitted (saw %v)", want, types)
		}
	}
}

func TestStoreEpisodicGate(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	res, err := eng.Store(ctx, "ok", "sure", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.StoredEpisodic {
		t.Error("low-importance exchange promoted without force")
	}

	res, err = eng.Store(ctx, "ok", "sure", true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.StoredEpisodic {
		t.Error("force did not promote a low-importance exchange")
	}
}

func TestStoreInteractionIDStable(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	a, err := eng.Store(ctx, "hello", "hi", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.Store(ctx, "hello", "hi", false)
	if err != nil {
		t.Fatal(err)
	}
	// Same text, different timestamps: distinct logical exchanges.
	if a.InteractionID == b.InteractionID {
		t.Error("distinct exchanges share an interaction ID")
	}
}

type failingEmbedder struct{ dim int }

func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func (f failingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func (f failingEmbedder) Dimension() int { return f.dim }

func TestStoreEmbeddingFailureKeepsWorking(t *testing.T) {
	ctx := context.Background()
	sink := events.NewChan(16)
	eng, err := New(Config{
		Store:    kv.NewMemory(nil),
		Embedder: failingEmbedder{dim: 3},
		Sink:     sink,
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := eng.Store(ctx, "My name is Jack and I love synthesizers", "noted", true)
	if err != nil {
		t.Fatalf("Store must not fail when only the episodic path breaks: %v", err)
	}
	if res.StoredEpisodic {
		t.Error("StoredEpisodic = true despite embedding failure")
	}
	if !errors.Is(res.EpisodicErr, ErrEmbedding) {
		t.Errorf("EpisodicErr = %v; want ErrEmbedding", res.EpisodicErr)
	}

	// The baseline guarantee held: the exchange is in Working.
	list, err := eng.WorkingContext(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("Working holds %d entries; want 1", len(list))
	}
}

func TestWorkingContextLimit(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	for i := 0; i < 10; i++ {
		if _, err := eng.Store(ctx, fmt.Sprintf("m %d", i), "ok", false); err != nil {
			t.Fatal(err)
		}
	}
	list, err := eng.WorkingContext(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d; want 3", len(list))
	}
	if list[0].UserText != "m 9" || list[2].UserText != "m 7" {
		t.Errorf("not newest first: %q, %q", list[0].UserText, list[2].UserText)
	}

	// Out-of-range limits clamp to the cap.
	list, err = eng.WorkingContext(ctx, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 10 {
		t.Errorf("len = %d; want all 10", len(list))
	}
}

func TestClearWorking(t *testing.T) {
	ctx := context.Background()
	eng, _, sink := newTestEngine(t)

	if _, err := eng.Store(ctx, "hello", "hi", false); err != nil {
		t.Fatal(err)
	}
	if err := eng.ClearWorking(ctx); err != nil {
		t.Fatalf("ClearWorking: %v", err)
	}
	list, err := eng.WorkingContext(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("Working holds %d entries after clear", len(list))
	}

	cleared := false
	for _, ev := range drain(sink) {
		if ev.Type == events.TypeWorkingCleared {
			cleared = true
		}
	}
	if !cleared {
		t.Error("no working_cleared event emitted")
	}
}

func TestCoreFacts(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if err := eng.CoreSet(ctx, "name", "Jack"); err != nil {
		t.Fatalf("CoreSet: %v", err)
	}
	if err := eng.CoreSet(ctx, "preferences.music", []any{"synthwave", "ambient"}); err != nil {
		t.Fatal(err)
	}

	v, err := eng.CoreGet(ctx, "name")
	if err != nil {
		t.Fatalf("CoreGet: %v", err)
	}
	if v != "Jack" {
		t.Errorf("CoreGet(name) = %v; want Jack", v)
	}

	all, err := eng.CoreAll(ctx)
	if err != nil {
		t.Fatalf("CoreAll: %v", err)
	}
	if _, ok := all["name"]; !ok {
		t.Errorf("CoreAll = %v; missing name", all)
	}
	if len(all) != 2 {
		t.Errorf("CoreAll holds %d facts; want 2", len(all))
	}

	if err := eng.CoreDelete(ctx, "name"); err != nil {
		t.Fatalf("CoreDelete: %v", err)
	}
	if _, err := eng.CoreGet(ctx, "name"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CoreGet after delete = %v; want ErrNotFound", err)
	}
}

func TestConsolidate(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	// Too few recent records: no-op.
	report, err := eng.Consolidate(ctx)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if !report.Skipped {
		t.Error("empty sweep not skipped")
	}

	for i := 0; i < 5; i++ {
		if _, err := eng.Store(ctx, fmt.Sprintf("the project meeting %d went well", i), "good", true); err != nil {
			t.Fatal(err)
		}
	}
	report, err = eng.Consolidate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped {
		t.Fatal("sweep skipped with 5 recent records")
	}
	if report.Total != 5 {
		t.Errorf("Total = %d; want 5", report.Total)
	}
	if report.ByTag["work"] != 5 {
		t.Errorf("ByTag[work] = %d; want 5", report.ByTag["work"])
	}

	// Consolidation is read-only.
	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodic.Count != 5 {
		t.Errorf("Episodic.Count changed to %d", stats.Episodic.Count)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	if _, err := eng.Store(ctx, "hello", "hi", false); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Store(ctx, "I love synthesizers so much, I feel happy", "noted", true); err != nil {
		t.Fatal(err)
	}
	if err := eng.CoreSet(ctx, "name", "Jack"); err != nil {
		t.Fatal(err)
	}

	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Working.Count != 2 {
		t.Errorf("Working.Count = %d; want 2", stats.Working.Count)
	}
	if stats.Working.MaxSize != DefaultWorkingCap {
		t.Errorf("Working.MaxSize = %d", stats.Working.MaxSize)
	}
	if stats.Episodic.Count != 1 {
		t.Errorf("Episodic.Count = %d; want 1", stats.Episodic.Count)
	}
	if stats.Core.Count != 1 {
		t.Errorf("Core.Count = %d; want 1", stats.Core.Count)
	}
	if stats.Cache.State != recall.Loaded {
		t.Errorf("Cache.State = %v; want loaded", stats.Cache.State)
	}
	if stats.Cache.Rows != 1 {
		t.Errorf("Cache.Rows = %d; want 1", stats.Cache.Rows)
	}
}

func TestReadEventsEmitted(t *testing.T) {
	ctx := context.Background()
	eng, _, sink := newTestEngine(t)

	if err := eng.CoreSet(ctx, "name", "Jack"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Store(ctx, "hello", "hi", false); err != nil {
		t.Fatal(err)
	}
	drain(sink)

	if _, err := eng.CoreGet(ctx, "name"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CoreAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.WorkingContext(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Stats(ctx); err != nil {
		t.Fatal(err)
	}

	types := map[string]int{}
	for _, ev := range drain(sink) {
		types[ev.Type]++
	}
	if types[events.TypeCoreRead] != 2 {
		t.Errorf("core_read events = %d; want 2 (get + all)", types[events.TypeCoreRead])
	}
	if types[events.TypeContextRead] != 1 {
		t.Errorf("context_read events = %d; want 1", types[events.TypeContextRead])
	}
	if types[events.TypeStatsRead] != 1 {
		t.Errorf("stats_read events = %d; want 1", types[events.TypeStatsRead])
	}
}

func TestSummary(t *testing.T) {
	short := recall.NewInteraction("hello there", "hi", 1, 0.25)
	if got := Summary(short); got != "[0.25] hello there" {
		t.Errorf("Summary = %q", got)
	}

	long := recall.NewInteraction(strings.Repeat("x", 100), "ok", 2, 0.7)
	got := Summary(long)
	if want := "[0.70] " + strings.Repeat("x", 57) + "..."; got != want {
		t.Errorf("Summary = %q; want %q", got, want)
	}
}

func TestRecallEmptyNotError(t *testing.T) {
	ctx := context.Background()
	eng, _, sink := newTestEngine(t)

	hits, err := eng.Recall(ctx, recall.SearchQuery{Text: "anything"})
	if err != nil {
		t.Fatalf("Recall on empty tier errored: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Recall = %d hits; want 0", len(hits))
	}

	for _, ev := range drain(sink) {
		if ev.Type == events.TypeMemorySearch {
			if top, ok := ev.Payload["top_similarity"].(float64); !ok || top != 0 {
				t.Errorf("top_similarity = %v; want 0.0 for empty result", ev.Payload["top_similarity"])
			}
			return
		}
	}
	t.Error("no memory_search event emitted")
}
