package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
)

var testNow = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeSource struct {
	order  []string
	items  map[string][]domain.RawItem
	errs   map[string]error
	panics map[string]bool
}

func (f *fakeSource) Families() []string { return f.order }

func (f *fakeSource) FetchFamily(_ context.Context, family string, _ time.Time) ([]domain.RawItem, error) {
	if f.panics[family] {
		panic("boom")
	}
	if err := f.errs[family]; err != nil {
		return nil, err
	}
	return f.items[family], nil
}

type fakeModel struct {
	replies []string
	errs    []error
	prompts []domain.Prompt
}

func (f *fakeModel) Complete(_ context.Context, prompt domain.Prompt) (string, error) {
	call := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	if call < len(f.replies) {
		return f.replies[call], nil
	}
	if len(f.replies) > 0 {
		return f.replies[len(f.replies)-1], nil
	}
	return "", fmt.Errorf("no reply scripted for call %d", call+1)
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ports.ErrStateNotFound
	}
	return value, nil
}

type fakeDelivery struct {
	calls int
	id    string
	err   error
}

func (f *fakeDelivery) Deliver(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.id, f.err
}

type stubRenderer struct{}

func (stubRenderer) Render(digest domain.CuratedDigest, _ time.Time) domain.RenderedDigest {
	return domain.RenderedDigest{
		Subject: "Daily " + digest.Date,
		Body:    fmt.Sprintf("%d items", len(digest.Items)),
	}
}

type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func rawItem(url string, st domain.SourceType, age time.Duration) domain.RawItem {
	return domain.RawItem{
		Title:       "title " + url,
		Content:     "content " + url,
		URL:         url,
		SourceName:  "source " + url,
		SourceType:  st,
		PublishedAt: testNow.Add(-age),
	}
}
