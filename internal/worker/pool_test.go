package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRenderer) RenderPNG(w io.Writer, c presenter.Chart) error {
	f.mu.Lock()
	f.calls = append(f.calls, c.ID)
	f.mu.Unlock()
	if f.fail[c.ID] {
		return errors.New("boom")
	}
	_, err := fmt.Fprintf(w, "png:%s", c.ID)
	return err
}

func pages() []presenter.Page {
	return []presenter.Page{
		{ID: "1950s", Sections: []presenter.Section{
			{ID: "a", Charts: []presenter.Chart{{ID: "feature-means"}, {ID: "explicit"}}},
			{ID: "b"},
			{ID: "c", Charts: []presenter.Chart{{ID: "key-mode"}}},
		}},
		{ID: "overview", Sections: []presenter.Section{
			{ID: "a", Charts: []presenter.Chart{{ID: "tracks-per-decade"}}},
		}},
	}
}

func TestPlan(t *testing.T) {
	jobs := Plan(pages(), "out")
	require.Len(t, jobs, 4)
	assert.Equal(t, Job{ViewID: "1950s", Chart: presenter.Chart{ID: "feature-means"}, Path: filepath.Join("out", "1950s", "feature-means.png")}, jobs[0])
	assert.Equal(t, filepath.Join("out", "overview", "tracks-per-decade.png"), jobs[3].Path)
}

func TestPool_RendersEveryJob(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRenderer{}
	p := NewPool(r, 1, nil)
	p.Start(3)

	jobs := Plan(pages(), dir)
	for _, j := range jobs {
		require.NoError(t, p.Submit(context.Background(), j))
	}
	require.NoError(t, p.Stop())
	assert.Equal(t, len(jobs), p.Rendered())

	for _, j := range jobs {
		raw, err := os.ReadFile(j.Path)
		require.NoError(t, err)
		assert.Equal(t, "png:"+j.Chart.ID, string(raw))
	}

	sort.Strings(r.calls)
	assert.Equal(t, []string{"explicit", "feature-means", "key-mode", "tracks-per-decade"}, r.calls)
}

func TestPool_CollectsFailures(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRenderer{fail: map[string]bool{"explicit": true}}
	p := NewPool(r, 4, nil)
	p.Start(2)

	for _, j := range Plan(pages(), dir) {
		require.NoError(t, p.Submit(context.Background(), j))
	}
	err := p.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1950s/explicit")
	assert.Equal(t, 3, p.Rendered())

	_, statErr := os.Stat(filepath.Join(dir, "1950s", "explicit.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	p := NewPool(&fakeRenderer{}, 1, nil)
	// No workers yet: the first job fills the queue, the second must wait.
	require.NoError(t, p.Submit(context.Background(), Job{Path: filepath.Join(t.TempDir(), "a.png")}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, Job{Path: "b.png"})
	require.ErrorIs(t, err, context.Canceled)

	p.Start(1)
	require.NoError(t, p.Stop())
	assert.Equal(t, 1, p.Rendered())
}
