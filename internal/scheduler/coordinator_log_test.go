package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/buildsched/internal/core/eventbus/testbus"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func TestCoordinator_LogLinesNameProjectOnce(t *testing.T) {
	out := &lockedBuffer{}
	prev := log.Logger
	log.Logger = zerolog.New(out).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	store := newMemStore(siteDataset(t))
	c := newTestCoordinator(t, store, testbus.New(t), slowOptions())
	store.setSaveErr("li-paint", errors.New("disk full"))

	require.NoError(t, c.Move("li-paint", 1))
	require.NoError(t, c.Flush(context.Background()))

	var sawFailure bool
	for _, line := range out.lines() {
		if !strings.Contains(line, `"component":"coordinator"`) {
			continue
		}
		assert.Equal(t, 1, strings.Count(line, `"project_id"`), line)
		if strings.Contains(line, "persist failed") {
			sawFailure = true
			assert.Contains(t, line, `"edit_id"`)
		}
	}
	assert.True(t, sawFailure)
}
