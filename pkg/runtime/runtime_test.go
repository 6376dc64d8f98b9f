package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/Protocol-Lattice/agent-server"
	"github.com/Protocol-Lattice/agent-server/pkg/config"
	"github.com/Protocol-Lattice/agent-server/pkg/models"
)

func testSettings() *config.Config {
	return &config.Config{Provider: models.ProviderOllama, OllamaHost: "http://ollama:11434"}
}

func dummyLoader(seen *[]models.ClientConfig) ModelLoader {
	var mu sync.Mutex
	return func(ctx context.Context, cc models.ClientConfig) (agent.Model, error) {
		if seen != nil {
			mu.Lock()
			*seen = append(*seen, cc)
			mu.Unlock()
		}
		return models.NewAdapter(ctx, models.AdapterOptions{
			ClientConfig: cc,
			Factory: func(context.Context, models.ClientConfig) (models.ChatClient, error) {
				return models.NewDummyChat("Echo:"), nil
			},
			Logger: log.New(io.Discard, "", 0),
		})
	}
}

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{
		WithSettings(testSettings()),
		WithModelLoader(dummyLoader(nil)),
		WithLogger(log.New(io.Discard, "", 0)),
	}
	return New(append(base, opts...)...)
}

func TestCreateAndRun(t *testing.T) {
	var seen []models.ClientConfig
	rt := newTestRuntime(t, WithModelLoader(dummyLoader(&seen)))

	entry, err := rt.Create(context.Background(), AgentSpec{
		Name:         "Finance Agent",
		Model:        "tinyllama",
		Tools:        []string{"YFinanceTools", "Unknown"},
		Instructions: "Use tables",
	}, ModeAdd)
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)

	require.Len(t, seen, 1)
	assert.Equal(t, "ollama", seen[0].Provider)
	assert.Equal(t, "http://ollama:11434", seen[0].Host)
	assert.Equal(t, "ollama", entry.Spec.Provider)

	fns := entry.Agent.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "get_current_stock_price", fns[0].Name)
	assert.Equal(t, "get_company_info", fns[1].Name)

	res, err := rt.Run(context.Background(), entry.ID, map[string]any{"message": "What is NVDA?"})
	require.NoError(t, err)
	assert.Equal(t, agent.RunResult{Result: "Echo: What is NVDA?"}, res)
}

func TestRunUnknownID(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := rt.Run(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ", map[string]any{"message": "hi"})
	assert.True(t, errors.Is(err, ErrAgentNotFound))

	_, err = rt.Get("missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.ErrorIs(t, rt.Delete("missing"), ErrAgentNotFound)
}

func TestCreateAddKeepsPreviousAgents(t *testing.T) {
	rt := newTestRuntime(t)
	spec := AgentSpec{Name: "a", Model: "phi3"}

	first, err := rt.Create(context.Background(), spec, ModeAdd)
	require.NoError(t, err)
	second, err := rt.Create(context.Background(), spec, ModeAdd)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "same name and model must still get distinct ids")
	assert.Equal(t, 2, rt.Len())

	list := rt.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestCreateReplaceKeepsOnlyNewest(t *testing.T) {
	rt := newTestRuntime(t)
	spec := AgentSpec{Name: "a", Model: "phi3"}

	for i := 0; i < 3; i++ {
		_, err := rt.Create(context.Background(), spec, ModeAdd)
		require.NoError(t, err)
	}
	last, err := rt.Create(context.Background(), spec, ModeReplace)
	require.NoError(t, err)

	assert.Equal(t, 1, rt.Len())
	_, err = rt.Get(last.ID)
	assert.NoError(t, err)

	again, err := rt.Create(context.Background(), spec, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.Len())
	_, err = rt.Get(last.ID)
	assert.ErrorIs(t, err, ErrAgentNotFound)
	_, err = rt.Get(again.ID)
	assert.NoError(t, err)
}

func TestCreateRequiresModel(t *testing.T) {
	rt := newTestRuntime(t)
	_, err := rt.Create(context.Background(), AgentSpec{Name: "a"}, ModeAdd)
	assert.ErrorIs(t, err, models.ErrModelRequired)
	assert.Equal(t, 0, rt.Len())
}

func TestCreatePropagatesLoaderError(t *testing.T) {
	rt := newTestRuntime(t, WithModelLoader(func(context.Context, models.ClientConfig) (agent.Model, error) {
		return nil, models.ErrUnknownProvider
	}))
	_, err := rt.Create(context.Background(), AgentSpec{Name: "a", Model: "m", Provider: "bogus"}, ModeAdd)
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
}

func TestDefaultLoaderRejectsUnknownProvider(t *testing.T) {
	rt := New(WithSettings(testSettings()), WithLogger(log.New(io.Discard, "", 0)))
	_, err := rt.Create(context.Background(), AgentSpec{Name: "a", Model: "m", Provider: "bogus"}, ModeAdd)
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
}

func TestDeleteAndClear(t *testing.T) {
	rt := newTestRuntime(t)
	e1, err := rt.Create(context.Background(), AgentSpec{Name: "a", Model: "m"}, ModeAdd)
	require.NoError(t, err)
	_, err = rt.Create(context.Background(), AgentSpec{Name: "b", Model: "m"}, ModeAdd)
	require.NoError(t, err)

	require.NoError(t, rt.Delete(e1.ID))
	assert.Equal(t, 1, rt.Len())

	rt.Clear()
	assert.Equal(t, 0, rt.Len())
}

type closingChat struct {
	models.ChatClient
	closed *int32
}

func (c closingChat) Close() error {
	atomic.AddInt32(c.closed, 1)
	return nil
}

func TestRemovedAgentsReleaseTheirClients(t *testing.T) {
	var closed int32
	loader := func(ctx context.Context, cc models.ClientConfig) (agent.Model, error) {
		return models.NewAdapter(ctx, models.AdapterOptions{
			ClientConfig: cc,
			Factory: func(context.Context, models.ClientConfig) (models.ChatClient, error) {
				return closingChat{ChatClient: models.NewDummyChat(""), closed: &closed}, nil
			},
			Logger: log.New(io.Discard, "", 0),
		})
	}
	rt := newTestRuntime(t, WithModelLoader(loader))
	ctx := context.Background()

	first, err := rt.Create(ctx, AgentSpec{Name: "a", Model: "m"}, ModeAdd)
	require.NoError(t, err)
	_, err = rt.Create(ctx, AgentSpec{Name: "b", Model: "m"}, ModeAdd)
	require.NoError(t, err)

	require.NoError(t, rt.Delete(first.ID))
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))

	_, err = rt.Create(ctx, AgentSpec{Name: "c", Model: "m"}, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&closed))

	rt.Clear()
	assert.Equal(t, int32(3), atomic.LoadInt32(&closed))
}

func TestIDGenerator(t *testing.T) {
	n := 0
	rt := newTestRuntime(t, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("agent-%d", n)
	}))
	e, err := rt.Create(context.Background(), AgentSpec{Name: "a", Model: "m"}, ModeAdd)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", e.ID)
}

func TestConcurrentCreates(t *testing.T) {
	rt := newTestRuntime(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rt.Create(context.Background(), AgentSpec{Name: "same", Model: "same"}, ModeAdd)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, rt.Len())
}
