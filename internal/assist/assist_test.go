package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateway(t *testing.T, handler http.HandlerFunc) *HTTPStrategy {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPStrategy(srv.URL, "secret", srv.Client())
}

var catalog = []CatalogMaterial{
	{Name: "ЛДСП Белый 16мм", Article: "LDSP-W16", Unit: "m2"},
	{Name: "Кромка ПВХ 2мм", Article: "EDGE-2", Unit: "m"},
	{Name: "Петля накладная", Article: "HNG-01", Unit: "pcs"},
}

func TestChain_GatewayFailureFallsBack(t *testing.T) {
	var calls int32
	gw := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	chain := NewChain(time.Second, gw)
	ctx := context.Background()

	desc := chain.DescribeCollection(ctx, DescriptionInput{Name: "Loft", ProductNames: []string{"Desk", "Shelf"}})
	assert.Equal(t, "local", desc.Source)
	assert.True(t, desc.FellBack())
	assert.NotEmpty(t, desc.Value.Description)

	sug := chain.SuggestTechcard(ctx, TechcardInput{ProductName: "Шкаф купе", MaterialsCatalog: catalog})
	assert.Equal(t, "local", sug.Source)
	require.NotEmpty(t, sug.Value.Items)
	for _, it := range sug.Value.Items {
		assert.NotEmpty(t, it.Name)
		assert.True(t, it.Quantity.IsPositive())
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestChain_GatewaySuccess(t *testing.T) {
	gw := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req struct {
			Task    Task            `json:"task"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskTechcardSuggest, req.Task)
		_, _ = w.Write([]byte(`{"ok":true,"data":{"items":[{"name":"Board","article":"LDSP-W16","quantity":3.5,"unit":"m2"},{"name":"","quantity":1},{"name":"Zero","quantity":0}]}}`))
	})

	res := NewChain(time.Second, gw).SuggestTechcard(context.Background(), TechcardInput{ProductName: "Desk"})
	assert.Equal(t, "gateway", res.Source)
	assert.False(t, res.FellBack())
	require.Len(t, res.Value.Items, 1)
	assert.Equal(t, "3.5", res.Value.Items[0].Quantity.String())
}

func TestChain_RejectsUnusableOutput(t *testing.T) {
	cases := map[string]string{
		"not ok":      `{"ok":false,"error":"quota"}`,
		"no data":     `{"ok":true}`,
		"empty items": `{"ok":true,"data":{"items":[{"name":"x","quantity":0}]}}`,
		"wrong shape": `{"ok":true,"data":{"items":"nope"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gw := gateway(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			res := NewChain(time.Second, gw).SuggestTechcard(context.Background(), TechcardInput{ProductName: "Table"})
			assert.Equal(t, "local", res.Source)
			require.Len(t, res.Attempts, 1)
			assert.Equal(t, "gateway", res.Attempts[0].Strategy)
			assert.NotEmpty(t, res.Value.Items)
		})
	}
}

type stubStrategy struct {
	name  string
	calls int
	out   string
	err   error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Generate(ctx context.Context, _ Task, _ any) (json.RawMessage, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("no deadline")
	}
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.out), nil
}

func TestChain_TriesStrategiesInOrder(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("down")}
	second := &stubStrategy{name: "second", out: `{"description":"  From the second.  "}`}
	chain := NewChain(0, first, nil, second)

	assert.Equal(t, []string{"first", "second", "local"}, chain.Strategies())
	res := chain.DescribeCollection(context.Background(), DescriptionInput{Name: "Nordic"})
	assert.Equal(t, "second", res.Source)
	assert.Equal(t, "From the second.", res.Value.Description)
	assert.Equal(t, 1, first.calls)
}

func TestGuard_OpenBreakerSkipsRemote(t *testing.T) {
	remote := &stubStrategy{name: "remote", err: errors.New("down")}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "test", FailureThreshold: 2, OpenTimeout: time.Hour})
	chain := NewChain(time.Second, Guard(remote, cb))

	for i := 0; i < 4; i++ {
		res := chain.DescribeCollection(context.Background(), DescriptionInput{Name: "X"})
		assert.Equal(t, "local", res.Source)
	}
	assert.Equal(t, 2, remote.calls)
	assert.Equal(t, infra.CBOpen, cb.State())
}

func TestHeuristic_SuggestMatchesCatalog(t *testing.T) {
	h := NewHeuristic()
	s := h.Suggest(TechcardInput{ProductName: "Шкаф распашной", FinishName: "Эмаль матовая", MaterialsCatalog: catalog})

	byArticle := map[string]SuggestedItem{}
	for _, it := range s.Items {
		byArticle[it.Article] = it
	}
	assert.Contains(t, byArticle, "LDSP-W16")
	assert.Contains(t, byArticle, "EDGE-2")
	assert.Equal(t, "4", byArticle["HNG-01"].Quantity.String())

	last := s.Items[len(s.Items)-1]
	assert.Equal(t, "Enamel paint", last.Name)
}

func TestHeuristic_AlwaysUsable(t *testing.T) {
	h := NewHeuristic()

	s := h.Suggest(TechcardInput{})
	require.Len(t, s.Items, len(defaultParts))
	for _, it := range s.Items {
		assert.Empty(t, it.Article)
		assert.True(t, it.Quantity.IsPositive())
	}

	d := h.Describe(DescriptionInput{})
	assert.NotEmpty(t, d.Description)

	d = h.Describe(DescriptionInput{Name: "Loft", Group: "living room", ProductNames: []string{"A", "B", "C", "D", " "}})
	assert.Contains(t, d.Description, "«Loft»")
	assert.Contains(t, d.Description, "and 1 more")

	raw, err := h.Generate(context.Background(), TaskCollectionDescription, DescriptionInput{Name: "Loft"})
	require.NoError(t, err)
	var out Description
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.Description)

	_, err = h.Generate(context.Background(), "other", nil)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(extractJSON("```json\n{\"a\":1}\n```")))
	assert.Equal(t, `{"a":1}`, string(extractJSON(` {"a":1} `)))
}

func TestBuildPrompt(t *testing.T) {
	p, err := buildPrompt(TaskTechcardSuggest, TechcardInput{ProductName: "Desk"})
	require.NoError(t, err)
	assert.Contains(t, p, `"productName":"Desk"`)

	_, err = buildPrompt("nope", nil)
	assert.Error(t, err)
}
