package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkeeling/kith/internal/config"
	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/internal/llm"
	"github.com/rkeeling/kith/internal/notify"
	"github.com/rkeeling/kith/internal/server"
	"github.com/rkeeling/kith/internal/storage/sqlite"
	"github.com/rkeeling/kith/pkg/types"
	"github.com/rkeeling/kith/web/handlers"
)

// stubExtractor returns canned results instead of calling a provider.
type stubExtractor struct {
	candidate      *types.Candidate
	disambiguation *types.Disambiguation
	err            error
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ *llm.PersonContext) (*types.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	// Extraction responses are consumed and modified by the resolver path;
	// hand out a copy.
	c := *s.candidate
	return &c, nil
}

func (s *stubExtractor) Disambiguate(_ context.Context, _ string, _ []*types.Person) (*types.Disambiguation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.disambiguation, nil
}

type testEnv struct {
	server    *httptest.Server
	engine    *engine.Engine
	extractor *stubExtractor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	notifier := notify.NewReminderNotifier(t.TempDir())
	eng, err := engine.New(store, notifier, nil, engine.Config{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 6464
	cfg.Security.SecurityMode = "development"

	extractor := &stubExtractor{}
	hub := handlers.NewWebSocketHub(cfg.Server.Host, cfg.Server.Port)
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := server.NewRouter(cfg, eng, extractor, hub)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, engine: eng, extractor: extractor}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPersonLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/persons", map[string]string{
		"first_name": "Léa",
		"last_name":  "Dupont",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var person types.Person
	decodeBody(t, resp, &person)
	require.NotEmpty(t, person.ID)
	assert.Equal(t, "Léa", person.FirstName)

	resp = env.do(t, http.MethodGet, "/api/persons/"+person.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got handlers.PersonResponse
	decodeBody(t, resp, &got)
	assert.Equal(t, person.ID, got.ID)

	resp = env.do(t, http.MethodPatch, "/api/persons/"+person.ID, map[string]string{
		"nickname": "Ecorp",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated types.Person
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Ecorp", updated.Nickname)
	assert.Equal(t, "Léa", updated.FirstName)

	resp = env.do(t, http.MethodGet, "/api/persons?search=dupont", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items []types.Person `json:"Items"`
		Total int            `json:"Total"`
	}
	decodeBody(t, resp, &page)
	assert.Equal(t, 1, page.Total)
}

func TestCreatePersonRequiresFirstName(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/persons", map[string]string{"last_name": "Dupont"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetPersonNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/persons/nope", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommitNewPersonFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/commit", map[string]interface{}{
		"first_name": "Marco",
		"last_name":  "Rossi",
		"transcript": "met Marco at the climbing gym",
		"facts": []map[string]string{
			{"category": "hobby", "label": "Hobby", "value": "climbing", "action": "add"},
		},
		"topics": []map[string]string{
			{"title": "Ask about the competition"},
		},
		"groups": []map[string]string{
			{"name": "Climbing", "source_fact_category": "hobby"},
		},
		"contact_info": map[string]string{"phone": "+39 333 1234567"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report engine.CommitReport
	decodeBody(t, resp, &report)
	assert.True(t, report.PersonCreated)
	assert.NotEmpty(t, report.NoteID)
	assert.Equal(t, 1, report.FactsWritten)
	assert.Equal(t, 1, report.TopicsCreated)
	assert.Equal(t, 1, report.GroupsBound)
	assert.Empty(t, report.Errors)

	resp = env.do(t, http.MethodGet, "/api/persons/"+report.PersonID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var person handlers.PersonResponse
	decodeBody(t, resp, &person)
	assert.Equal(t, "+39 333 1234567", person.Phone)
	require.Len(t, person.Groups, 1)
	assert.Equal(t, "Climbing", person.Groups[0].Name)

	resp = env.do(t, http.MethodGet, "/api/persons/"+report.PersonID+"/facts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var facts []types.Fact
	decodeBody(t, resp, &facts)
	require.Len(t, facts, 1)
	assert.Equal(t, report.NoteID, facts[0].NoteID)
}

func TestCommitUnknownPerson(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/commit", map[string]interface{}{
		"person_id":  "missing",
		"transcript": "hello",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTopicResolveAndReopen(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/commit", map[string]interface{}{
		"first_name": "Ana",
		"transcript": "Ana is preparing for surgery",
		"topics":     []map[string]string{{"title": "Surgery recovery"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report engine.CommitReport
	decodeBody(t, resp, &report)

	resp = env.do(t, http.MethodGet, "/api/persons/"+report.PersonID+"/topics?status=active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var topics []types.Topic
	decodeBody(t, resp, &topics)
	require.Len(t, topics, 1)
	topicID := topics[0].ID

	resp = env.do(t, http.MethodPost, "/api/topics/"+topicID+"/resolve", map[string]string{
		"resolution": "healed well",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var topic types.Topic
	decodeBody(t, resp, &topic)
	assert.Equal(t, types.TopicResolved, topic.Status)
	assert.Equal(t, "healed well", topic.Resolution)
	assert.NotNil(t, topic.ResolvedAt)

	resp = env.do(t, http.MethodPost, "/api/topics/"+topicID+"/reopen", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &topic)
	assert.Equal(t, types.TopicActive, topic.Status)
	// Reopening keeps the stale resolution text until the next resolve.
	assert.Equal(t, "healed well", topic.Resolution)

	resp = env.do(t, http.MethodPost, "/api/topics/"+topicID+"/resolve", map[string]string{"resolution": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGroupEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/groups", map[string]string{"name": "Book Club"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var group types.Group
	decodeBody(t, resp, &group)
	require.NotEmpty(t, group.ID)

	// Case-insensitive duplicate resolves to the same group.
	resp = env.do(t, http.MethodPost, "/api/groups", map[string]string{"name": "book club"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again types.Group
	decodeBody(t, resp, &again)
	assert.Equal(t, group.ID, again.ID)

	resp = env.do(t, http.MethodGet, "/api/groups", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []types.Group
	decodeBody(t, resp, &groups)
	assert.Len(t, groups, 1)
}

func TestExtractUnboundResolvesContact(t *testing.T) {
	env := newTestEnv(t)
	env.extractor.candidate = &types.Candidate{
		ContactIdentified: types.ContactIdentified{
			FirstName:  "Léa",
			Confidence: types.ConfidenceHigh,
		},
		Facts: []types.CandidateFact{
			{Category: types.CategoryCompany, Label: "Employer", Value: "Ecorp", Action: types.ActionAdd},
		},
		SuggestedGroups: []types.GroupSuggestion{
			{Name: "Ecorp", SourceCategory: types.CategoryCompany},
		},
	}

	resp := env.do(t, http.MethodPost, "/api/extract", map[string]string{
		"transcript": "talked to Léa from Ecorp",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result handlers.ExtractResponse
	decodeBody(t, resp, &result)
	require.NotNil(t, result.Resolution)
	assert.Equal(t, "new", result.Resolution.Kind)
	require.Len(t, result.Candidate.SuggestedGroups, 1)
	assert.Empty(t, result.Candidate.SuggestedGroups[0].GroupID)
}

func TestExtractBoundPersonDropsSuggestions(t *testing.T) {
	env := newTestEnv(t)

	create := env.do(t, http.MethodPost, "/api/persons", map[string]string{"first_name": "Léa"})
	require.Equal(t, http.StatusCreated, create.StatusCode)
	var person types.Person
	decodeBody(t, create, &person)

	env.extractor.candidate = &types.Candidate{
		ContactIdentified: types.ContactIdentified{FirstName: "Léa", Confidence: types.ConfidenceHigh},
		SuggestedGroups: []types.GroupSuggestion{
			{Name: "Ecorp", SourceCategory: types.CategoryCompany},
		},
	}

	resp := env.do(t, http.MethodPost, "/api/extract", map[string]string{
		"transcript": "update on Léa",
		"person_id":  person.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result handlers.ExtractResponse
	decodeBody(t, resp, &result)
	assert.Nil(t, result.Resolution)
	assert.Empty(t, result.Candidate.SuggestedGroups)
}

func TestExtractDropsNoOpUpdateFacts(t *testing.T) {
	env := newTestEnv(t)

	create := env.do(t, http.MethodPost, "/api/persons", map[string]string{"first_name": "Léa"})
	require.Equal(t, http.StatusCreated, create.StatusCode)
	var person types.Person
	decodeBody(t, create, &person)

	env.extractor.candidate = &types.Candidate{
		ContactIdentified: types.ContactIdentified{FirstName: "Léa", Confidence: types.ConfidenceHigh},
		Facts: []types.CandidateFact{
			{Category: types.CategoryCompany, Label: "Employer", Value: "Acme",
				Action: types.ActionUpdate, PreviousValue: "acme"},
			{Category: types.CategoryHobby, Label: "Hobby", Value: "climbing", Action: types.ActionAdd},
		},
	}

	resp := env.do(t, http.MethodPost, "/api/extract", map[string]string{
		"transcript": "Léa still works at Acme and took up climbing",
		"person_id":  person.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result handlers.ExtractResponse
	decodeBody(t, resp, &result)
	// The case-insensitive-unchanged update never reaches the reviewer.
	require.Len(t, result.Candidate.Facts, 1)
	assert.Equal(t, "climbing", result.Candidate.Facts[0].Value)
}

func TestExtractRequiresTranscript(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/extract", map[string]string{"transcript": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisambiguateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.extractor.disambiguation = &types.Disambiguation{
		FirstName:  "Marco",
		Confidence: types.ConfidenceHigh,
		IsNew:      true,
	}

	resp := env.do(t, http.MethodPost, "/api/disambiguate", map[string]string{
		"transcript": "catch up with Marco",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result types.Disambiguation
	decodeBody(t, resp, &result)
	assert.True(t, result.IsNew)
	assert.Equal(t, "Marco", result.FirstName)
}

func TestSimilarityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/similarity", map[string]interface{}{
		"values":    []string{"Acme Corp", "Acme Corporation", "Globex"},
		"threshold": 0.3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result handlers.SimilarityResponse
	decodeBody(t, resp, &result)
	require.NotEmpty(t, result.Pairs)
	assert.Equal(t, "Acme Corp", result.Pairs[0].A)
}

func TestSimilarityNeedsTwoValues(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/similarity", map[string]interface{}{
		"values": []string{"one"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductionModeRequiresToken(t *testing.T) {
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(store, notify.NewReminderNotifier(t.TempDir()), nil, engine.Config{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 6464
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"

	hub := handlers.NewWebSocketHub(cfg.Server.Host, cfg.Server.Port)
	go hub.Run()
	t.Cleanup(hub.Stop)

	ts := httptest.NewServer(server.NewRouter(cfg, eng, &stubExtractor{}, hub))
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/groups")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/groups", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open without a token.
	resp, err = http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestImportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	cardPath := fmt.Sprintf("%s/ana.md", dir)
	require.NoError(t, os.WriteFile(cardPath, []byte("---\nname: Ana Silva\n---\n"), 0o644))

	resp := env.do(t, http.MethodPost, "/api/import/roster", map[string]string{"path": dir})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started handlers.ImportResponse
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.JobID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp = env.do(t, http.MethodGet, "/api/import/status/"+started.JobID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var status struct {
			Progress struct {
				Status string `json:"status"`
			} `json:"progress"`
		}
		decodeBody(t, resp, &status)
		if status.Progress.Status != "running" {
			assert.Equal(t, "complete", status.Progress.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("import did not finish in time")
		}
		time.Sleep(150 * time.Millisecond)
	}

	resp = env.do(t, http.MethodGet, "/api/persons?search=silva", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total int `json:"Total"`
	}
	decodeBody(t, resp, &page)
	assert.Equal(t, 1, page.Total)
}
