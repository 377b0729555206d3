package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

// fakeAPIs serves canned similarity and metadata responses.
func fakeAPIs(t *testing.T) (similarURL, metadataURL string) {
	t.Helper()

	similar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "Se7en":
			fmt.Fprint(w, `{"Similar":{"Info":[{"Name":"Se7en","Type":"movie"}],"Results":[`+
				`{"Name":"Zodiac","Type":"movie"},{"Name":"Fight Club","Type":"movie"}]}}`)
		case "Gone":
			fmt.Fprint(w, `{"Similar":{"Info":[],"Results":[{"Name":"Nowhere","Type":"movie"}]}}`)
		default:
			fmt.Fprint(w, `{"Similar":{"Info":[],"Results":[]}}`)
		}
	}))
	t.Cleanup(similar.Close)

	metadata := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "omdb-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("t") {
		case "Zodiac":
			fmt.Fprint(w, `{"Title":"Zodiac","Ratings":[{"Source":"Rotten Tomatoes","Value":"65%"}],"Response":"True"}`)
		case "Fight Club":
			fmt.Fprint(w, `{"Title":"Fight Club","Ratings":[{"Source":"Rotten Tomatoes","Value":"96%"}],"Response":"True"}`)
		default:
			fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
		}
	}))
	t.Cleanup(metadata.Close)

	return similar.URL, metadata.URL
}

// writeConfig writes a config file pointing at the given endpoints with caching disabled.
func writeConfig(t *testing.T, metadataURL, similarURL string) string {
	t.Helper()
	for _, env := range []string{"MOVIERANK_OMDB_API_KEY", "MOVIERANK_TASTEDIVE_API_KEY", "MOVIERANK_CACHE_BACKEND", "MOVIERANK_MAX_RESULTS"} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	content := fmt.Sprintf(`
omdb:
  api_key: omdb-key
  base_url: %s
tastedive:
  base_url: %s
cache:
  backend: none
app:
  log_level: error
  data_dir: %s
`, metadataURL, similarURL, dir)
	path := filepath.Join(dir, "movierank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecommend_Plain(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "recommend", "--plain", "Se7en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fight := strings.Index(out, "Fight Club")
	zodiac := strings.Index(out, "Zodiac")
	if fight < 0 || zodiac < 0 || fight > zodiac {
		t.Errorf("expected Fight Club before Zodiac, got:\n%s", out)
	}
	if !strings.Contains(out, "96%") || !strings.Contains(out, "65%") {
		t.Errorf("expected ratings in output:\n%s", out)
	}
}

func TestRecommend_JSON(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "recommend", "--json", "Se7en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res ranker.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if want := []core.Title{"Fight Club", "Zodiac"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("titles = %v, want %v", res.TitleNames(), want)
	}
}

func TestRecommend_LimitFlag(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "recommend", "--json", "--limit", "1", "Se7en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res ranker.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if want := []core.Title{"Fight Club"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("titles = %v, want %v", res.TitleNames(), want)
	}
}

func TestRecommend_SkippedExitsNonZero(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "recommend", "--plain", "Se7en, Gone")
	if !errors.Is(err, errSkipped) {
		t.Fatalf("expected errSkipped, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 title(s)") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if !strings.Contains(out, "Fight Club") || !strings.Contains(out, "Nowhere") {
		t.Errorf("expected results and skipped section, got:\n%s", out)
	}
}

func TestRecommend_PromptsOnStderr(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader("Se7en\n"))
	root.SetArgs([]string{"-c", path, "recommend", "--plain"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(errOut.String(), promptText) {
		t.Errorf("expected prompt on stderr, got %q", errOut.String())
	}
	if strings.Contains(out.String(), promptText) {
		t.Errorf("prompt must not be written to stdout:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Fight Club") {
		t.Errorf("expected ranked titles, got:\n%s", out.String())
	}
}

func TestRecommend_JSONFromStdin(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("Se7en\n"))
	root.SetArgs([]string{"-c", path, "recommend", "--json"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res ranker.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("stdout is not valid JSON %q: %v", out.String(), err)
	}
	if want := []core.Title{"Fight Club", "Zodiac"}; !reflect.DeepEqual(res.TitleNames(), want) {
		t.Errorf("titles = %v, want %v", res.TitleNames(), want)
	}
}

func TestRecommend_EmptyInput(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "recommend", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res ranker.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(res.Titles) != 0 {
		t.Errorf("expected no titles, got %v", res.Titles)
	}
}

func TestRecommend_NegativeLimit(t *testing.T) {
	_, err := runCLI(t, "recommend", "--limit", "-1", "Se7en")
	if err == nil || !strings.Contains(err.Error(), "--limit") {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []core.Title
	}{
		{"single", []string{"Se7en"}, []core.Title{"Se7en"}},
		{"quoted_titles", []string{"Black Panther", "Zodiac"}, []core.Title{"Black Panther", "Zodiac"}},
		{"comma_separated_arg", []string{"Black Panther, Zodiac"}, []core.Title{"Black Panther", "Zodiac"}},
		{"unquoted_with_commas", []string{"Black", "Panther,", "Captain", "Marvel"}, []core.Title{"Black Panther", "Captain Marvel"}},
		{"blank_entries", []string{" ", "Se7en"}, []core.Title{"Se7en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitArgs(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitArgs(%q) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestRenderResult(t *testing.T) {
	res := &ranker.Result{
		Titles: []core.RankedTitle{
			{Title: "Fight Club", Rating: 96, Known: true},
			{Title: "Mr. Brooks"},
		},
		Skipped: []core.SkippedTitle{{Title: "Nowhere", Stage: core.StageMetadata, Reason: "not found"}},
	}
	out := renderResult(res, "Rotten Tomatoes")
	for _, want := range []string{"Recommendations by Rotten Tomatoes", "Fight Club", "96%", "Mr. Brooks", "n/a", "Skipped:", "Nowhere", "metadata: not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := renderResult(&ranker.Result{}, "Rotten Tomatoes")
	if !strings.Contains(empty, "No related titles found.") {
		t.Errorf("unexpected empty output %q", empty)
	}
}

func staticRank(res *ranker.Result, err error) rankFunc {
	return func(context.Context, []core.Title) (*ranker.Result, error) { return res, err }
}

func TestRankModel_Init(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(&ranker.Result{}, nil), []core.Title{"Se7en"}, "Rotten Tomatoes")
	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return a batch command (spinner + rank)")
	}
}

func TestRankModel_RunRank(t *testing.T) {
	want := &ranker.Result{Titles: []core.RankedTitle{{Title: "Zodiac", Rating: 65, Known: true}}}
	m := newRankModel(context.Background(), staticRank(want, nil), []core.Title{"Se7en"}, "Rotten Tomatoes")

	msg, ok := m.runRank()().(rankResultMsg)
	if !ok {
		t.Fatal("runRank should produce a rankResultMsg")
	}
	if msg.res != want || msg.err != nil {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestRankModel_ReceiveResult(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(nil, nil), []core.Title{"Se7en"}, "Rotten Tomatoes")
	res := &ranker.Result{Titles: []core.RankedTitle{{Title: "Zodiac", Rating: 65, Known: true}}}

	updated, cmd := m.Update(rankResultMsg{res: res})
	rm := updated.(rankModel)

	if !rm.done {
		t.Error("should be done after result")
	}
	if rm.res != res || rm.err != nil {
		t.Errorf("unexpected model state %+v", rm)
	}
	if cmd == nil {
		t.Error("should return quit command")
	}
	if view := rm.View(); !strings.Contains(view, "Zodiac") {
		t.Errorf("done view should contain the result, got %q", view)
	}
}

func TestRankModel_ReceiveError(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(nil, nil), []core.Title{"Se7en"}, "Rotten Tomatoes")

	updated, _ := m.Update(rankResultMsg{err: errors.New("ranking aborted")})
	rm := updated.(rankModel)

	if !rm.done || rm.err == nil {
		t.Fatal("expected done model with error")
	}
	if view := rm.View(); !strings.Contains(view, "ranking aborted") {
		t.Errorf("error view should contain error message, got %q", view)
	}
}

func TestRankModel_CtrlC(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(nil, nil), nil, "Rotten Tomatoes")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c should return quit command")
	}
}

func TestRankModel_SpinnerUpdate(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(nil, nil), []core.Title{"Se7en"}, "Rotten Tomatoes")

	updated, cmd := m.Update(m.spinner.Tick())
	if updated.(rankModel).done {
		t.Error("spinner tick should not mark as done")
	}
	if cmd == nil {
		t.Error("spinner tick should return next tick command")
	}
}

func TestRankModel_ViewWhileLoading(t *testing.T) {
	m := newRankModel(context.Background(), staticRank(nil, nil), []core.Title{"Se7en", "Zodiac"}, "Rotten Tomatoes")
	if view := m.View(); !strings.Contains(view, "Se7en, Zodiac") {
		t.Errorf("loading view should name the seeds, got %q", view)
	}
}

func TestSimilarCommand(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "similar", "Se7en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := strings.TrimSpace(out), "Zodiac\nFight Club"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	out, err = runCLI(t, "-c", path, "similar", "Unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No similar titles found.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRatingCommand(t *testing.T) {
	similarURL, metadataURL := fakeAPIs(t)
	path := writeConfig(t, metadataURL, similarURL)

	out, err := runCLI(t, "-c", path, "rating", "Fight", "Club")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Fight Club", "96%", "Rotten Tomatoes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	_, err = runCLI(t, "-c", path, "rating", "Nowhere")
	if !errors.Is(err, core.ErrLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}
}
