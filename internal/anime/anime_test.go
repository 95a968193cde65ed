package anime

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"malplaylist/internal/cache"
	"malplaylist/internal/core"
	"malplaylist/internal/mal"
	"malplaylist/internal/search"
)

func exampleDetail() *mal.Detail {
	return &mal.Detail{
		ID:    42,
		Title: "Example Anime",
		MainPicture: mal.Picture{
			Medium: "https://img/medium.jpg",
			Large:  "https://img/large.jpg",
		},
		OpeningThemes: []mal.Theme{
			{ID: 100, AnimeID: 42, Text: `#1: "Soundtrack One" by Artist A (ep 1-12)`},
		},
		EndingThemes: []mal.Theme{
			{ID: 101, AnimeID: 42, Text: `"Closing Song" by Artist B`},
		},
	}
}

func TestNewAnime(t *testing.T) {
	links := []string{
		"https://v.animethemes.moe/op1.webm",
		"https://v.animethemes.moe/ed1.webm",
	}
	a := NewAnime(exampleDetail(), links)

	if a.Picture != "https://img/medium.jpg" {
		t.Errorf("Picture = %q, want medium preferred", a.Picture)
	}

	if len(a.OpeningThemes) != 1 || len(a.EndingThemes) != 1 {
		t.Fatalf("themes = %d openings, %d endings", len(a.OpeningThemes), len(a.EndingThemes))
	}

	op := a.OpeningThemes[0]
	if op.Name != "Soundtrack One" {
		t.Errorf("Name = %q", op.Name)
	}
	if op.Artist == nil || *op.Artist != "Artist A" {
		t.Errorf("Artist = %v", op.Artist)
	}
	if op.Episode == nil || *op.Episode != "ep 1-12" {
		t.Errorf("Episode = %v", op.Episode)
	}
	if op.ATURL != "https://v.animethemes.moe/op1.webm" {
		t.Errorf("opening ATURL = %q", op.ATURL)
	}
	if ed := a.EndingThemes[0]; ed.ATURL != "https://v.animethemes.moe/ed1.webm" {
		t.Errorf("ending ATURL = %q", ed.ATURL)
	}
}

func TestNewAnime_PictureFallsBackToLarge(t *testing.T) {
	detail := exampleDetail()
	detail.MainPicture.Medium = ""

	if a := NewAnime(detail, nil); a.Picture != "https://img/large.jpg" {
		t.Errorf("Picture = %q, want large fallback", a.Picture)
	}
}

func TestNewAnime_ShortVideoLinks(t *testing.T) {
	// Only one link for two themes; the second stays empty.
	a := NewAnime(exampleDetail(), []string{"https://v.animethemes.moe/op1.webm"})

	if a.OpeningThemes[0].ATURL == "" {
		t.Error("opening ATURL should be set")
	}
	if a.EndingThemes[0].ATURL != "" {
		t.Errorf("ending ATURL = %q, want empty", a.EndingThemes[0].ATURL)
	}
}

type fakeListSource struct {
	entries []mal.ListEntry
}

func (f *fakeListSource) Get(_ context.Context, _ string, _ bool) ([]mal.ListEntry, error) {
	return f.entries, nil
}

type fakeDetailSource struct {
	details map[int]*mal.Detail
}

func (f *fakeDetailSource) Get(_ context.Context, id int) (*mal.Detail, error) {
	detail, ok := f.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return detail, nil
}

type fakeVideoSource struct{}

func (fakeVideoSource) VideoLinks(_ context.Context, _ int) ([]string, error) {
	return nil, nil
}

func TestBuilder_ReversesToOldestFirst(t *testing.T) {
	lists := &fakeListSource{entries: []mal.ListEntry{
		{ID: 3, Title: "Newest"},
		{ID: 2, Title: "Middle"},
		{ID: 1, Title: "Oldest"},
	}}
	details := &fakeDetailSource{details: map[int]*mal.Detail{
		1: {ID: 1, Title: "Oldest"},
		2: {ID: 2, Title: "Middle"},
		3: {ID: 3, Title: "Newest"},
	}}

	builder := NewBuilder(lists, details, fakeVideoSource{}, zap.NewNop())

	list, err := builder.Build(context.Background(), "someone", false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var titles []string
	for _, a := range list.Anime {
		titles = append(titles, a.Title)
	}
	if want := []string{"Oldest", "Middle", "Newest"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestBuilder_SkipsFailedDetail(t *testing.T) {
	lists := &fakeListSource{entries: []mal.ListEntry{
		{ID: 42, Title: "Example Anime"},
		{ID: 99, Title: "Broken Anime"},
	}}
	details := &fakeDetailSource{details: map[int]*mal.Detail{
		42: exampleDetail(),
	}}

	builder := NewBuilder(lists, details, nil, zap.NewNop())

	list, err := builder.Build(context.Background(), "someone", false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(list.Anime) != 1 || list.Anime[0].ID != 42 {
		t.Errorf("Anime = %#v, want only ID 42", list.Anime)
	}
}

// fakeStrategy records searches and serves canned references.
type fakeStrategy struct {
	service  core.Service
	searches int
	refs     map[string]string
	err      error
}

func (f *fakeStrategy) Service() core.Service {
	return f.service
}

func (f *fakeStrategy) Search(_ context.Context, songName, _, _ string) (string, error) {
	f.searches++
	if f.err != nil {
		return "", f.err
	}
	ref, ok := f.refs[songName]
	if !ok {
		return "", search.ErrNotFound
	}
	return ref, nil
}

func (f *fakeStrategy) QueryURL(songName, artist string) string {
	return "https://www.youtube.com/results?search_query=" + songName
}

func newTestStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewFileStore(filepath.Join(t.TempDir(), "youtube.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

func TestResolver_ResolveSong(t *testing.T) {
	strategy := &fakeStrategy{
		service: core.ServiceYouTube,
		refs: map[string]string{
			"Soundtrack One": "https://www.youtube.com/watch?v=abcdefghijk",
		},
	}
	resolver := NewResolver(strategy, newTestStore(t), nil, 1, zap.NewNop())

	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `#1: "Soundtrack One" by Artist A (ep 1-12)`})

	outcome, err := resolver.ResolveSong(context.Background(), song, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if outcome != OutcomeResolved {
		t.Errorf("outcome = %v, want resolved", outcome)
	}
	if song.YTURL != "https://www.youtube.com/watch?v=abcdefghijk" {
		t.Errorf("YTURL = %q", song.YTURL)
	}
	if song.YTID != "abcdefghijk" {
		t.Errorf("YTID = %q", song.YTID)
	}
	if song.YTQuery == "" {
		t.Error("YTQuery should be set")
	}

	// Repeated resolution must not search again.
	for i := 0; i < 3; i++ {
		if _, err := resolver.ResolveSong(context.Background(), song, "Example Anime"); err != nil {
			t.Fatalf("ResolveSong() error = %v", err)
		}
	}
	if strategy.searches != 1 {
		t.Errorf("searches = %d, want 1", strategy.searches)
	}
}

func TestResolver_CacheHitSkipsSearch(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put("100", "https://www.youtube.com/watch?v=cachedvalue"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	strategy := &fakeStrategy{service: core.ServiceYouTube}
	resolver := NewResolver(strategy, store, nil, 1, zap.NewNop())

	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})

	outcome, err := resolver.ResolveSong(context.Background(), song, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if outcome != OutcomeResolved {
		t.Errorf("outcome = %v", outcome)
	}
	if song.YTURL != "https://www.youtube.com/watch?v=cachedvalue" {
		t.Errorf("YTURL = %q", song.YTURL)
	}
	if strategy.searches != 0 {
		t.Errorf("searches = %d, want 0", strategy.searches)
	}
}

func TestResolver_NotFoundIsCached(t *testing.T) {
	store := newTestStore(t)
	strategy := &fakeStrategy{service: core.ServiceYouTube}
	resolver := NewResolver(strategy, store, nil, 1, zap.NewNop())

	first := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})
	outcome, err := resolver.ResolveSong(context.Background(), first, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if outcome != OutcomeNotFound {
		t.Errorf("outcome = %v, want not_found", outcome)
	}

	// A second song object with the same ID (fresh process, same cache)
	// must hit the cached miss, not search again.
	second := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})
	outcome, err = resolver.ResolveSong(context.Background(), second, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if outcome != OutcomeNotFound {
		t.Errorf("outcome = %v, want not_found", outcome)
	}
	if strategy.searches != 1 {
		t.Errorf("searches = %d, want 1", strategy.searches)
	}
}

func TestResolver_HardErrorIsNotCached(t *testing.T) {
	store := newTestStore(t)
	strategy := &fakeStrategy{service: core.ServiceYouTube, err: errors.New("dns failure")}
	resolver := NewResolver(strategy, store, nil, 1, zap.NewNop())

	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})

	outcome, err := resolver.ResolveSong(context.Background(), song, "Example Anime")
	if err == nil {
		t.Fatal("ResolveSong() expected error")
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want failed", outcome)
	}
	if _, ok := store.Get("100"); ok {
		t.Error("hard failure must not be cached")
	}

	// The song stays retryable: once the backend recovers it resolves.
	strategy.err = nil
	strategy.refs = map[string]string{"Soundtrack One": "https://www.youtube.com/watch?v=abcdefghijk"}

	outcome, err = resolver.ResolveSong(context.Background(), song, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() after recovery error = %v", err)
	}
	if outcome != OutcomeResolved {
		t.Errorf("outcome = %v, want resolved", outcome)
	}
}

func TestResolver_SkipsUnnamedSong(t *testing.T) {
	store := newTestStore(t)
	strategy := &fakeStrategy{service: core.ServiceYouTube}
	resolver := NewResolver(strategy, store, nil, 1, zap.NewNop())

	song := &ThemeSong{ID: 100, AnimeID: 42, Text: "garbage"}

	outcome, err := resolver.ResolveSong(context.Background(), song, "Example Anime")
	if err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("outcome = %v, want skipped", outcome)
	}
	if strategy.searches != 0 {
		t.Errorf("searches = %d, want 0", strategy.searches)
	}
	if _, ok := store.Get("100"); ok {
		t.Error("skipped songs must not write cache entries")
	}
}

func TestResolver_UnknownNameStillSearches(t *testing.T) {
	// Degraded parses keep the Unknown placeholder, which is still a
	// searchable name.
	store := newTestStore(t)
	strategy := &fakeStrategy{service: core.ServiceYouTube}
	resolver := NewResolver(strategy, store, nil, 1, zap.NewNop())

	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: "no quotes in here"})
	if song.Name != "Unknown" {
		t.Fatalf("Name = %q, want Unknown", song.Name)
	}

	if _, err := resolver.ResolveSong(context.Background(), song, "Example Anime"); err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if strategy.searches != 1 {
		t.Errorf("searches = %d, want 1", strategy.searches)
	}
}

func TestResolver_SpotifyFields(t *testing.T) {
	strategy := &fakeStrategy{
		service: core.ServiceSpotify,
		refs:    map[string]string{"Soundtrack One": "spotify:track:4uLU6hMCjMI75M1A2tKUQC"},
	}
	resolver := NewResolver(strategy, newTestStore(t), nil, 1, zap.NewNop())

	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})

	if _, err := resolver.ResolveSong(context.Background(), song, "Example Anime"); err != nil {
		t.Fatalf("ResolveSong() error = %v", err)
	}
	if song.SpotifyURI != "spotify:track:4uLU6hMCjMI75M1A2tKUQC" {
		t.Errorf("SpotifyURI = %q", song.SpotifyURI)
	}
	if song.YTURL != "" || song.YTQuery != "" {
		t.Errorf("YouTube fields must stay empty in Spotify mode: %q %q", song.YTURL, song.YTQuery)
	}
}

func TestResolver_ResolveAll(t *testing.T) {
	strategy := &fakeStrategy{
		service: core.ServiceYouTube,
		refs: map[string]string{
			"Soundtrack One": "https://www.youtube.com/watch?v=abcdefghijk",
		},
	}
	resolver := NewResolver(strategy, newTestStore(t), nil, 2, zap.NewNop())

	list := &AnimeList{
		Username: "someone",
		Anime: []*Anime{
			NewAnime(exampleDetail(), nil),
			{
				ID:    7,
				Title: "Other Anime",
				OpeningThemes: []*ThemeSong{
					{ID: 200, AnimeID: 7, Text: "garbage"},
				},
			},
		},
	}

	summary := resolver.ResolveAll(context.Background(), list)

	// "Soundtrack One" resolves, "Closing Song" is not in the fake backend,
	// the unnamed song is skipped.
	want := Summary{Resolved: 1, NotFound: 1, Skipped: 1}
	if summary != want {
		t.Errorf("Summary = %+v, want %+v", summary, want)
	}
}

func TestEncode_Filtering(t *testing.T) {
	song := NewThemeSong(mal.Theme{ID: 100, AnimeID: 42, Text: `"Soundtrack One" by Artist A`})

	t.Run("include wins over exclude", func(t *testing.T) {
		opts := DefaultEncodeOptions()
		opts.ThemeInclude = []string{"id", "name"}
		opts.ThemeExclude = []string{"id"}

		got := song.Encode(opts)
		want := map[string]any{"id": 100, "name": "Soundtrack One"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Encode() = %#v, want %#v", got, want)
		}
	})

	t.Run("exclude drops fields", func(t *testing.T) {
		opts := DefaultEncodeOptions()
		opts.ThemeExclude = []string{"text", "yt_id", "yt_url", "yt_query", "at_url", "spotify_uri"}

		got := song.Encode(opts)
		if _, ok := got["text"]; ok {
			t.Error("text should be excluded")
		}
		if got["name"] != "Soundtrack One" {
			t.Errorf("name = %v", got["name"])
		}
	})

	t.Run("include_null false drops absent optionals", func(t *testing.T) {
		opts := DefaultEncodeOptions()
		opts.IncludeNull = false

		got := song.Encode(opts)
		if _, ok := got["index"]; ok {
			t.Error("nil index should be dropped")
		}
		if _, ok := got["episode"]; ok {
			t.Error("nil episode should be dropped")
		}
		if got["artist"] != "Artist A" {
			t.Errorf("artist = %v", got["artist"])
		}
	})

	t.Run("default keeps nulls", func(t *testing.T) {
		got := song.Encode(DefaultEncodeOptions())
		if value, ok := got["index"]; !ok || value != nil {
			t.Errorf("index = %v, present = %v; want explicit null", value, ok)
		}
	})
}

func TestEncode_RoundTrip(t *testing.T) {
	list := &AnimeList{
		Username: "someone",
		Anime:    []*Anime{NewAnime(exampleDetail(), []string{"https://v.animethemes.moe/op1.webm"})},
	}
	list.Anime[0].OpeningThemes[0].YTURL = "https://www.youtube.com/watch?v=abcdefghijk"
	list.Anime[0].OpeningThemes[0].YTID = "abcdefghijk"

	data, err := json.Marshal(list.Encode(DefaultEncodeOptions()))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	decoded, err := DecodeAnimeList(data)
	if err != nil {
		t.Fatalf("DecodeAnimeList() error = %v", err)
	}

	if decoded.Username != "someone" {
		t.Errorf("Username = %q", decoded.Username)
	}
	if len(decoded.Anime) != 1 {
		t.Fatalf("Anime = %d", len(decoded.Anime))
	}

	got := decoded.Anime[0].OpeningThemes[0]
	original := list.Anime[0].OpeningThemes[0]
	if got.ID != original.ID || got.Name != original.Name || got.YTURL != original.YTURL {
		t.Errorf("round trip mismatch: %+v vs %+v", got, original)
	}
	if got.Artist == nil || *got.Artist != "Artist A" {
		t.Errorf("Artist = %v", got.Artist)
	}
	if got.ATURL != "https://v.animethemes.moe/op1.webm" {
		t.Errorf("ATURL = %q", got.ATURL)
	}
}
