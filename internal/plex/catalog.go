package plex

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
)

// sampleSize bounds how many entries of a candidate array are scored.
const sampleSize = 10

// ExtractPlaylists finds the array of playlists in an arbitrary JSON
// document and returns summaries deduplicated by id.
func ExtractPlaylists(root any) []core.PlaylistSummary {
	var candidates [][]any
	if arr, ok := root.([]any); ok {
		candidates = append(candidates, arr)
	}
	if obj, ok := root.(map[string]any); ok {
		for _, key := range []string{"playlists", "items", "results"} {
			if arr, ok := obj[key].([]any); ok {
				candidates = append(candidates, arr)
			}
		}
	}
	candidates = append(candidates, deepArrays(root)...)

	best := bestCandidate(candidates, func(sample []any) float64 {
		var score float64
		for _, it := range sample {
			obj, _ := it.(map[string]any)
			if firstString(obj, "title", "name") != "" {
				score++
			}
			if firstString(obj, "id", "key", "ratingKey", "guid") != "" {
				score++
			}
		}
		return score
	})

	out := lo.Map(best, func(it any, i int) core.PlaylistSummary {
		obj, _ := it.(map[string]any)
		id := firstString(obj, "id", "key", "ratingKey", "guid")
		if id == "" {
			id = fmt.Sprintf("pl-%d", i)
		}
		title := firstString(obj, "title", "name")
		if title == "" {
			title = fmt.Sprintf("Playlist %d", i+1)
		}
		return core.PlaylistSummary{ID: id, Title: title}
	})
	return lo.UniqBy(out, func(p core.PlaylistSummary) string { return p.ID })
}

// ExtractPlaylist finds the most track-like array in an arbitrary JSON
// document and normalizes it. Entries without an identifier are dropped and
// recorded as errors on the result.
func ExtractPlaylist(root any, apiBase string) *perrors.PartialResult[*core.Playlist] {
	var candidates [][]any
	if arr, ok := root.([]any); ok {
		candidates = append(candidates, arr)
	}
	obj, _ := root.(map[string]any)
	keys := []string{"items", "tracks", "entries", "results"}
	for _, key := range keys {
		if arr, ok := obj[key].([]any); ok {
			candidates = append(candidates, arr)
		}
	}
	nested, _ := obj["playlist"].(map[string]any)
	for _, key := range keys {
		if arr, ok := nested[key].([]any); ok {
			candidates = append(candidates, arr)
		}
	}
	candidates = append(candidates, deepArrays(root)...)

	best := bestCandidate(candidates, func(sample []any) float64 {
		var sum float64
		for _, it := range sample {
			sum += scoreTrackLike(it)
		}
		return sum / float64(len(sample))
	})

	title := firstString(obj, "title", "name")
	if title == "" {
		title = firstString(nested, "title", "name")
	}

	result := &perrors.PartialResult[*core.Playlist]{
		Data: &core.Playlist{Title: title, Tracks: make([]*core.Track, 0, len(best))},
	}
	for i, it := range best {
		track := NormalizeTrack(it, i, apiBase)
		if !track.Playable() {
			result.AddError(fmt.Errorf("entry %d (%q): no track id", i+1, track.Title))
			continue
		}
		result.Data.Tracks = append(result.Data.Tracks, track)
	}
	return result
}

// NormalizeTrack converts one catalog entry into a Track. Fields are read from
// the entry itself and then from a nested "raw" object.
func NormalizeTrack(item any, i int, apiBase string) *core.Track {
	obj, _ := item.(map[string]any)
	raw, _ := obj["raw"].(map[string]any)

	pick := func(keys ...string) string {
		if s := firstString(obj, keys...); s != "" {
			return s
		}
		return firstString(raw, keys...)
	}

	id := pick("id", "ratingKey", "key", "guid")
	title := strings.TrimSpace(pick("title", "name", "track"))
	if title == "" {
		title = fmt.Sprintf("Track %d", i+1)
	}

	cover := firstString(obj, "coverUrl")
	if cover == "" {
		cover = ProxiedPlexURL(pick("artUrl", "thumb", "image", "art"))
	}

	hint := pick("streamUrl", "src", "url", "mediaUrl", "href")
	if hint != "" {
		hint = ProxiedStreamURL(apiBase, hint, id)
	}

	return &core.Track{
		ID:         id,
		Title:      title,
		Artist:     pick("artist", "artistName"),
		Album:      pick("album"),
		CoverURL:   cover,
		StreamHint: hint,
	}
}

func scoreTrackLike(v any) float64 {
	o, ok := v.(map[string]any)
	if !ok {
		return -10
	}
	var s float64
	if has(o, "title", "name", "track") {
		s += 2
	}
	if has(o, "artist", "artistName", "album") {
		s++
	}
	if has(o, "streamUrl", "url", "mediaUrl", "href") {
		s += 3
	}
	if has(o, "id", "key", "ratingKey", "guid") {
		s += 1.5
	}
	if _, ok := o["duration"].(json.Number); ok {
		s += 0.5
	}
	if _, ok := o["duration"].(float64); ok {
		s += 0.5
	}
	return s
}

// bestCandidate returns the first non-empty array with the highest score
// over its leading sample.
func bestCandidate(candidates [][]any, score func(sample []any) float64) []any {
	var best []any
	bestScore := 0.0
	for _, arr := range candidates {
		if len(arr) == 0 {
			continue
		}
		sample := arr[:min(sampleSize, len(arr))]
		s := score(sample)
		if best == nil || s > bestScore {
			best, bestScore = arr, s
		}
	}
	return best
}

// deepArrays collects every non-empty array reachable through objects, in
// key order. Arrays are collected but not descended into.
func deepArrays(root any) [][]any {
	var out [][]any
	var visit func(v any)
	visit = func(v any) {
		switch x := v.(type) {
		case []any:
			if len(x) > 0 {
				out = append(out, x)
			}
		case map[string]any:
			keys := make([]string, 0, len(x))
			for k := range x {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				visit(x[k])
			}
		}
	}

	if arr, ok := root.([]any); ok {
		for _, el := range arr {
			visit(el)
		}
		return out
	}
	visit(root)
	return out
}

func has(o map[string]any, keys ...string) bool {
	return firstString(o, keys...) != ""
}

// firstString returns the first key whose value renders to a non-empty string.
func firstString(o map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringify(o[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
	}
	return ""
}
