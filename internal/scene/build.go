package scene

import (
	"math"
	"sort"

	"github.com/keagan/reelsense/internal/timeline"
)

// BuildScenes turns raw change points (seconds) into scenes that partition [0, duration].
// Points outside (0, duration) are ignored, points closer than MinSceneGap to the previous
// kept point are dropped, and segments shorter than MinSceneLength are folded into the
// preceding scene. The first segment has no predecessor and folds forward instead.
func BuildScenes(changes []float64, duration float64, cfg Config) []timeline.Scene {
	if duration <= 0 {
		return nil
	}

	points := make([]float64, 0, len(changes))
	for _, p := range changes {
		if p > 0 && p < duration && !math.IsNaN(p) {
			points = append(points, p)
		}
	}
	sort.Float64s(points)

	bounds := []float64{0}
	for _, p := range points {
		if p-bounds[len(bounds)-1] < cfg.MinSceneGap {
			continue
		}
		bounds = append(bounds, p)
	}

	type span struct{ start, end float64 }
	var spans []span
	for i, start := range bounds {
		end := duration
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		if len(spans) > 0 && end-start < cfg.MinSceneLength {
			spans[len(spans)-1].end = end
			continue
		}
		spans = append(spans, span{start, end})
	}

	// a short leading span is merged into its successor
	if len(spans) > 1 && spans[0].end-spans[0].start < cfg.MinSceneLength {
		spans[1].start = spans[0].start
		spans = spans[1:]
	}

	scenes := make([]timeline.Scene, len(spans))
	for i, s := range spans {
		scenes[i] = timeline.Scene{
			ID:       i,
			Start:    s.start,
			End:      s.end,
			Duration: s.end - s.start,
		}
	}
	return scenes
}

// SampleKeyFrames picks sampling timestamps inside each scene, away from its edges.
// Each scene gets min(MaxFramesPerScene, max(1, FrameBudget/len(scenes))) frames, so
// a video with more scenes than FrameBudget still gets one frame per scene.
func SampleKeyFrames(scenes []timeline.Scene, cfg SamplingConfig) []timeline.KeyFrame {
	if len(scenes) == 0 {
		return nil
	}

	perScene := 1
	if cfg.FrameBudget > 0 {
		perScene = cfg.FrameBudget / len(scenes)
	}
	if perScene < 1 {
		perScene = 1
	}
	if cfg.MaxFramesPerScene > 0 && perScene > cfg.MaxFramesPerScene {
		perScene = cfg.MaxFramesPerScene
	}

	frames := make([]timeline.KeyFrame, 0, perScene*len(scenes))
	for _, sc := range scenes {
		margin := sc.Duration * cfg.EdgeMargin
		start := sc.Start + margin
		usable := sc.Duration - 2*margin
		if usable <= 0 {
			start, usable = sc.Start, sc.Duration
		}

		if perScene == 1 {
			frames = append(frames, timeline.KeyFrame{
				SceneID:   sc.ID,
				Timestamp: start + usable/2,
				FrameID:   len(frames),
			})
			continue
		}

		step := usable / float64(perScene)
		for i := 0; i < perScene; i++ {
			frames = append(frames, timeline.KeyFrame{
				SceneID:   sc.ID,
				Timestamp: start + (float64(i)+0.5)*step,
				FrameID:   len(frames),
			})
		}
	}
	return frames
}
