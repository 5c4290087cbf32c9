package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string        `json:"file_path"`
	Duration     time.Duration `json:"duration"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	FPS          float64       `json:"fps"`
	Bitrate      int64         `json:"bitrate"`
	VideoCodec   string        `json:"video_codec"`
	HasVideo     bool          `json:"has_video"`
	HasAudio     bool          `json:"has_audio"`
	AudioCodec   string        `json:"audio_codec"`
	AudioBitrate int64         `json:"audio_bitrate"`
	FormatName   string        `json:"format_name"`
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

// AudioFormat defines audio extraction format options
type AudioFormat struct {
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    string
}

// DefaultSpeechFormat returns the format speech-to-text services expect
func DefaultSpeechFormat() AudioFormat {
	return AudioFormat{
		Codec:      "pcm_s16le",
		SampleRate: 16000,
		Channels:   1,
	}
}

// VolumeStats holds volume analysis results in dBFS
type VolumeStats struct {
	MeanVolume float64
	MaxVolume  float64
}
