package domain

import "time"

const (
	DefaultPlaybackRate = 1.0
	SubtitlesDisabled   = -1
)

// PlaybackState is the host's last reported transport snapshot. Position is
// only meaningful at UpdatedAt; clients extrapolate from there.
type PlaybackState struct {
	IsPlaying                bool    `json:"isPlaying"`
	CurrentPosition          float64 `json:"currentPosition"`
	PlaybackRate             float64 `json:"playbackRate"`
	ActiveSubtitleTrackIndex int     `json:"activeSubtitleTrackIndex"`
	LastUpdateTimestamp      int64   `json:"lastUpdateTimestamp"`
}

func NewPlaybackState(now time.Time) PlaybackState {
	return PlaybackState{
		IsPlaying:                false,
		CurrentPosition:          0,
		PlaybackRate:             DefaultPlaybackRate,
		ActiveSubtitleTrackIndex: SubtitlesDisabled,
		LastUpdateTimestamp:      now.UnixMilli(),
	}
}

func (p *PlaybackState) Play(position float64, now time.Time) {
	p.IsPlaying = true
	p.CurrentPosition = position
	p.touch(now)
}

func (p *PlaybackState) Pause(position float64, now time.Time) {
	p.IsPlaying = false
	p.CurrentPosition = position
	p.touch(now)
}

func (p *PlaybackState) Seek(position float64, now time.Time) {
	p.CurrentPosition = position
	p.touch(now)
}

func (p *PlaybackState) SetRate(rate float64, now time.Time) {
	p.PlaybackRate = rate
	p.touch(now)
}

func (p *PlaybackState) SetSubtitle(trackIndex int, now time.Time) {
	p.ActiveSubtitleTrackIndex = trackIndex
	p.touch(now)
}

func (p *PlaybackState) touch(now time.Time) {
	p.LastUpdateTimestamp = now.UnixMilli()
}
