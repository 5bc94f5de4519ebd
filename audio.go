package trellis

import (
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Clip is decoded PCM audio (16-bit little endian stereo at the audio
// context's sample rate).
type Clip struct {
	data []byte
}

// NewClip wraps decoded PCM bytes.
func NewClip(pcm []byte) Clip {
	return Clip{data: pcm}
}

// Len returns the clip size in bytes.
func (c Clip) Len() int { return len(c.data) }

// AudioSink plays clips for an audio source node. The Hub calls it from the
// frame update only.
type AudioSink interface {
	Append(clip Clip) error
	Pause()
	Resume()
	Stop()
	SetVolume(volume float64)
	// Update starts the next queued clip once the current one has finished.
	Update()
}

// AudioData is the payload of an audio source node.
type AudioData struct {
	Sink AudioSink
}

// AudioSource is an object that plays a queue of clips.
type AudioSource struct {
	Base
}

// Play appends clip to the playback queue.
func (a AudioSource) Play(clip Clip) {
	a.send(opAudio{cmd: audioAppend, clip: clip})
}

// Pause pauses playback.
func (a AudioSource) Pause() {
	a.send(opAudio{cmd: audioPause})
}

// Resume resumes paused playback.
func (a AudioSource) Resume() {
	a.send(opAudio{cmd: audioResume})
}

// Stop stops playback and clears the queue.
func (a AudioSource) Stop() {
	a.send(opAudio{cmd: audioStop})
}

// SetVolume sets the playback volume, 1 being unchanged.
func (a AudioSource) SetVolume(volume float64) {
	a.send(opAudio{cmd: audioVolume, volume: volume})
}

// PlayerQueue is an AudioSink backed by ebiten audio players.
type PlayerQueue struct {
	ctx     *audio.Context
	current *audio.Player
	queue   []Clip
	volume  float64
	paused  bool
}

// NewPlayerQueue returns a sink playing through ctx.
func NewPlayerQueue(ctx *audio.Context) *PlayerQueue {
	return &PlayerQueue{ctx: ctx, volume: 1}
}

// Append implements AudioSink.
func (q *PlayerQueue) Append(clip Clip) error {
	q.queue = append(q.queue, clip)
	return nil
}

// Pause implements AudioSink.
func (q *PlayerQueue) Pause() {
	q.paused = true
	if q.current != nil {
		q.current.Pause()
	}
}

// Resume implements AudioSink.
func (q *PlayerQueue) Resume() {
	q.paused = false
	if q.current != nil {
		q.current.Play()
	}
}

// Stop implements AudioSink.
func (q *PlayerQueue) Stop() {
	q.queue = q.queue[:0]
	q.closeCurrent()
}

// SetVolume implements AudioSink.
func (q *PlayerQueue) SetVolume(volume float64) {
	q.volume = volume
	if q.current != nil {
		q.current.SetVolume(volume)
	}
}

// Update implements AudioSink.
func (q *PlayerQueue) Update() {
	if q.paused {
		return
	}
	if q.current != nil && q.current.IsPlaying() {
		return
	}
	q.closeCurrent()
	if len(q.queue) == 0 {
		return
	}
	next := q.queue[0]
	q.queue = q.queue[1:]
	q.current = q.ctx.NewPlayerFromBytes(next.data)
	q.current.SetVolume(q.volume)
	q.current.Play()
}

// Queued returns the number of clips waiting behind the current one.
func (q *PlayerQueue) Queued() int { return len(q.queue) }

func (q *PlayerQueue) closeCurrent() {
	if q.current == nil {
		return
	}
	_ = q.current.Close()
	q.current = nil
}
