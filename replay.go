package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrReplayClosed = errors.New("replay closed")

// ReplayWriter appends frames to a zstd-compressed msgpack stream
type ReplayWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	mp  *msgpack.Encoder
	n   int
}

// ReplayPath returns where the replay of a match is stored under dir
func ReplayPath(dir, matchID string) string {
	return filepath.Join(dir, fmt.Sprintf("replay-%s.mpk.zst", matchID))
}

// NewReplayWriter creates the replay file for a match
func NewReplayWriter(dir, matchID string) (*ReplayWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := ReplayPath(dir, matchID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := bufio.NewWriterSize(enc, 128*1024)
	return &ReplayWriter{
		path: path,
		f:    f,
		enc:  enc,
		w:    w,
		mp:   msgpack.NewEncoder(w),
	}, nil
}

// Path returns the replay file path
func (r *ReplayWriter) Path() string { return r.path }

// Frames returns the number of frames written
func (r *ReplayWriter) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Write appends one frame
func (r *ReplayWriter) Write(f *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mp == nil {
		return ErrReplayClosed
	}
	if err := r.mp.Encode(f); err != nil {
		return fmt.Errorf("replay frame %d: %w", f.Tick, err)
	}
	r.n++
	return nil
}

// Close flushes buffered frames and closes the file
func (r *ReplayWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mp == nil {
		return nil
	}
	r.mp = nil
	err := r.w.Flush()
	if cerr := r.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadReplay decodes every frame of a replay file
func ReadReplay(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	md := msgpack.NewDecoder(bufio.NewReader(dec))
	var frames []Frame
	for {
		var fr Frame
		if err := md.Decode(&fr); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, fmt.Errorf("%s: frame %d: %w", filepath.Base(path), len(frames), err)
		}
		frames = append(frames, fr)
	}
}

// ReplaySummary aggregates a replay
type ReplaySummary struct {
	Frames         int `json:"frames"`
	FirstTick      int `json:"first_tick"`
	LastTick       int `json:"last_tick"`
	MaxProjectiles int `json:"max_projectiles"`
	Explosions     int `json:"explosions"`
	Freezes        int `json:"freezes"`
	Bounces        int `json:"bounces"`
	Destroyed      int `json:"destroyed"`
}

// SummarizeReplay counts frames and events of a decoded replay
func SummarizeReplay(frames []Frame) ReplaySummary {
	var s ReplaySummary
	s.Frames = len(frames)
	if len(frames) == 0 {
		return s
	}
	s.FirstTick = frames[0].Tick
	s.LastTick = frames[len(frames)-1].Tick
	for _, f := range frames {
		s.MaxProjectiles = max(s.MaxProjectiles, len(f.Projectiles))
		for _, e := range f.Events {
			switch e.Type {
			case EvtExplosion:
				s.Explosions++
			case EvtFreeze:
				s.Freezes++
			case EvtBounce:
				s.Bounces++
			case EvtDestroy:
				s.Destroyed++
			}
		}
	}
	return s
}
