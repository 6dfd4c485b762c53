package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
	"github.com/wakebell/wakebell/internal/playback"
)

// Global audio context singleton. oto allows one context per process;
// it is initialized lazily with the format of the first file played.
var (
	otoCtx  *oto.Context
	otoOnce sync.Once
	otoErr  error
)

func initContext(format *wavFormat) error {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to initialize audio context: %w", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan
		otoCtx = ctx
	})
	return otoErr
}

// Output opens WAV files on the default audio device.
type Output struct {
	logger logger.Logger
}

func NewOutput(log logger.Logger) *Output {
	return &Output{logger: log}
}

// Open reads and parses a WAV file and prepares a playback session.
func (o *Output) Open(locator string) (playback.Session, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrPlaybackOpenFailed, locator, err)
	}

	format, pcm, err := parseWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrPlaybackOpenFailed, locator, err)
	}
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s: unsupported bit depth %d, want 16",
			domain.ErrPlaybackOpenFailed, locator, format.BitDepth)
	}

	if err := initContext(format); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlaybackOpenFailed, err)
	}

	reader := bytes.NewReader(pcm)
	return &session{
		player:      otoCtx.NewPlayer(reader),
		reader:      reader,
		bytesPerSec: format.SampleRate * format.Channels * format.BitDepth / 8,
		done:        make(chan struct{}),
		logger:      o.logger,
	}, nil
}

// session is one oto playback of an in-memory PCM buffer.
type session struct {
	player      *oto.Player
	reader      *bytes.Reader
	bytesPerSec int
	logger      logger.Logger

	mu      sync.Mutex
	paused  bool
	stopped bool

	done     chan struct{}
	doneOnce sync.Once
}

func (s *session) Start() {
	s.player.Play()
	go s.watch()
}

// watch closes done when the buffer drains naturally. Stop and Pause
// never close it.
func (s *session) watch() {
	for {
		s.mu.Lock()
		stopped, paused := s.stopped, s.paused
		s.mu.Unlock()

		if stopped {
			return
		}
		if !paused && !s.player.IsPlaying() && s.reader.Len() == 0 {
			s.doneOnce.Do(func() { close(s.done) })
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *session) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.player.Pause()
}

func (s *session) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.player.Play()
}

func (s *session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.player.SetVolume(v)
}

// Position reports how far into the media playback has advanced:
// bytes handed to the player minus what still sits in its buffer.
func (s *session) Position() time.Duration {
	consumed := s.reader.Size() - int64(s.reader.Len())
	pending := s.player.BufferedSize()
	played := consumed - int64(pending)
	if played < 0 {
		played = 0
	}
	return time.Duration(played) * time.Second / time.Duration(s.bytesPerSec)
}

func (s *session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.player.Pause()
	if err := s.player.Close(); err != nil {
		s.logger.Warn("failed to close audio player", logger.Error(err))
	}
}

func (s *session) Done() <-chan struct{} { return s.done }

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// parseWAV walks the RIFF chunks and returns the format plus raw PCM data.
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	riff := make([]byte, 4)
	if _, err := io.ReadFull(reader, riff); err != nil {
		return nil, nil, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riff) != "RIFF" {
		return nil, nil, fmt.Errorf("not a RIFF file")
	}

	if _, err := reader.Seek(4, io.SeekCurrent); err != nil { // file size
		return nil, nil, err
	}

	wave := make([]byte, 4)
	if _, err := io.ReadFull(reader, wave); err != nil {
		return nil, nil, fmt.Errorf("reading WAVE header: %w", err)
	}
	if string(wave) != "WAVE" {
		return nil, nil, fmt.Errorf("not a WAVE file")
	}

	format := &wavFormat{}
	sawFmt := false

	for {
		chunkID := make([]byte, 4)
		if _, err := io.ReadFull(reader, chunkID); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID) {
		case "fmt ":
			var audioFormat, numChannels uint16
			var sampleRate uint32
			binary.Read(reader, binary.LittleEndian, &audioFormat)
			binary.Read(reader, binary.LittleEndian, &numChannels)
			binary.Read(reader, binary.LittleEndian, &sampleRate)

			// Skip byte rate and block align
			reader.Seek(6, io.SeekCurrent)

			var bitsPerSample uint16
			binary.Read(reader, binary.LittleEndian, &bitsPerSample)

			format.Channels = int(numChannels)
			format.SampleRate = int(sampleRate)
			format.BitDepth = int(bitsPerSample)
			sawFmt = true

			if remaining := int64(chunkSize) - 16; remaining > 0 {
				reader.Seek(remaining, io.SeekCurrent)
			}

		case "data":
			if !sawFmt {
				return nil, nil, fmt.Errorf("data chunk before fmt chunk")
			}
			pcm := make([]byte, chunkSize)
			if _, err := io.ReadFull(reader, pcm); err != nil {
				return nil, nil, fmt.Errorf("reading data chunk: %w", err)
			}
			return format, pcm, nil

		default:
			if _, err := reader.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}

	return nil, nil, fmt.Errorf("no data chunk found")
}
