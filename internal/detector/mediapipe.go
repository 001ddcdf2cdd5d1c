package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the MediaPipe helper script is missing.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

// idleShutdown is how long the helper process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are sent as a 4-byte big-endian length followed by JPEG bytes; the
// helper answers with one JSON line per frame.
type MediaPipeDetector struct {
	config    Config
	script    string
	logger    *slog.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, logger *slog.Logger) (*MediaPipeDetector, error) {
	script := findHelper("scripts/mediapipe_service.py")
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaPipeDetector{
		config: config,
		script: script,
		logger: logger.With("component", "mediapipe"),
	}, nil
}

// Detect encodes the frame, hands it to the helper, and decodes the hands.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (DetectionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := DetectionResult{Timestamp: time.Now()}

	if frame == nil || frame.Empty() {
		return result, errors.New("empty frame")
	}

	if err := d.ensureStarted(); err != nil {
		return result, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return result, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	if _, err := d.stdin.Write(length); err != nil {
		return result, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return result, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return result, fmt.Errorf("read response: %w", err)
	}

	result, err = decodeResponse([]byte(line), result.Timestamp)
	if err != nil {
		return result, err
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findHelper("venv/bin/python")
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.logger.Info("mediapipe helper started", "script", d.script, "python", python)
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	d.logger.Info("mediapipe helper stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Warn("idle shutdown", "err", err)
		}
	})
}

// findHelper looks for rel under the working directory, its parents, the
// executable's directory and ~/.gestureos.
func findHelper(rel string) string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		rel,
		filepath.Join("..", rel),
		filepath.Join("..", "..", rel),
		filepath.Join(execDir, rel),
		filepath.Join(os.Getenv("HOME"), ".gestureos", rel),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonResponse is the line the helper writes for each frame. Landmarks,
// world landmarks and handedness arrive as parallel arrays.
type jsonResponse struct {
	Landmarks      [][]Landmark     `json:"landmarks"`
	WorldLandmarks [][]Landmark     `json:"worldLandmarks"`
	Handedness     []jsonHandedness `json:"handedness"`
}

type jsonHandedness struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// decodeResponse folds the helper's parallel arrays into HandFrames.
// Hands with fewer than NumLandmarks points are skipped.
func decodeResponse(line []byte, ts time.Time) (DetectionResult, error) {
	result := DetectionResult{Timestamp: ts}

	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return result, fmt.Errorf("parse response: %w", err)
	}

	for i, points := range resp.Landmarks {
		if len(points) < NumLandmarks {
			continue
		}

		hand := HandFrame{Timestamp: ts}
		copy(hand.Points[:], points)
		if i < len(resp.WorldLandmarks) {
			copy(hand.World[:], resp.WorldLandmarks[i])
		}
		if i < len(resp.Handedness) {
			hand.Handedness = resp.Handedness[i].Label
			hand.Score = resp.Handedness[i].Score
		}
		result.Hands = append(result.Hands, hand)
	}

	return result, nil
}
