package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 10 * time.Second

// Probe holds the video stream properties reported by ffprobe.
type Probe struct {
	// Width and Height are the display size, after rotation.
	Width  int
	Height int
	// Rotation is the display rotation in degrees, in [0, 360).
	Rotation int
	// FPS is the source frame rate, or 0 when ffprobe could not tell.
	FPS float64
}

type ffprobeResult struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Tags         ffprobeTags       `json:"tags"`
	CodecType    string            `json:"codec_type"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	SideDataList []ffprobeSideData `json:"side_data_list"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
}

// ffprobeTags carries the legacy rotate tag written by older muxers.
type ffprobeTags struct {
	Rotate string `json:"rotate"`
}

// ffprobeSideData carries the display matrix rotation, when present.
type ffprobeSideData struct {
	Rotation float64 `json:"rotation"`
}

// Video streams raw RGBA frames from an ffmpeg subprocess.
//
// Create instances with [OpenVideo].
type Video struct {
	frames  io.Reader
	closer  io.Closer
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	stderr  *bytes.Buffer
	logger  *slog.Logger
	pending *image.RGBA
	waitErr error
	probe   Probe
	waited  bool
	done    bool
}

// VideoOption configures [OpenVideo].
type VideoOption func(*videoOptions)

type videoOptions struct {
	logger  *slog.Logger
	ffmpeg  string
	ffprobe string
}

// WithFFmpeg sets the ffmpeg executable. The default is looked up in PATH.
func WithFFmpeg(path string) VideoOption {
	return func(o *videoOptions) {
		o.ffmpeg = path
	}
}

// WithFFprobe sets the ffprobe executable. The default is looked up in PATH.
func WithFFprobe(path string) VideoOption {
	return func(o *videoOptions) {
		o.ffprobe = path
	}
}

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(l *slog.Logger) VideoOption {
	return func(o *videoOptions) {
		o.logger = l
	}
}

// OpenVideo probes path with ffprobe and starts ffmpeg decoding it to raw
// RGBA frames at the display resolution reported by the probe. The first
// frame is decoded before OpenVideo returns: a missing tool or unreadable
// container is an [ErrOpen], an ffmpeg failure before any frame is an
// [ErrDecode] carrying ffmpeg's message, and a stream without frames is
// [ErrNoFrames].
func OpenVideo(ctx context.Context, path string, opts ...VideoOption) (*Video, error) {
	o := videoOptions{
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}

	closeQuietly(f)

	probe, err := ProbeVideo(ctx, o.ffprobe, path)
	if err != nil {
		return nil, err
	}

	ffmpeg, err := exec.LookPath(o.ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH: %w", ErrOpen, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	//nolint:gosec // The path is a user-provided CLI argument.
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "error",
		"-i", path,
		"-an",
		// ffmpeg applies rotation metadata; pin the output to the probed
		// display size so frames are sliced at the right stride.
		"-vf", fmt.Sprintf("scale=%d:%d", probe.Width, probe.Height),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("%w: creating stdout pipe: %w", ErrOpen, err)
	}

	err = cmd.Start()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("%w: starting ffmpeg: %w", ErrOpen, err)
	}

	o.logger.Debug("video decoder started",
		slog.String("path", path),
		slog.Int("width", probe.Width),
		slog.Int("height", probe.Height),
		slog.Int("rotation", probe.Rotation),
		slog.Float64("fps", probe.FPS),
	)

	v := &Video{
		frames: stdout,
		closer: stdout,
		cmd:    cmd,
		cancel: cancel,
		stderr: stderr,
		logger: o.logger,
		probe:  probe,
	}

	first, err := readFrame(stdout, probe.Width, probe.Height)
	if err != nil {
		return nil, v.openError(ctx, path, err)
	}

	v.pending = first

	return v, nil
}

// openError reaps ffmpeg after the first frame could not be read and reports
// why.
func (v *Video) openError(ctx context.Context, path string, readErr error) error {
	if ctx.Err() != nil {
		//nolint:errcheck // Canceled by the caller.
		v.Close()

		return ctx.Err()
	}

	if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
		//nolint:errcheck // The read error is the one worth reporting.
		v.Close()

		return fmt.Errorf("%w: %w", ErrDecode, readErr)
	}

	waitErr := v.finish(ctx)

	switch {
	case waitErr != nil:
		return v.decodeError(waitErr)
	case errors.Is(readErr, io.EOF):
		return fmt.Errorf("%w: %s", ErrNoFrames, path)
	}

	return fmt.Errorf("%w: %w", ErrDecode, readErr)
}

// Next reads the next frame. It returns [io.EOF] once the stream is
// exhausted. A truncated or unreadable frame is reported once as
// [ErrCorruptFrame], after which the stream reports [io.EOF].
func (v *Video) Next(ctx context.Context) (image.Image, error) {
	if v.done {
		return nil, io.EOF
	}

	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	if v.pending != nil {
		fr := v.pending
		v.pending = nil

		return fr, nil
	}

	fr, err := readFrame(v.frames, v.probe.Width, v.probe.Height)
	if err != nil {
		v.done = true

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Exit status is reported by Close.
			//nolint:errcheck // Kept in v.waitErr.
			v.finish(ctx)
		}

		return nil, err
	}

	return fr, nil
}

// FPS returns the source frame rate, or 0 when unknown.
func (v *Video) FPS() float64 {
	return v.probe.FPS
}

// Looping reports false; videos play once.
func (v *Video) Looping() bool {
	return false
}

// Probe returns the stream properties.
func (v *Video) Probe() Probe {
	return v.probe
}

// Close stops the decoder and waits for it to exit. When ffmpeg had already
// ended on its own, Close returns its failure as an [ErrDecode]; a decoder
// stopped early by Close is not an error.
func (v *Video) Close() error {
	if v.waited {
		if v.waitErr != nil {
			return v.decodeError(v.waitErr)
		}

		return nil
	}

	v.waited = true

	if v.cancel != nil {
		v.cancel()
	}

	if v.closer != nil {
		//nolint:errcheck // The pipe is closed by Wait as well.
		v.closer.Close()
	}

	if v.cmd != nil {
		//nolint:errcheck // Error is expected after context cancellation.
		v.cmd.Wait()
	}

	if v.stderr != nil && v.stderr.Len() > 0 {
		v.logger.Debug("video decoder output", slog.String("stderr", strings.TrimSpace(v.stderr.String())))
	}

	return nil
}

// finish waits for ffmpeg after its output ended and records how it exited.
// An exit caused by ctx being canceled is not recorded.
func (v *Video) finish(ctx context.Context) error {
	if v.waited {
		return v.waitErr
	}

	v.waited = true

	if v.cmd != nil {
		err := v.cmd.Wait()
		if err != nil && ctx.Err() == nil {
			v.waitErr = err
		}
	}

	if v.cancel != nil {
		v.cancel()
	}

	return v.waitErr
}

func (v *Video) decodeError(err error) error {
	msg := ""
	if v.stderr != nil {
		msg = strings.TrimSpace(v.stderr.String())
	}

	if msg == "" {
		return fmt.Errorf("%w: ffmpeg: %w", ErrDecode, err)
	}

	return fmt.Errorf("%w: ffmpeg: %w: %s", ErrDecode, err, msg)
}

// readFrame reads exactly one w x h RGBA frame from r.
func readFrame(r io.Reader, w, h int) (*image.RGBA, error) {
	buf := make([]byte, w*h*4)

	_, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: truncated frame: %w", ErrCorruptFrame, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
	}

	return &image.RGBA{
		Pix:    buf,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// ProbeVideo runs ffprobe on path and returns the first video stream's
// properties.
func ProbeVideo(ctx context.Context, ffprobe, path string) (Probe, error) {
	bin, err := exec.LookPath(ffprobe)
	if err != nil {
		return Probe{}, fmt.Errorf("%w: ffprobe not found in PATH: %w", ErrOpen, err)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	//nolint:gosec // The path is a user-provided CLI argument.
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return Probe{}, fmt.Errorf("%w: ffprobe %s: %w", ErrOpen, path, err)
	}

	return parseProbe(out)
}

// parseProbe extracts the first video stream from ffprobe JSON output.
func parseProbe(data []byte) (Probe, error) {
	var result ffprobeResult

	err := json.Unmarshal(data, &result)
	if err != nil {
		return Probe{}, fmt.Errorf("%w: parsing ffprobe output: %w", ErrOpen, err)
	}

	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}

		if s.Width <= 0 || s.Height <= 0 {
			return Probe{}, fmt.Errorf("%w: video stream has no dimensions", ErrOpen)
		}

		fps := parseFraction(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseFraction(s.RFrameRate)
		}

		p := Probe{
			Width:  s.Width,
			Height: s.Height,
			FPS:    fps,
		}

		p.Rotation = s.rotation()
		if p.Rotation == 90 || p.Rotation == 270 {
			p.Width, p.Height = p.Height, p.Width
		}

		return p, nil
	}

	return Probe{}, fmt.Errorf("%w: no video stream", ErrOpen)
}

// rotation returns the display rotation from the display matrix side data,
// falling back to the rotate tag.
func (s ffprobeStream) rotation() int {
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			return normalizeRotation(int(math.Round(sd.Rotation)))
		}
	}

	deg, err := strconv.Atoi(s.Tags.Rotate)
	if err != nil {
		return 0
	}

	return normalizeRotation(deg)
}

// normalizeRotation maps any angle in degrees into [0, 360).
func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// parseFraction parses "num/den" or a plain number. Malformed input and zero
// denominators yield 0.
func parseFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}

		return f
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}
