// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Frame decoder backed by an ffmpeg child process.

package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"
	"text/template"

	"github.com/evolution-gaming/av2hdf5/internal/logging"
	"github.com/evolution-gaming/av2hdf5/internal/lw"
	"github.com/evolution-gaming/av2hdf5/internal/video"
	"github.com/google/shlex"
)

// DefaultFfmpegDecodeTemplate produces raw RGB24 frames of the first video
// stream on stdout. Autorotation is disabled so frames keep the geometry
// reported by ffprobe, and passthrough sync keeps ffmpeg from duplicating or
// dropping frames.
var DefaultFfmpegDecodeTemplate = "-hide_banner -nostdin -loglevel error -noautorotate " +
	"-i {{quote .Input}} -map 0:v:0 -an -sn -dn " +
	"{{with .Filter}}-vf {{quote .}} {{end}}" +
	"{{if .HasLimit}}-frames:v {{.Limit}} {{end}}" +
	"-vsync passthrough -f rawvideo -pix_fmt rgb24 pipe:1"

// Cap on retained ffmpeg stderr, the tail is included in decode errors.
const stderrBufferSize = 64 * 1024

// DecoderConfig exposes parameters for FfmpegDecoder creation.
type DecoderConfig struct {
	FfmpegPath  string
	FfprobePath string
	// FfmpegDecodeTemplate is text/template of ffmpeg arguments, empty means
	// DefaultFfmpegDecodeTemplate.
	FfmpegDecodeTemplate string
}

// decodeTemplateContext is the data available to decode template.
type decodeTemplateContext struct {
	Input    string
	Filter   string
	HasLimit bool
	Limit    uint64
}

var templateFuncs = template.FuncMap{"quote": shellQuote}

// ParseDecodeTemplate checks that tpl is a valid decode template.
func ParseDecodeTemplate(tpl string) error {
	_, err := renderDecodeArgs(tpl, decodeTemplateContext{Input: "input.mp4"})
	return err
}

func renderDecodeArgs(tpl string, tplContext decodeTemplateContext) ([]string, error) {
	t, err := template.New("ffmpeg").Funcs(templateFuncs).Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("parse decode template: %w", err)
	}
	var cmd strings.Builder
	if err := t.Execute(&cmd, tplContext); err != nil {
		return nil, fmt.Errorf("execute decode template: %w", err)
	}
	args, err := shlex.Split(cmd.String())
	if err != nil {
		return nil, fmt.Errorf("split decode command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("decode template renders empty command")
	}
	return args, nil
}

// seekFilter is ffmpeg filter dropping frames before start.
func seekFilter(start uint64) string {
	return fmt.Sprintf("trim=start_frame=%d", start)
}

// templateUsesFilter reports whether tpl passes .Filter on to ffmpeg. A
// template that drops it decodes from frame 0 whatever Seek asked for.
func templateUsesFilter(tpl string) bool {
	plain, err := renderDecodeArgs(tpl, decodeTemplateContext{Input: "input.mp4"})
	if err != nil {
		return false
	}
	filtered, err := renderDecodeArgs(tpl, decodeTemplateContext{Input: "input.mp4", Filter: seekFilter(1)})
	if err != nil {
		return false
	}
	return strings.Join(plain, "\x00") != strings.Join(filtered, "\x00")
}

// shellQuote quotes s so that shlex.Split yields it back as single argument.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FfmpegDecoder implements video.Decoder by reading rawvideo from ffmpeg.
//
// The ffmpeg process is started on first ReadFrame. Seek is frame accurate
// when decode template uses .Filter: ffmpeg's trim filter drops frames before
// the requested index. Otherwise Seek lands on frame 0 and frames before the
// requested index are skipped by the caller.
type FfmpegDecoder struct {
	ctx   context.Context
	cfg   DecoderConfig
	input string
	start uint64
	limit *uint64
	// Decode template applies .Filter.
	trims bool

	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stderr   *lw.TailWriter
	started  bool
	finished bool
}

// Make sure FfmpegDecoder implements video.Decoder interface.
var _ video.Decoder = (*FfmpegDecoder)(nil)

// NewFfmpegDecoder will create decoder for the first video stream of input.
// A non-nil limit caps number of frames ffmpeg produces.
func NewFfmpegDecoder(ctx context.Context, cfg DecoderConfig, input string, limit *uint64) *FfmpegDecoder {
	if cfg.FfmpegDecodeTemplate == "" {
		cfg.FfmpegDecodeTemplate = DefaultFfmpegDecodeTemplate
	}
	return &FfmpegDecoder{
		ctx:    ctx,
		cfg:    cfg,
		input:  input,
		limit:  limit,
		trims:  templateUsesFilter(cfg.FfmpegDecodeTemplate),
		stderr: lw.NewTailWriter(stderrBufferSize),
	}
}

// Seek implements video.Decoder. It lands exactly on n, or on frame 0 when
// decode template ignores .Filter.
func (d *FfmpegDecoder) Seek(n uint64) (uint64, error) {
	if d.started {
		return 0, errors.New("seek after decoding started")
	}
	d.start = n
	if !d.trims {
		return 0, nil
	}
	return n, nil
}

// Args returns ffmpeg arguments for current decoder state.
func (d *FfmpegDecoder) Args() ([]string, error) {
	tplContext := decodeTemplateContext{Input: d.input}
	if d.start > 0 && d.trims {
		tplContext.Filter = seekFilter(d.start)
	}
	if d.limit != nil {
		tplContext.HasLimit = true
		tplContext.Limit = *d.limit
		// Skipped frames count towards ffmpeg's limit when not trimmed.
		if !d.trims {
			tplContext.Limit = satAdd(d.start, *d.limit)
		}
	}
	return renderDecodeArgs(d.cfg.FfmpegDecodeTemplate, tplContext)
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func (d *FfmpegDecoder) startProcess() error {
	d.started = true
	args, err := d.Args()
	if err != nil {
		d.finished = true
		return err
	}

	d.cmd = exec.CommandContext(d.ctx, d.cfg.FfmpegPath, args...) //#nosec G204
	d.cmd.Stderr = d.stderr
	d.stdout, err = d.cmd.StdoutPipe()
	if err != nil {
		d.finished = true
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	logging.Debugf("Running: %s", d.cmd)
	if err := d.cmd.Start(); err != nil {
		d.finished = true
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	return nil
}

// ReadFrame implements video.Decoder.
func (d *FfmpegDecoder) ReadFrame(pix []byte) error {
	if d.finished {
		return io.EOF
	}
	if !d.started {
		if err := d.startProcess(); err != nil {
			return err
		}
	}

	_, err := io.ReadFull(d.stdout, pix)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		// Stream ended on frame boundary, ffmpeg exit status decides if it
		// was a clean end.
		if werr := d.wait(); werr != nil {
			return werr
		}
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if werr := d.wait(); werr != nil {
			return werr
		}
		return errors.New("truncated frame in ffmpeg output")
	default:
		d.kill()
		return fmt.Errorf("reading ffmpeg output: %w", err)
	}
}

// Close implements video.Decoder. A running ffmpeg process is killed.
func (d *FfmpegDecoder) Close() error {
	if !d.started || d.finished {
		return nil
	}
	d.kill()
	return nil
}

// Stderr returns retained tail of ffmpeg diagnostics.
func (d *FfmpegDecoder) Stderr() string {
	return d.stderr.String()
}

func (d *FfmpegDecoder) wait() error {
	d.finished = true
	if err := d.cmd.Wait(); err != nil {
		if cerr := d.ctx.Err(); cerr != nil {
			return cerr
		}
		if msg := strings.TrimSpace(d.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func (d *FfmpegDecoder) kill() {
	d.finished = true
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	// Reap the process, exit status of a killed process is not interesting.
	_ = d.cmd.Wait()
}

// OpenVideo probes videoFile and returns lazy frame source for window win.
//
// Probing happens right away so open errors are reported before anything
// else is done with the file. Decoding starts on first Next.
func OpenVideo(ctx context.Context, cfg DecoderConfig, videoFile string, win video.Window) (*video.Source, error) {
	meta, err := ProbeVideo(ctx, cfg.FfprobePath, videoFile)
	if err != nil {
		return nil, err
	}
	dec := NewFfmpegDecoder(ctx, cfg, videoFile, win.Duration)
	return video.NewSource(dec, meta, win), nil
}
