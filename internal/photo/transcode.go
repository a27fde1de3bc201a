package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/pkordes/storefinder/internal/blob"
	"github.com/pkordes/storefinder/internal/domain"
)

// TargetWidth is the width every photo is resized to. Height follows the
// source aspect ratio.
const TargetWidth = 800

// MaxPixels bounds the decoded size of a source image (width * height) so a
// small, highly compressed file cannot exhaust memory on decode.
const MaxPixels = 50_000_000

// JPEGQuality is used when re-encoding JPEG photos.
const JPEGQuality = 90

// ErrUnsupportedFormat is the cause of a TranscodeError for a media type the
// transcoder cannot decode or re-encode.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result describes a transcoded photo.
type Result struct {
	Filename string
	Width    int
	Height   int
	Size     int
}

type codec struct {
	// format is the name image.Decode reports for this codec.
	format string
	encode func(w io.Writer, img image.Image) error
}

// codecs maps a media subtype (the file extension) to its codec.
var codecs = map[string]codec{
	"jpeg": {"jpeg", encodeJPEG},
	"jpg":  {"jpeg", encodeJPEG},
	"png":  {"png", png.Encode},
	"gif":  {"gif", func(w io.Writer, img image.Image) error { return gif.Encode(w, img, nil) }},
	"bmp":  {"bmp", bmp.Encode},
	"tiff": {"tiff", func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) }},
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

// Transcoder resizes accepted uploads and writes them to a blob.Store under a
// fresh random name.
type Transcoder struct {
	store blob.Store
	width int
}

// NewTranscoder returns a Transcoder writing TargetWidth-wide photos to store.
func NewTranscoder(store blob.Store) *Transcoder {
	return &Transcoder{store: store, width: TargetWidth}
}

// Extension returns the part of mediaType after the "/", lowercased, with
// any parameters removed: "image/PNG; q=1" → "png".
func Extension(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	_, sub, ok := strings.Cut(strings.TrimSpace(mt), "/")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(sub))
}

// NewFilename returns "<random v4 uuid>.<ext>". No existence check is made;
// v4 collisions are negligible.
func NewFilename(ext string) string {
	return uuid.NewString() + "." + ext
}

// Transcode decodes up.Body as the image type declared by up.MediaType,
// resizes it to the transcoder's width keeping the aspect ratio, re-encodes
// it in the same format and writes it to the blob store.
//
// The upload must already have passed Validate. Every failure is returned as
// a *domain.TranscodeError; nothing is written unless all steps before the
// write succeed.
func (t *Transcoder) Transcode(ctx context.Context, up domain.Upload) (Result, error) {
	ext := Extension(up.MediaType)
	c, ok := codecs[ext]
	if !ok {
		return Result{}, transcodeErr(domain.TranscodeOpDecode, fmt.Errorf("%w: %q", ErrUnsupportedFormat, up.MediaType))
	}

	data, err := io.ReadAll(up.Body)
	if err != nil {
		return Result{}, transcodeErr(domain.TranscodeOpDecode, fmt.Errorf("read upload: %w", err))
	}

	src, err := decode(data, c.format)
	if err != nil {
		return Result{}, transcodeErr(domain.TranscodeOpDecode, err)
	}

	dst := resize(src, t.width)

	var buf bytes.Buffer
	if err := c.encode(&buf, dst); err != nil {
		return Result{}, transcodeErr(domain.TranscodeOpEncode, err)
	}

	name := NewFilename(ext)
	if err := t.store.Write(ctx, name, buf.Bytes()); err != nil {
		return Result{}, transcodeErr(domain.TranscodeOpWrite, err)
	}

	b := dst.Bounds()
	return Result{Filename: name, Width: b.Dx(), Height: b.Dy(), Size: buf.Len()}, nil
}

// decode checks the image header before decoding the pixels so oversized or
// mislabelled images fail without allocating a full frame.
func decode(data []byte, wantFormat string) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if format != wantFormat {
		return nil, fmt.Errorf("declared %s but content is %s", wantFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}

// resize scales src to width, deriving the height from the source aspect
// ratio. Narrower sources are scaled up.
func resize(src image.Image, width int) image.Image {
	sb := src.Bounds()
	height := ScaledHeight(sb.Dx(), sb.Dy(), width)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// ScaledHeight returns the height that keeps a w×h image's aspect ratio at
// the given width, rounded to the nearest pixel and never less than 1.
func ScaledHeight(w, h, width int) int {
	return max(1, int(math.Round(float64(h)*float64(width)/float64(w))))
}

func transcodeErr(op string, cause error) error {
	return fmt.Errorf("photo.Transcoder.Transcode: %w", &domain.TranscodeError{Op: op, Cause: cause})
}
