package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // 只注册解码器：webp 可作为输入，不能作为输出

	"github.com/John-Robertt/imgren/internal/domain"
)

// DefaultQuality 是 JPEG 编码质量（固定 90）。
const DefaultQuality = 90

// ErrUnsupportedFormat 表示目标编码格式不在支持列表内。
var ErrUnsupportedFormat = errors.New("不支持的输出格式")

// Error 是重编码阶段的可追溯错误。
// Stage 为 "decode" 或 "encode"；上层据此归类 error_code。
type Error struct {
	Stage  string
	Format string
	Err    error
}

func (e *Error) Error() string {
	switch e.Stage {
	case "decode":
		return fmt.Sprintf("图片解码失败（文件损坏或格式无法识别）：%v", e.Err)
	default:
		return fmt.Sprintf("编码为 %s 失败：%v", e.Format, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 返回对应的 error_code（decode_failed / unsupported_format / encode_failed）。
func (e *Error) Code() string {
	switch {
	case e.Stage == "decode":
		return domain.ErrCodeDecodeFailed
	case errors.Is(e.Err, ErrUnsupportedFormat):
		return domain.ErrCodeUnsupportedFormat
	default:
		return domain.ErrCodeEncodeFailed
	}
}

// Codec 把任意可识别的输入图片重编码为目标格式。
// 零值可用；Quality<=0 时使用 DefaultQuality。
type Codec struct {
	Quality int
}

// Reencode 解码 src 并编码为 format（jpeg/png/gif/bmp/tiff/tif）。
//
// 解码与编码视为一个原子操作：要么得到完整输出，要么返回 *Error。
func (c Codec) Reencode(src []byte, format string, quality int) ([]byte, error) {
	if len(src) == 0 {
		return nil, &Error{Stage: "decode", Format: format, Err: errors.New("图片为空")}
	}
	if quality <= 0 {
		quality = c.Quality
	}
	if quality <= 0 {
		quality = DefaultQuality
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if !Supported(format) {
		return nil, &Error{Stage: "encode", Format: format, Err: ErrUnsupportedFormat}
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &Error{Stage: "decode", Format: format, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &Error{Stage: "decode", Format: format, Err: errors.New("图片尺寸无效")}
	}

	var out bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality})
	case "png":
		err = png.Encode(&out, img)
	case "gif":
		err = gif.Encode(&out, img, nil)
	case "bmp":
		err = bmp.Encode(&out, img)
	case "tiff", "tif":
		err = tiff.Encode(&out, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		return nil, &Error{Stage: "encode", Format: format, Err: err}
	}
	return out.Bytes(), nil
}

// Supported 判断 format 是否可作为输出格式。
func Supported(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "bmp", "tiff", "tif":
		return true
	default:
		return false
	}
}

// IsImageExt 判断扩展名（带 '.'，大小写不敏感）是否是可识别的输入图片。
func IsImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}
