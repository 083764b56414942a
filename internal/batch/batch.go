package batch

import (
	"context"
	"errors"
	"time"

	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/imgx"
)

// Quality 是重编码使用的固定质量参数（90%）。
const Quality = imgx.DefaultQuality

// Encoder 是“解码 + 按目标格式重编码”的协作者，作为单个可失败操作建模。
type Encoder interface {
	Reencode(src []byte, format string, quality int) ([]byte, error)
}

// Processor 按输入顺序逐张处理图片。零值可用（使用 imgx.Codec）。
type Processor struct {
	Encoder Encoder
	Quality int
}

// ItemFunc 在每张图片提交结果后调用（成功或失败都会调用），done 单调递增。
type ItemFunc func(done, total int, res domain.ProcessedResult, dur time.Duration)

// Start 为本次 run 创建全部 pending 结果并返回一个惰性的 Run。
// images/mappings 在 run 期间不得被调用方修改；Run 自身只读不写。
func (p Processor) Start(images []domain.UploadedImage, mappings []domain.MappingEntry) *Run {
	enc := p.Encoder
	if enc == nil {
		enc = imgx.Codec{}
	}
	q := p.Quality
	if q <= 0 {
		q = Quality
	}

	results := make([]domain.ProcessedResult, len(images))
	for i, img := range images {
		name, entry, matched := Target(img.OriginalName, mappings)
		results[i] = domain.ProcessedResult{
			SourceImageID:  img.ID,
			OriginalName:   img.OriginalName,
			ResolvedName:   name,
			Matched:        matched,
			MappingCurrent: entry.CurrentName,
			Status:         domain.ResultPending,
		}
	}

	return &Run{
		enc:     enc,
		quality: q,
		images:  images,
		results: results,
	}
}

// ProcessAll 驱动一个 Run 直到结束（或 ctx 取消），并在每张图片完成后回调 onItem。
// 返回的结果列表总是与 images 等长；取消时未处理的条目保持 pending，err 为取消原因。
func (p Processor) ProcessAll(ctx context.Context, images []domain.UploadedImage, mappings []domain.MappingEntry, onItem ItemFunc) ([]domain.ProcessedResult, error) {
	r := p.Start(images, mappings)
	for {
		started := time.Now()
		if !r.Next(ctx) {
			break
		}
		if onItem != nil {
			onItem(r.Done(), r.Total(), r.Result(), time.Since(started))
		}
	}
	return r.Results(), r.Err()
}

// Run 是一次 batch run 的状态：严格串行，第 i 张提交之前不会开始第 i+1 张。
type Run struct {
	enc     Encoder
	quality int

	images  []domain.UploadedImage
	results []domain.ProcessedResult

	done int
	err  error
}

// Next 处理下一张图片；没有剩余图片或 ctx 已取消时返回 false。
// 取消只在条目之间检查：已提交的结果保持有效。
func (r *Run) Next(ctx context.Context) bool {
	if r.err != nil || r.done >= len(r.images) {
		return false
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			r.err = err
			return false
		}
	}

	r.processOne(r.done)
	r.done++
	return true
}

func (r *Run) processOne(i int) {
	res := &r.results[i]
	if err := CheckName(res.ResolvedName); err != nil {
		res.Fail(domain.ErrCodeInvalidName, err.Error())
		return
	}
	out, err := r.enc.Reencode(r.images[i].Data, FormatForName(res.ResolvedName), r.quality)
	if err != nil {
		res.Fail(errorCode(err), err.Error())
		return
	}
	res.Succeed(out)
}

// Result 返回最近一次提交的结果；尚未处理任何图片时返回零值。
func (r *Run) Result() domain.ProcessedResult {
	if r.done == 0 {
		return domain.ProcessedResult{}
	}
	return r.results[r.done-1]
}

func (r *Run) Done() int  { return r.done }
func (r *Run) Total() int { return len(r.images) }

// Progress 返回累计完成比例 [0,1]；空 run 视为已完成。
func (r *Run) Progress() float64 {
	if len(r.images) == 0 {
		return 1
	}
	return float64(r.done) / float64(len(r.images))
}

// Results 返回全部结果的副本（按输入顺序，含 pending）。
func (r *Run) Results() []domain.ProcessedResult {
	return append([]domain.ProcessedResult(nil), r.results...)
}

// Err 返回导致 run 提前结束的原因（ctx 取消）；正常结束为 nil。
func (r *Run) Err() error { return r.err }

func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) && coded.Code() != "" {
		return coded.Code()
	}
	return domain.ErrCodeEncodeFailed
}
