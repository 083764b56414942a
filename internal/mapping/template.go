package mapping

import (
	"encoding/csv"
	"io"

	"github.com/John-Robertt/imgren/internal/domain"
)

// TemplateHeader 是导出模板的表头；它同时满足 Parse 的列识别规则。
var TemplateHeader = []string{"current_name", "new_name"}

// WriteTemplate 为当前工作集导出一份待填写的 CSV 模板：每张图片一行，new_name 留空。
func WriteTemplate(w io.Writer, images []domain.UploadedImage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TemplateHeader); err != nil {
		return err
	}
	for _, img := range images {
		if err := cw.Write([]string{img.OriginalName, ""}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
