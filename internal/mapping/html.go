package mapping

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/imgren/internal/domain"
)

// ParseHTMLTable 解析电子表格“另存为网页”得到的 HTML：取文档中第一个 <table>，
// 它自己的每个 <tr>（不含嵌套表格中的行）的 th/td 文本构成一条记录。
//
// 表头识别、空行丢弃、行过滤与错误码都与 Parse 一致。
func ParseHTMLTable(raw string) ([]domain.MappingEntry, error) {
	return parseHTMLTable(strings.NewReader(raw))
}

// 读取失败返回普通 error（不是 *ParseError），与 Load 的 I/O 错误同等对待。
func parseHTMLTable(r io.Reader) ([]domain.MappingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("读取 HTML 表格失败：%w", err)
	}

	records := make([][]string, 0, 64)
	addRow := func(_ int, tr *goquery.Selection) {
		rec := make([]string, 0, 4)
		blank := true
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			v := normSpace(cell.Text())
			if v != "" {
				blank = false
			}
			rec = append(rec, v)
		})
		if blank {
			return
		}
		records = append(records, rec)
	}
	doc.Find("table").First().Children().Each(func(i int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "tr":
			addRow(i, c)
		case "thead", "tbody", "tfoot":
			c.ChildrenFiltered("tr").Each(addRow)
		}
	})

	if len(records) < 2 {
		return nil, &ParseError{Code: ErrCodeInsufficientRows}
	}
	return fromRecords(records)
}

// normSpace 把单元格内的换行/连续空白折叠为单个空格（导出的 HTML 经常带缩进）。
func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
