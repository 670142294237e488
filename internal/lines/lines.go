// Package lines 把已解码的文本切分为物理行。
package lines

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScanLines 是 bufio.SplitFunc：\n、\r\n、单独的 \r 都视为行结束。
// 与 bufio.ScanLines 相同，末尾换行不会产生额外的空行。
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// data[i] == '\r'：需要看下一个字节才能区分 \r\n 与单独的 \r。
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewScanner 返回按 ScanLines 切分 text 的 Scanner。
// 文本已完整驻留内存，所以单行长度上限放宽到整个文本。
func NewScanner(text string) *bufio.Scanner {
	sc := bufio.NewScanner(strings.NewReader(text))
	limit := len(text) + 1
	if limit < bufio.MaxScanTokenSize {
		limit = bufio.MaxScanTokenSize
	}
	sc.Buffer(make([]byte, 0, 64*1024), limit)
	sc.Split(ScanLines)
	return sc
}

// Split 把 text 切为物理行（不含行结束符）。
func Split(text string) []string {
	out := make([]string, 0, strings.Count(text, "\n")+1)
	sc := NewScanner(text)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// blockSelectors 是在其后补一个换行的块级元素；导入报告常见的 HTML 形态
// 是 <pre> 或逐行 <p>/<div>/<br>。
const blockSelectors = "p, div, li, tr, pre, h1, h2, h3, h4, h5, h6"

// FromHTML 提取 HTML 报告的可见文本并切分为行。
// <br> 与块级元素的结尾被视为换行；script/style 被丢弃。
func FromHTML(text string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return Split(root.Text()), nil
}

// IsHTML 按扩展名判断是否按 HTML 报告处理。
func IsHTML(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".html") || strings.HasSuffix(n, ".htm")
}
