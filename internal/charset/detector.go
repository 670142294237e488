package charset

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// DefaultMinConfidence 是接受统计探测结果的最低置信度（0..1）。
const DefaultMinConfidence = 0.5

// Detector 根据字节前缀猜测编码；没有把握时返回 ok=false。
//
// Resolver 只依赖该接口，不关心探测能力是否可用。
type Detector interface {
	Name() string
	Guess(sample []byte) (name string, ok bool)
}

// NullDetector 永远不给出猜测（探测能力不可用/被关闭时使用）。
type NullDetector struct{}

func (NullDetector) Name() string                { return "none" }
func (NullDetector) Guess([]byte) (string, bool) { return "", false }

// ChardetDetector 基于 saintfish/chardet 的统计探测。
type ChardetDetector struct {
	MinConfidence float64
	det           *chardet.Detector
}

func NewChardetDetector(minConfidence float64) *ChardetDetector {
	return &ChardetDetector{
		MinConfidence: minConfidence,
		det:           chardet.NewTextDetector(),
	}
}

func (d *ChardetDetector) Name() string { return "chardet" }

// Guess 只在置信度 >= MinConfidence 时返回猜测。
// chardet 的 Confidence 是 0..100 的整数。
//
// 全部是 7 位字节的样本直接返回 ascii：chardet 会把它判成 ISO-8859-1，
// 而 iso-8859-1 能解码任何字节，样本之后的 UTF-8 内容就会被静默解错。
// ascii 严格解码失败后，候选链会继续尝试 utf-8。
func (d *ChardetDetector) Guess(sample []byte) (string, bool) {
	if len(sample) == 0 {
		return "", false
	}
	if isASCII(sample) {
		return "ascii", true
	}
	res, err := d.det.DetectBest(sample)
	if err != nil || res == nil || res.Charset == "" {
		return "", false
	}
	if float64(res.Confidence)/100 < d.MinConfidence {
		return "", false
	}
	return mapGuess(res.Charset), true
}

// mapGuess 把 chardet 的 ISO-8859-1 提升为 windows-1252（超集；0x80..0x9F 是可打印字符）。
// cp1252 严格解码失败时，回退列表里的 iso-8859-1 仍会兜住。
func mapGuess(charset string) string {
	if strings.EqualFold(charset, "ISO-8859-1") {
		return "windows-1252"
	}
	return charset
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// NewDetector 按名称选择探测实现："chardet" 或 "none"。
// 未知名称退化为 NullDetector。
func NewDetector(name string, minConfidence float64) Detector {
	switch name {
	case "chardet":
		return NewChardetDetector(minConfidence)
	default:
		return NullDetector{}
	}
}
