// Package charset 为输入文件选择文本编码并解码。
//
// 顺序（固定）：探测结果（若有）-> 固定回退列表 -> UTF-8 替换模式兜底。
// 每个候选都对整个文件做严格解码，任何非法字节都会放弃该候选。
package charset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/lines"
)

// DefaultSampleSize 是交给探测器的前缀字节数。
const DefaultSampleSize = 4096

// DefaultFallbacks 是固定回退列表（顺序即优先级）。
var DefaultFallbacks = []string{"utf-8", "utf-8-sig", "windows-1252", "iso-8859-1"}

var (
	errInvalidBytes = errors.New("charset: invalid byte sequence")
	errUnsupported  = errors.New("charset: unsupported encoding")
)

// windows-1252 中未定义的字节；严格模式下视为非法。
var cp1252Undefined = [256]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Resolver 持有探测器与回退列表。零值可用：不探测，使用 DefaultFallbacks。
type Resolver struct {
	Detector   Detector
	Fallbacks  []string
	SampleSize int
}

// Resolution 是一个文件的解码结果。
type Resolution struct {
	Path    string
	Attempt domain.EncodingAttempt
	Text    string
}

// Scanner 返回逐物理行读取 Text 的 Scanner。
func (r Resolution) Scanner() *bufio.Scanner {
	return lines.NewScanner(r.Text)
}

// Resolve 读取 path 并解码。
// 只有读文件失败才会返回错误；解码失败在内部按候选顺序降级，最终兜底不会失败。
func (r Resolver) Resolve(path string) (Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Resolution{}, err
	}
	text, att := r.Decode(data)
	return Resolution{Path: path, Attempt: att, Text: text}, nil
}

// Decode 是 Resolve 的纯函数部分：对内存中的字节选择编码并解码。
func (r Resolver) Decode(data []byte) (string, domain.EncodingAttempt) {
	sample := data
	if n := r.sampleSize(); len(sample) > n {
		sample = sample[:n]
	}

	var tried []string
	for _, name := range r.Candidates(sample) {
		tried = append(tried, name)
		if text, err := DecodeStrict(name, data); err == nil {
			return text, domain.EncodingAttempt{Tried: tried, Selected: name}
		}
	}

	text, _ := unicode.UTF8.NewDecoder().Bytes(data)
	tried = append(tried, domain.ReplaceFallbackName)
	return string(text), domain.EncodingAttempt{Tried: tried, Selected: domain.ReplaceFallbackName}
}

// Candidates 返回候选编码：[探测结果] + 回退列表，按规范名去重并保留首次出现的位置。
func (r Resolver) Candidates(sample []byte) []string {
	fallbacks := r.Fallbacks
	if fallbacks == nil {
		fallbacks = DefaultFallbacks
	}

	seen := make(map[string]struct{}, len(fallbacks)+1)
	out := make([]string, 0, len(fallbacks)+1)
	add := func(name string) {
		name = Canonical(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if r.Detector != nil {
		if guess, ok := r.Detector.Guess(sample); ok {
			add(guess)
		}
	}
	for _, name := range fallbacks {
		add(name)
	}
	return out
}

func (r Resolver) sampleSize() int {
	if r.SampleSize <= 0 {
		return DefaultSampleSize
	}
	return r.SampleSize
}

var aliases = map[string]string{
	"utf8":         "utf-8",
	"utf-8":        "utf-8",
	"utf-8-sig":    "utf-8-sig",
	"utf8-sig":     "utf-8-sig",
	"utf-8-bom":    "utf-8-sig",
	"cp1252":       "windows-1252",
	"win-1252":     "windows-1252",
	"windows-1252": "windows-1252",
	"latin-1":      "iso-8859-1",
	"latin1":       "iso-8859-1",
	"l1":           "iso-8859-1",
	"iso8859-1":    "iso-8859-1",
	"iso-8859-1":   "iso-8859-1",
	"ascii":        "ascii",
	"us-ascii":     "ascii",
}

// Canonical 把编码名规范为小写，并合并常见别名
// （例如 cp1252 -> windows-1252，utf_8_sig -> utf-8-sig）。
// 不认识的名字只做小写，交给 IANA 索引解析（例如 shift_jis 必须保留下划线）。
func Canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	if a, ok := aliases[strings.ReplaceAll(n, "_", "-")]; ok {
		return a
	}
	return n
}

// DecodeStrict 用 name 严格解码 data；任何非法字节序列都会返回错误。
func DecodeStrict(name string, data []byte) (string, error) {
	switch Canonical(name) {
	case "utf-8":
		if !utf8.Valid(data) {
			return "", errInvalidBytes
		}
		return string(data), nil
	case "utf-8-sig":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", errInvalidBytes
		}
		return string(data), nil
	case "ascii":
		for _, b := range data {
			if b >= utf8.RuneSelf {
				return "", errInvalidBytes
			}
		}
		return string(data), nil
	case "windows-1252":
		for _, b := range data {
			if cp1252Undefined[b] {
				return "", errInvalidBytes
			}
		}
		return decodeCharmap(charmap.Windows1252, data)
	case "iso-8859-1":
		return decodeCharmap(charmap.ISO8859_1, data)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("%w: %q", errUnsupported, name)
	}
	if cm, ok := enc.(*charmap.Charmap); ok {
		return decodeCharmap(cm, data)
	}
	return decodeGeneric(enc, data)
}

func decodeCharmap(cm *charmap.Charmap, data []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		r := cm.DecodeByte(b)
		if r == utf8.RuneError {
			return "", errInvalidBytes
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// decodeGeneric 处理多字节编码：x/text 的解码器遇到非法序列时写入 U+FFFD 而不报错，
// 因此严格模式把输出中出现 U+FFFD 视为失败。
func decodeGeneric(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errInvalidBytes
	}
	return string(out), nil
}

// Supported 判断 name 是否是可用于回退列表的编码名。
func Supported(name string) bool {
	switch Canonical(name) {
	case "":
		return false
	case "utf-8", "utf-8-sig", "ascii", "windows-1252", "iso-8859-1":
		return true
	}
	enc, err := ianaindex.IANA.Encoding(name)
	return err == nil && enc != nil
}
