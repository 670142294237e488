package warn

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/sudocwarn/internal/domain"
)

// Registry 是有序的 pattern 列表：顺序就是优先级，属于输出语义的一部分。
// 新的 warning 类型只需追加到列表，下游不按类型名分支。
type Registry struct {
	patterns []Pattern
}

func NewRegistry(patterns ...Pattern) (Registry, error) {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p == nil {
			return Registry{}, fmt.Errorf("pattern 不能为空")
		}
		name := strings.TrimSpace(p.Name())
		if name == "" {
			return Registry{}, fmt.Errorf("pattern.Name 不能为空")
		}
		if _, ok := seen[name]; ok {
			return Registry{}, fmt.Errorf("重复的 pattern：%q", name)
		}
		seen[name] = struct{}{}
		out = append(out, p)
	}
	return Registry{patterns: out}, nil
}

// Names 按优先级返回 pattern 名称。
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		names = append(names, p.Name())
	}
	return names
}

func (r Registry) Len() int { return len(r.patterns) }

// Select 返回只包含 names 的子注册表；顺序仍按 r 的顺序（而不是 names 的顺序）。
// names 为空时返回 r 本身。
func (r Registry) Select(names []string) (Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = struct{}{}
	}

	out := make([]Pattern, 0, len(want))
	for _, p := range r.patterns {
		if _, ok := want[p.Name()]; ok {
			out = append(out, p)
			delete(want, p.Name())
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for _, n := range names {
			if _, ok := want[strings.TrimSpace(n)]; ok {
				unknown = append(unknown, strings.TrimSpace(n))
			}
		}
		return Registry{}, fmt.Errorf("未知的 pattern：%s（可选：%s）",
			strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}
	return Registry{patterns: out}, nil
}

// Classify 按注册顺序逐个尝试，返回第一个命中的结果（first-match-wins）；
// 命中后不再评估后续 pattern。没有命中不是错误。
//
// 匹配前把行规范化为 NFC，使分解形式的重音字符（e + U+0301）也能命中。
func (r Registry) Classify(line string) (domain.Match, bool) {
	if !norm.NFC.IsNormalString(line) {
		line = norm.NFC.String(line)
	}
	for _, p := range r.patterns {
		if f, ok := p.Match(line); ok {
			return domain.Match{Type: p.Name(), Fields: f}, true
		}
	}
	return domain.Match{}, false
}
