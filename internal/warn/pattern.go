package warn

import (
	"regexp"

	"github.com/John-Robertt/sudocwarn/internal/domain"
)

// Pattern 是一个命名的 warning 匹配器。
//
// 约束：
// - Name 在 Registry 内唯一
// - Match 必须是纯函数：相同输入 => 相同输出
// - 命中时返回的 Fields 只填本类型产出的字段，其余保持空串
type Pattern interface {
	Name() string
	Match(line string) (domain.Fields, bool)
}

// ExtractFunc 把主正则的捕获组（groups[0] 为整体匹配）映射为字段。
// line 是完整行文本，供需要二次扫描的类型使用。
type ExtractFunc func(groups []string, line string) domain.Fields

// RegexpPattern 是“主正则 + 字段映射”形式的 Pattern。
type RegexpPattern struct {
	name    string
	re      *regexp.Regexp
	extract ExtractFunc
}

var _ Pattern = (*RegexpPattern)(nil)

func NewRegexpPattern(name string, re *regexp.Regexp, extract ExtractFunc) *RegexpPattern {
	return &RegexpPattern{name: name, re: re, extract: extract}
}

func (p *RegexpPattern) Name() string { return p.name }

func (p *RegexpPattern) Match(line string) (domain.Fields, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return domain.Fields{}, false
	}
	if p.extract == nil {
		return domain.Fields{}, true
	}
	return p.extract(m, line), true
}
