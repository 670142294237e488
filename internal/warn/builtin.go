package warn

import (
	"regexp"
	"strings"

	"github.com/John-Robertt/sudocwarn/internal/domain"
)

const (
	TypeBarcodeAlreadyPresent = "code_barres_deja_present"
	TypeSimilarDIA107         = "similaire_DIA107"
)

// 写正则时用 {ws}/{tok} 占位：
// - {ws}：任意空白，包含 U+00A0（法语排版在 ':' 前常用不换行空格）
// - {tok}：一个非空白 token
var placeholders = strings.NewReplacer(
	"{ws}", `[\s\p{Zs}]`,
	"{tok}", `[^\s\p{Zs}]+`,
)

func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + placeholders.Replace(expr))
}

var (
	barcodeRE = mustCompile(
		`WARN>.*Titre{ws}*:{ws}*({tok}).*Code[-\s\p{Zs}]?barres{ws}*(\d+).*d[ée]j[àa]{ws}+pr[ée]sent`,
	)
	similarRE = mustCompile(
		`Not\.?{ws}+li[ée]e{ws}+\(cd=({tok})\){ws}+Trouv[ée]e?{ws}+similaire{ws}+[àa]{ws}+({tok}){ws}+cause{ws}*:{ws}*(DIA107)`,
	)
	// titleRE 在整行中查找第一个 "Titre :"，不限于主正则命中的区间。
	titleRE = mustCompile(`Titre{ws}*:{ws}*({tok})`)
)

// BarcodeAlreadyPresent：条码已存在。titre/code_barres 都来自主正则。
func BarcodeAlreadyPresent() Pattern {
	return NewRegexpPattern(TypeBarcodeAlreadyPresent, barcodeRE, func(g []string, _ string) domain.Fields {
		return domain.Fields{Title: g[1], Barcode: g[2]}
	})
}

// SimilarDIA107：未关联、找到相似记录（cause DIA107）。
// titre 通过二次扫描获得；找不到时为空串，仍然产出记录。
func SimilarDIA107() Pattern {
	return NewRegexpPattern(TypeSimilarDIA107, similarRE, func(g []string, line string) domain.Fields {
		f := domain.Fields{LinkedID: g[1], SimilarID: g[2], Cause: g[3]}
		if m := titleRE.FindStringSubmatch(line); m != nil {
			f.Title = m[1]
		}
		return f
	})
}

// Builtin 返回内置注册表（固定优先级顺序）。
func Builtin() Registry {
	r, err := NewRegistry(
		BarcodeAlreadyPresent(),
		SimilarDIA107(),
	)
	if err != nil {
		panic(err)
	}
	return r
}
