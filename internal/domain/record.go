package domain

import "strconv"

// Columns 是导出表格的固定表头（顺序即列序，属于对外契约）。
var Columns = []string{
	"type_warn",
	"fichier",
	"titre",
	"code_barres",
	"notice_liee",
	"similaire",
	"cause",
	"ligne_fichier",
	"message_complet",
}

// Fields 是所有 warning 类型可能产出字段的并集。
// 某个 pattern 未产出的字段保持空串（不是“缺失”）。
type Fields struct {
	Title     string // titre
	Barcode   string // code_barres
	LinkedID  string // notice_liee
	SimilarID string // similaire
	Cause     string // cause
}

// Match 是一行文本被某个 pattern 命中后的瞬时结果。
// 折叠进 Record 后即丢弃。
type Match struct {
	Type   string // pattern name
	Fields Fields
}

// Record 是一行输出（对应恰好一行命中的日志）。
//
// 不变量：
// - Type / File / Message 非空，Line >= 1
// - 创建后不再修改（只追加到缓冲区）
type Record struct {
	Type    string
	File    string // basename
	Fields  Fields
	Line    int
	Message string
}

// BuildRecord 把命中结果与文件/行元数据合并为 Record。
// 纯映射：不做校验，也不做内容规范化（例如不去掉条码前导 0）。
func BuildRecord(m Match, file string, line int, raw string) Record {
	return Record{
		Type:    m.Type,
		File:    file,
		Fields:  m.Fields,
		Line:    line,
		Message: raw,
	}
}

// Row 按 Columns 的顺序返回一行字符串值。
func (r Record) Row() []string {
	return []string{
		r.Type,
		r.File,
		r.Fields.Title,
		r.Fields.Barcode,
		r.Fields.LinkedID,
		r.Fields.SimilarID,
		r.Fields.Cause,
		strconv.Itoa(r.Line),
		r.Message,
	}
}
