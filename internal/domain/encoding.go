package domain

// ReplaceFallbackName 是终极兜底（UTF-8 + 替换非法字节）的标记名。
const ReplaceFallbackName = "utf-8 (replace)"

// EncodingAttempt 记录一个文件的编码尝试链路。
//
// Tried 按尝试顺序排列，最后一项就是 Selected（成功的编码或兜底标记）。
// 每个文件计算一次，读完即丢弃，不持久化（run report 中只保留快照）。
type EncodingAttempt struct {
	Tried    []string
	Selected string
}

// Fallback 表示是否落到了终极兜底模式。
func (a EncodingAttempt) Fallback() bool {
	return a.Selected == ReplaceFallbackName
}
