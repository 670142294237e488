package domain

// InputFile 描述一次扫描得到的输入报告文件（只做 stat，不读内容）。
//
// 不变量：AbsPath 必须是 clean + absolute；Name 是 basename（写入 fichier 列）。
type InputFile struct {
	AbsPath string
	Name    string
	Size    int64
}
