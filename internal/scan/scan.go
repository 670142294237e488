package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/sudocwarn/internal/domain"
)

// ScanInputs 按 glob 列出输入文件，结果按绝对路径排序（同一文件系统状态下每次运行顺序一致）。
//
// 规则（硬约束）：
// - 只保留普通文件；目录等被忽略
// - 与 shell 一致：'*' 不匹配以 '.' 开头的文件名（除非模式本身以 '.' 开头）
// - stat 失败的条目（例如失效的符号链接）仍然返回，由读取阶段报告错误
// - exclude 中的路径（例如输出文件本身）被排除
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ScanInputs(pattern string, exclude ...string) ([]domain.InputFile, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("输入模式不能为空")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("输入模式无效 %q：%w", pattern, err)
	}

	excluded := buildExcluded(exclude)
	hiddenOK := strings.HasPrefix(filepath.Base(pattern), ".")

	files := make([]domain.InputFile, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		if _, ok := excluded[abs]; ok {
			continue
		}
		name := filepath.Base(abs)
		if !hiddenOK && strings.HasPrefix(name, ".") {
			continue
		}

		f := domain.InputFile{AbsPath: abs, Name: name}
		info, err := os.Stat(abs)
		if err != nil {
			// 失效的符号链接等：保留条目，读取时按 on_file_error 处理，而不是让整个扫描失败。
			files = append(files, f)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		f.Size = info.Size()
		files = append(files, f)
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].AbsPath < files[j].AbsPath })
	return files, nil
}

func buildExcluded(paths []string) map[string]struct{} {
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		out[filepath.Clean(abs)] = struct{}{}
	}
	return out
}
