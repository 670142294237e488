// Package export 把累积的 Record 序列化为表格输出（CSV 或 SQLite）。
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/infra/fsx"
)

const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// ErrUnwritable 表示输出路径不可写；run 在处理任何输入之前就会因此中止。
var ErrUnwritable = errors.New("输出路径不可写")

// FormatFor 按扩展名推断输出格式：.db/.sqlite/.sqlite3 为 sqlite，其余为 csv。
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Preflight 确认 path 可以被覆盖写入。
func Preflight(path string) error {
	if err := fsx.CheckWritable(path); err != nil {
		return fmt.Errorf("%w：%q：%w", ErrUnwritable, path, err)
	}
	return nil
}

// Write 按 format 把 records 写到 path（总是覆盖已存在的文件）。
// records 为空时也会写出：CSV 只有表头，SQLite 只有空表。
func Write(ctx context.Context, format, path string, records []domain.Record) error {
	switch format {
	case FormatCSV, "":
		return fsx.WriteAtomic(path, func(w io.Writer) error {
			return WriteCSV(w, records)
		})
	case FormatSQLite:
		return WriteSQLite(ctx, path, records)
	default:
		return fmt.Errorf("未知的输出格式：%q", format)
	}
}

// WriteCSV 写出表头与每条记录；输出固定为 UTF-8，行结束符为 \r\n。
// 含分隔符、引号或换行的字段按标准 CSV 规则加引号。
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(domain.Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
